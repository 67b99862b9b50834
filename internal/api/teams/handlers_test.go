package teams

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hhpl/auction-server/internal/config"
	appdb "github.com/hhpl/auction-server/internal/db"
	"github.com/hhpl/auction-server/internal/testutil"
)

func setupHandlers(t *testing.T) *appdb.DB {
	t.Helper()
	database := testutil.NewTestDB(t)
	cfg := &config.Config{}
	cfg.Auction.DefaultBudget = 5000
	InitHandlers(database, cfg, nil)
	return database
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/teams/register", HandleRegister)
	mux.HandleFunc("GET /api/v1/teams", HandleList)
	mux.HandleFunc("GET /api/v1/teams/owner/{email}", HandleGetByOwnerEmail)
	mux.HandleFunc("GET /api/v1/teams/{id}", HandleGet)
	mux.HandleFunc("GET /api/v1/teams/{id}/players", HandleListPlayers)
	mux.HandleFunc("DELETE /api/v1/teams/{id}", HandleDelete)
	return mux
}

func doJSON(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

const registerBody = `{
	"name": "Night Riders",
	"ownerName": "A. Sharma",
	"email": "riders@example.com",
	"password": "s3cret-pass",
	"phoneNumber": "+919876543210"
}`

func TestHandleRegister(t *testing.T) {
	setupHandlers(t)
	mux := newMux()

	w := doJSON(mux, http.MethodPost, "/api/v1/teams/register", registerBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Success bool       `json:"success"`
		Data    appdb.Team `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	team := envelope.Data
	if team.TotalBudget != 5000 || team.RemainingBudget != 5000 {
		t.Errorf("budgets = %d/%d, want 5000/5000", team.TotalBudget, team.RemainingBudget)
	}
	if team.Email != "riders@example.com" {
		t.Errorf("email = %q, want lowercased original", team.Email)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("response must not leak password material")
	}
}

func TestHandleRegisterDuplicateEmail(t *testing.T) {
	setupHandlers(t)
	mux := newMux()

	if w := doJSON(mux, http.MethodPost, "/api/v1/teams/register", registerBody); w.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", w.Code)
	}

	// Same email, different case: still a duplicate.
	dup := strings.Replace(registerBody, "riders@example.com", "RIDERS@EXAMPLE.COM", 1)
	dup = strings.Replace(dup, "Night Riders", "Other Riders", 1)
	if w := doJSON(mux, http.MethodPost, "/api/v1/teams/register", dup); w.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", w.Code)
	}
}

func TestHandleRegisterValidation(t *testing.T) {
	setupHandlers(t)
	mux := newMux()

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"ownerName": "X", "email": "a@b.com", "password": "longenough"}`},
		{"bad email", `{"name": "T", "ownerName": "X", "email": "nope", "password": "longenough"}`},
		{"short password", `{"name": "T", "ownerName": "X", "email": "a@b.com", "password": "short"}`},
		{"bad phone", `{"name": "T", "ownerName": "X", "email": "a@b.com", "password": "longenough", "phoneNumber": "12"}`},
		{"unknown field", `{"name": "T", "ownerName": "X", "email": "a@b.com", "password": "longenough", "budget": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := doJSON(mux, http.MethodPost, "/api/v1/teams/register", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestHandleGetAndByOwner(t *testing.T) {
	setupHandlers(t)
	mux := newMux()

	w := doJSON(mux, http.MethodPost, "/api/v1/teams/register", registerBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}
	var created struct {
		Data appdb.Team `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = doJSON(mux, http.MethodGet, fmt.Sprintf("/api/v1/teams/%d", created.Data.ID), "")
	if w.Code != http.StatusOK {
		t.Errorf("get status = %d, want 200", w.Code)
	}

	w = doJSON(mux, http.MethodGet, "/api/v1/teams/owner/RIDERS@example.com", "")
	if w.Code != http.StatusOK {
		t.Errorf("by-owner status = %d, want 200; body %s", w.Code, w.Body.String())
	}

	w = doJSON(mux, http.MethodGet, "/api/v1/teams/owner/missing@example.com", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("by-owner missing status = %d, want 404", w.Code)
	}

	w = doJSON(mux, http.MethodGet, "/api/v1/teams/9999", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get missing status = %d, want 404", w.Code)
	}
}

func TestHandleDeleteBlockedWhileRosterHeld(t *testing.T) {
	database := setupHandlers(t)
	mux := newMux()
	ctx := context.Background()

	w := doJSON(mux, http.MethodPost, "/api/v1/teams/register", registerBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}
	var created struct {
		Data appdb.Team `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	teamID := created.Data.ID

	// Give the team a sold player directly through the store.
	player, err := database.Queries.CreatePlayer(ctx, appdb.CreatePlayerParams{Name: "P", Role: "batsman"})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if _, err := database.ExecContext(ctx, `
		UPDATE players SET status = 'sold', sold_to_team_id = ?, sold_price = 100 WHERE id = ?`,
		teamID, player.ID); err != nil {
		t.Fatalf("mark sold: %v", err)
	}

	if w := doJSON(mux, http.MethodDelete, fmt.Sprintf("/api/v1/teams/%d", teamID), ""); w.Code != http.StatusConflict {
		t.Errorf("delete with roster status = %d, want 409", w.Code)
	}

	// Once the roster is released, delete succeeds.
	if _, err := database.ExecContext(ctx, `
		UPDATE players SET status = 'available', sold_to_team_id = NULL, sold_price = NULL WHERE id = ?`,
		player.ID); err != nil {
		t.Fatalf("release player: %v", err)
	}
	if w := doJSON(mux, http.MethodDelete, fmt.Sprintf("/api/v1/teams/%d", teamID), ""); w.Code != http.StatusOK {
		t.Errorf("delete status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	if w := doJSON(mux, http.MethodDelete, fmt.Sprintf("/api/v1/teams/%d", teamID), ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestHandleListPlayersForTeam(t *testing.T) {
	database := setupHandlers(t)
	mux := newMux()
	ctx := context.Background()

	w := doJSON(mux, http.MethodPost, "/api/v1/teams/register", registerBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}
	var created struct {
		Data appdb.Team `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	player, err := database.Queries.CreatePlayer(ctx, appdb.CreatePlayerParams{Name: "Owned", Role: "bowler"})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if _, err := database.ExecContext(ctx, `
		UPDATE players SET status = 'sold', sold_to_team_id = ?, sold_price = 200 WHERE id = ?`,
		created.Data.ID, player.ID); err != nil {
		t.Fatalf("mark sold: %v", err)
	}

	w = doJSON(mux, http.MethodGet, fmt.Sprintf("/api/v1/teams/%d/players", created.Data.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("list players status = %d; body %s", w.Code, w.Body.String())
	}
	var roster struct {
		Data []struct {
			Name      string `json:"name"`
			SoldPrice *int64 `json:"soldPrice"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &roster); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(roster.Data) != 1 || roster.Data[0].Name != "Owned" {
		t.Errorf("roster = %+v, want single player Owned", roster.Data)
	}
	if roster.Data[0].SoldPrice == nil || *roster.Data[0].SoldPrice != 200 {
		t.Errorf("sold price = %v, want 200", roster.Data[0].SoldPrice)
	}
}
