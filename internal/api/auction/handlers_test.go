package auction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	engine "github.com/hhpl/auction-server/internal/auction"
	appdb "github.com/hhpl/auction-server/internal/db"
	"github.com/hhpl/auction-server/internal/testutil"
)

func setupHandlers(t *testing.T) *appdb.DB {
	t.Helper()
	database := testutil.NewTestDB(t)
	InitHandlers(engine.NewEngine(database), nil)
	return database
}

func seedTeam(t *testing.T, database *appdb.DB, budget int64) appdb.Team {
	t.Helper()
	team, err := database.Queries.CreateTeam(context.Background(), appdb.CreateTeamParams{
		Name:         "Handlers FC",
		OwnerName:    "Owner",
		Email:        "handlers@example.com",
		PasswordHash: "x",
		TotalBudget:  budget,
	})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	return team
}

func seedPlayer(t *testing.T, database *appdb.DB) appdb.Player {
	t.Helper()
	player, err := database.Queries.CreatePlayer(context.Background(), appdb.CreatePlayerParams{
		Name: "Test Player",
		Role: "bowler",
	})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	return player
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestHandleSell(t *testing.T) {
	database := setupHandlers(t)
	team := seedTeam(t, database, 1000)
	player := seedPlayer(t, database)

	w := postJSON(t, HandleSell, "/api/v1/auction/sell",
		`{"playerId": `+itoa(player.ID)+`, "teamId": `+itoa(team.ID)+`, "price": 400}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Player struct {
				Status       string `json:"status"`
				SoldToTeamID *int64 `json:"soldToTeamId"`
				SoldPrice    *int64 `json:"soldPrice"`
			} `json:"player"`
			Team appdb.Team `json:"team"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success {
		t.Error("expected success envelope")
	}
	if envelope.Data.Team.RemainingBudget != 600 {
		t.Errorf("remaining budget = %d, want 600", envelope.Data.Team.RemainingBudget)
	}
	if envelope.Data.Player.Status != appdb.PlayerStatusSold {
		t.Errorf("player status = %q, want sold", envelope.Data.Player.Status)
	}
	if envelope.Data.Player.SoldPrice == nil || *envelope.Data.Player.SoldPrice != 400 {
		t.Errorf("sold price = %v, want 400", envelope.Data.Player.SoldPrice)
	}
}

func TestHandleSellErrorMapping(t *testing.T) {
	database := setupHandlers(t)
	team := seedTeam(t, database, 300)
	player := seedPlayer(t, database)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"insufficient funds", `{"playerId": ` + itoa(player.ID) + `, "teamId": ` + itoa(team.ID) + `, "price": 301}`, http.StatusUnprocessableEntity},
		{"invalid price", `{"playerId": ` + itoa(player.ID) + `, "teamId": ` + itoa(team.ID) + `, "price": 0}`, http.StatusBadRequest},
		{"unknown player", `{"playerId": 9999, "teamId": ` + itoa(team.ID) + `, "price": 100}`, http.StatusNotFound},
		{"unknown team", `{"playerId": ` + itoa(player.ID) + `, "teamId": 9999, "price": 100}`, http.StatusNotFound},
		{"malformed body", `{"playerId": }`, http.StatusBadRequest},
		{"missing ids", `{"price": 100}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, HandleSell, "/api/v1/auction/sell", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d; body %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestHandleSellDoubleSaleConflicts(t *testing.T) {
	database := setupHandlers(t)
	team := seedTeam(t, database, 1000)
	player := seedPlayer(t, database)
	body := `{"playerId": ` + itoa(player.ID) + `, "teamId": ` + itoa(team.ID) + `, "price": 100}`

	if w := postJSON(t, HandleSell, "/api/v1/auction/sell", body); w.Code != http.StatusOK {
		t.Fatalf("first sell status = %d", w.Code)
	}
	if w := postJSON(t, HandleSell, "/api/v1/auction/sell", body); w.Code != http.StatusConflict {
		t.Errorf("second sell status = %d, want 409", w.Code)
	}
}

func TestHandleUnsell(t *testing.T) {
	database := setupHandlers(t)
	team := seedTeam(t, database, 1000)
	player := seedPlayer(t, database)

	// Unsold player conflicts.
	w := postJSON(t, HandleUnsell, "/api/v1/auction/unsell", `{"playerId": `+itoa(player.ID)+`}`)
	if w.Code != http.StatusConflict {
		t.Errorf("unsell available player status = %d, want 409", w.Code)
	}

	if w := postJSON(t, HandleSell, "/api/v1/auction/sell",
		`{"playerId": `+itoa(player.ID)+`, "teamId": `+itoa(team.ID)+`, "price": 250}`); w.Code != http.StatusOK {
		t.Fatalf("sell status = %d", w.Code)
	}

	w = postJSON(t, HandleUnsell, "/api/v1/auction/unsell", `{"playerId": `+itoa(player.ID)+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("unsell status = %d; body %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Data struct {
			Team appdb.Team `json:"team"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Team.RemainingBudget != 1000 {
		t.Errorf("remaining budget = %d, want 1000", envelope.Data.Team.RemainingBudget)
	}

	// Unknown player is a 404.
	w = postJSON(t, HandleUnsell, "/api/v1/auction/unsell", `{"playerId": 9999}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown player status = %d, want 404", w.Code)
	}
}

func TestWriteSettlementErrorBusy(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auction/sell", nil)
	w := httptest.NewRecorder()

	writeSettlementError(w, req, fmt.Errorf("%w: database is locked", engine.ErrBusy))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want %q", got, "1")
	}
	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Success || envelope.Error == "" {
		t.Errorf("body = %s, want failure envelope with message", w.Body.String())
	}
}

func TestWriteSettlementErrorUnknown(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auction/sell", nil)
	w := httptest.NewRecorder()

	writeSettlementError(w, req, errors.New("driver gave up"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "" {
		t.Errorf("Retry-After = %q, want unset", got)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
