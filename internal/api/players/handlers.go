// Package players serves the player pool: profile CRUD plus status filters.
package players

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hhpl/auction-server/internal/api/apiutil"
	appdb "github.com/hhpl/auction-server/internal/db"
)

var queries *appdb.Queries

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB) {
	if database != nil {
		queries = database.Queries
	}
}

var validRoles = map[string]bool{
	"batsman":      true,
	"bowler":       true,
	"all-rounder":  true,
	"wicketkeeper": true,
}

type playerRequest struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	BattingStyle string `json:"battingStyle"`
	BowlingStyle string `json:"bowlingStyle"`
	DateOfBirth  string `json:"dateOfBirth"`
	Photo        string `json:"photo"`
}

func (req *playerRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))

	if req.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if !validRoles[req.Role] {
		return fmt.Errorf("invalid role: must be batsman, bowler, all-rounder, or wicketkeeper")
	}
	if req.DateOfBirth != "" {
		if _, err := time.Parse("2006-01-02", req.DateOfBirth); err != nil {
			return fmt.Errorf("date of birth must be YYYY-MM-DD")
		}
	}
	return nil
}

// POST /api/v1/players
func HandleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var req playerRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	player, err := queries.CreatePlayer(r.Context(), appdb.CreatePlayerParams{
		Name:         req.Name,
		Role:         req.Role,
		BattingStyle: req.BattingStyle,
		BowlingStyle: req.BowlingStyle,
		DateOfBirth:  req.DateOfBirth,
		Photo:        req.Photo,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create player")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create player")
		return
	}

	logger.Info().Int64("player_id", player.ID).Str("name", player.Name).Msg("Player created")
	_ = apiutil.WriteData(w, http.StatusCreated, player)
}

// GET /api/v1/players?status=available|sold
func HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		players []appdb.Player
		err     error
	)

	switch status := r.URL.Query().Get("status"); status {
	case "":
		players, err = queries.ListPlayers(r.Context())
	case appdb.PlayerStatusAvailable, appdb.PlayerStatusSold:
		players, err = queries.ListPlayersByStatus(r.Context(), status)
	default:
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid status filter")
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list players")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list players")
		return
	}
	if players == nil {
		players = []appdb.Player{}
	}
	_ = apiutil.WriteData(w, http.StatusOK, players)
}

// GET /api/v1/players/{id}
func HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid player id")
		return
	}

	player, err := queries.GetPlayer(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		apiutil.WriteError(w, http.StatusNotFound, "Player not found")
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("player_id", id).Msg("Failed to load player")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load player")
		return
	}
	_ = apiutil.WriteData(w, http.StatusOK, player)
}

// PUT /api/v1/players/{id}
func HandleUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid player id")
		return
	}

	var req playerRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	player, err := queries.UpdatePlayerProfile(r.Context(), appdb.UpdatePlayerProfileParams{
		ID:           id,
		Name:         req.Name,
		Role:         req.Role,
		BattingStyle: req.BattingStyle,
		BowlingStyle: req.BowlingStyle,
		DateOfBirth:  req.DateOfBirth,
		Photo:        req.Photo,
	})
	if errors.Is(err, sql.ErrNoRows) {
		apiutil.WriteError(w, http.StatusNotFound, "Player not found")
		return
	}
	if err != nil {
		logger.Error().Err(err).Int64("player_id", id).Msg("Failed to update player")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update player")
		return
	}

	logger.Info().Int64("player_id", id).Msg("Player updated")
	_ = apiutil.WriteData(w, http.StatusOK, player)
}

// DELETE /api/v1/players/{id}
//
// A sold player cannot be removed; unsell first so the buying team's
// budget is restored through the settlement path.
func HandleDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid player id")
		return
	}

	player, err := queries.GetPlayer(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		apiutil.WriteError(w, http.StatusNotFound, "Player not found")
		return
	}
	if err != nil {
		logger.Error().Err(err).Int64("player_id", id).Msg("Failed to load player")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to delete player")
		return
	}
	if player.Status == appdb.PlayerStatusSold {
		apiutil.WriteError(w, http.StatusConflict, "Player is sold; unsell before deleting")
		return
	}

	if err := queries.DeletePlayer(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Player not found")
			return
		}
		logger.Error().Err(err).Int64("player_id", id).Msg("Failed to delete player")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to delete player")
		return
	}

	logger.Info().Int64("player_id", id).Msg("Player deleted")
	_ = apiutil.WriteData(w, http.StatusOK, map[string]int64{"id": id})
}
