// Package auction exposes the settlement endpoints. Both are admin-only;
// everything financial goes through the engine, never straight to the store.
package auction

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hhpl/auction-server/internal/api/apiutil"
	engine "github.com/hhpl/auction-server/internal/auction"
	"github.com/hhpl/auction-server/internal/email"
)

var (
	settlement  *engine.Engine
	emailSender email.Sender
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(e *engine.Engine, sender email.Sender) {
	settlement = e
	emailSender = sender
}

type sellRequest struct {
	PlayerID int64 `json:"playerId"`
	TeamID   int64 `json:"teamId"`
	Price    int64 `json:"price"`
}

// POST /api/v1/auction/sell
func HandleSell(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var req sellRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlayerID <= 0 || req.TeamID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "playerId and teamId are required")
		return
	}

	result, err := settlement.Sell(r.Context(), req.PlayerID, req.TeamID, req.Price)
	if err != nil {
		writeSettlementError(w, r, err)
		return
	}

	email.Notify(emailSender, result.Team.Email,
		email.PlayerSold(result.Player.Name, result.Team.Name, req.Price, result.Team.RemainingBudget),
		logger)
	_ = apiutil.WriteData(w, http.StatusOK, result)
}

type unsellRequest struct {
	PlayerID int64 `json:"playerId"`
}

// POST /api/v1/auction/unsell
func HandleUnsell(w http.ResponseWriter, r *http.Request) {
	var req unsellRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlayerID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "playerId is required")
		return
	}

	result, err := settlement.Unsell(r.Context(), req.PlayerID)
	if err != nil {
		writeSettlementError(w, r, err)
		return
	}
	_ = apiutil.WriteData(w, http.StatusOK, result)
}

// writeSettlementError maps the engine's failure taxonomy onto HTTP statuses.
func writeSettlementError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrPlayerNotFound):
		apiutil.WriteError(w, http.StatusNotFound, "Player not found")
	case errors.Is(err, engine.ErrTeamNotFound):
		apiutil.WriteError(w, http.StatusNotFound, "Team not found")
	case errors.Is(err, engine.ErrAlreadySold):
		apiutil.WriteError(w, http.StatusConflict, "Player is already sold")
	case errors.Is(err, engine.ErrNotSold):
		apiutil.WriteError(w, http.StatusConflict, "Player is not sold")
	case errors.Is(err, engine.ErrInsufficientFunds):
		apiutil.WriteError(w, http.StatusUnprocessableEntity, "Team has insufficient remaining budget")
	case errors.Is(err, engine.ErrInvalidAmount):
		apiutil.WriteError(w, http.StatusBadRequest, "Price must be a positive amount")
	case errors.Is(err, engine.ErrBusy):
		w.Header().Set("Retry-After", "1")
		apiutil.WriteError(w, http.StatusServiceUnavailable, "Settlement busy, retry shortly")
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Settlement failed")
		apiutil.WriteError(w, http.StatusInternalServerError, "Settlement failed")
	}
}
