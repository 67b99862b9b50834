// Package matches serves the fixture list and result declarations.
package matches

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

type createRequest struct {
	MatchNumber string `json:"matchNumber"`
	GroupName   string `json:"groupName"`
	HomeTeamID  int64  `json:"homeTeamId"`
	AwayTeamID  int64  `json:"awayTeamId"`
	Venue       string `json:"venue"`
	Location    string `json:"location"`
	ScheduledAt string `json:"scheduledAt"` // RFC 3339
}

func (req *createRequest) validate() (time.Time, error) {
	req.MatchNumber = strings.TrimSpace(req.MatchNumber)
	if req.MatchNumber == "" {
		return time.Time{}, fmt.Errorf("match number is required")
	}
	if req.HomeTeamID <= 0 || req.AwayTeamID <= 0 {
		return time.Time{}, fmt.Errorf("homeTeamId and awayTeamId are required")
	}
	if req.HomeTeamID == req.AwayTeamID {
		return time.Time{}, fmt.Errorf("a team cannot play itself")
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduledAt must be RFC 3339")
	}
	return scheduledAt, nil
}

// POST /api/v1/matches
func HandleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	scheduledAt, err := req.validate()
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	for _, teamID := range []int64{req.HomeTeamID, req.AwayTeamID} {
		if _, err := queries.GetTeam(r.Context(), teamID); errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, fmt.Sprintf("Team %d not found", teamID))
			return
		} else if err != nil {
			logger.Error().Err(err).Int64("team_id", teamID).Msg("Failed to load team for match")
			apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create match")
			return
		}
	}

	match, err := queries.CreateMatch(r.Context(), appdb.CreateMatchParams{
		MatchNumber: req.MatchNumber,
		GroupName:   req.GroupName,
		HomeTeamID:  req.HomeTeamID,
		AwayTeamID:  req.AwayTeamID,
		Venue:       req.Venue,
		Location:    req.Location,
		ScheduledAt: scheduledAt,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create match")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create match")
		return
	}

	logger.Info().Int64("match_id", match.ID).Str("match_number", match.MatchNumber).Msg("Match scheduled")
	_ = apiutil.WriteData(w, http.StatusCreated, match)
}

// GET /api/v1/matches
func HandleList(w http.ResponseWriter, r *http.Request) {
	matches, err := queries.ListMatches(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list matches")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list matches")
		return
	}
	if matches == nil {
		matches = []appdb.Match{}
	}
	_ = apiutil.WriteData(w, http.StatusOK, matches)
}

// GET /api/v1/matches/{id}
func HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid match id")
		return
	}

	match, err := queries.GetMatch(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		apiutil.WriteError(w, http.StatusNotFound, "Match not found")
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("match_id", id).Msg("Failed to load match")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load match")
		return
	}
	_ = apiutil.WriteData(w, http.StatusOK, match)
}

type resultRequest struct {
	WinnerTeamID int64  `json:"winnerTeamId"`
	HomeScore    string `json:"homeScore"`
	AwayScore    string `json:"awayScore"`
}

// POST /api/v1/matches/{id}/result
func HandleDeclareResult(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid match id")
		return
	}

	var req resultRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.WinnerTeamID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "winnerTeamId is required")
		return
	}

	match, err := queries.GetMatch(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		apiutil.WriteError(w, http.StatusNotFound, "Match not found")
		return
	}
	if err != nil {
		logger.Error().Err(err).Int64("match_id", id).Msg("Failed to load match")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to declare result")
		return
	}
	if req.WinnerTeamID != match.HomeTeamID && req.WinnerTeamID != match.AwayTeamID {
		apiutil.WriteError(w, http.StatusBadRequest, "Winner must be one of the two teams playing")
		return
	}

	updated, err := queries.DeclareMatchResult(r.Context(), appdb.DeclareMatchResultParams{
		ID:           id,
		WinnerTeamID: req.WinnerTeamID,
		HomeScore:    req.HomeScore,
		AwayScore:    req.AwayScore,
	})
	if errors.Is(err, sql.ErrNoRows) {
		apiutil.WriteError(w, http.StatusConflict, "Match result is already declared")
		return
	}
	if err != nil {
		logger.Error().Err(err).Int64("match_id", id).Msg("Failed to declare result")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to declare result")
		return
	}

	logger.Info().Int64("match_id", id).Int64("winner_team_id", req.WinnerTeamID).Msg("Match result declared")
	_ = apiutil.WriteData(w, http.StatusOK, updated)
}

// DELETE /api/v1/matches/{id}
func HandleDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid match id")
		return
	}

	err = queries.DeleteMatch(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		apiutil.WriteError(w, http.StatusNotFound, "Match not found")
		return
	}
	if err != nil {
		logger.Error().Err(err).Int64("match_id", id).Msg("Failed to delete match")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to delete match")
		return
	}

	logger.Info().Int64("match_id", id).Msg("Match deleted")
	_ = apiutil.WriteData(w, http.StatusOK, map[string]int64{"id": id})
}
