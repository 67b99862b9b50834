// Package teams serves team registration, profiles, and rosters.
package teams

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"

	"github.com/hhpl/auction-server/internal/api/apiutil"
	"github.com/hhpl/auction-server/internal/api/auth"
	"github.com/hhpl/auction-server/internal/config"
	appdb "github.com/hhpl/auction-server/internal/db"
	"github.com/hhpl/auction-server/internal/email"
)

const defaultPhoneRegion = "IN"

var (
	queries     *appdb.Queries
	appConfig   *config.Config
	emailSender email.Sender
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB, cfg *config.Config, sender email.Sender) {
	if database != nil {
		queries = database.Queries
	}
	appConfig = cfg
	emailSender = sender
}

type registerRequest struct {
	Name        string `json:"name"`
	OwnerName   string `json:"ownerName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	Logo        string `json:"logo"`
}

func (req *registerRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	req.OwnerName = strings.TrimSpace(req.OwnerName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)

	if req.Name == "" {
		return fmt.Errorf("team name is required")
	}
	if req.OwnerName == "" {
		return fmt.Errorf("owner name is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fmt.Errorf("invalid email address")
	}
	if len(req.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if req.PhoneNumber != "" {
		parsed, err := phonenumbers.Parse(req.PhoneNumber, defaultPhoneRegion)
		if err != nil || !phonenumbers.IsValidNumber(parsed) {
			return fmt.Errorf("invalid phone number")
		}
		req.PhoneNumber = phonenumbers.Format(parsed, phonenumbers.E164)
	}
	return nil
}

// POST /api/v1/teams/register
func HandleRegister(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var req registerRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to register team")
		return
	}

	team, err := queries.CreateTeam(r.Context(), appdb.CreateTeamParams{
		Name:         req.Name,
		OwnerName:    req.OwnerName,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		Logo:         req.Logo,
		TotalBudget:  appConfig.Auction.DefaultBudget,
	})
	if appdb.IsUniqueViolation(err) {
		apiutil.WriteError(w, http.StatusConflict, "A team with this email already exists")
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create team")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to register team")
		return
	}

	logger.Info().Int64("team_id", team.ID).Str("name", team.Name).Msg("Team registered")
	email.Notify(emailSender, team.Email, email.TeamRegistered(team.Name, team.OwnerName, team.TotalBudget), logger)
	_ = apiutil.WriteData(w, http.StatusCreated, team)
}

// GET /api/v1/teams
func HandleList(w http.ResponseWriter, r *http.Request) {
	teams, err := queries.ListTeams(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list teams")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list teams")
		return
	}
	if teams == nil {
		teams = []appdb.Team{}
	}
	_ = apiutil.WriteData(w, http.StatusOK, teams)
}

// GET /api/v1/teams/{id}
func HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid team id")
		return
	}

	team, err := queries.GetTeam(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		apiutil.WriteError(w, http.StatusNotFound, "Team not found")
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("team_id", id).Msg("Failed to load team")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load team")
		return
	}
	_ = apiutil.WriteData(w, http.StatusOK, team)
}

// GET /api/v1/teams/owner/{email}
func HandleGetByOwnerEmail(w http.ResponseWriter, r *http.Request) {
	ownerEmail := strings.ToLower(strings.TrimSpace(r.PathValue("email")))
	if ownerEmail == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "Owner email is required")
		return
	}

	team, err := queries.GetTeamByEmail(r.Context(), ownerEmail)
	if errors.Is(err, sql.ErrNoRows) {
		apiutil.WriteError(w, http.StatusNotFound, "Team not found")
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load team by owner email")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load team")
		return
	}
	_ = apiutil.WriteData(w, http.StatusOK, team)
}

// GET /api/v1/teams/{id}/players
func HandleListPlayers(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid team id")
		return
	}

	if _, err := queries.GetTeam(r.Context(), id); errors.Is(err, sql.ErrNoRows) {
		apiutil.WriteError(w, http.StatusNotFound, "Team not found")
		return
	} else if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("team_id", id).Msg("Failed to load team")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load team")
		return
	}

	players, err := queries.ListPlayersByTeam(r.Context(), id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("team_id", id).Msg("Failed to list team players")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list team players")
		return
	}
	if players == nil {
		players = []appdb.Player{}
	}
	_ = apiutil.WriteData(w, http.StatusOK, players)
}

type updateRequest struct {
	Name        string `json:"name"`
	OwnerName   string `json:"ownerName"`
	PhoneNumber string `json:"phoneNumber"`
	Logo        string `json:"logo"`
}

// PUT /api/v1/teams/{id}
func HandleUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid team id")
		return
	}

	var req updateRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.OwnerName = strings.TrimSpace(req.OwnerName)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.Name == "" || req.OwnerName == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "Team name and owner name are required")
		return
	}
	if req.PhoneNumber != "" {
		parsed, err := phonenumbers.Parse(req.PhoneNumber, defaultPhoneRegion)
		if err != nil || !phonenumbers.IsValidNumber(parsed) {
			apiutil.WriteError(w, http.StatusBadRequest, "Invalid phone number")
			return
		}
		req.PhoneNumber = phonenumbers.Format(parsed, phonenumbers.E164)
	}

	team, err := queries.UpdateTeamProfile(r.Context(), appdb.UpdateTeamProfileParams{
		ID:          id,
		Name:        req.Name,
		OwnerName:   req.OwnerName,
		PhoneNumber: req.PhoneNumber,
		Logo:        req.Logo,
	})
	if errors.Is(err, sql.ErrNoRows) {
		apiutil.WriteError(w, http.StatusNotFound, "Team not found")
		return
	}
	if err != nil {
		logger.Error().Err(err).Int64("team_id", id).Msg("Failed to update team")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update team")
		return
	}

	logger.Info().Int64("team_id", id).Msg("Team updated")
	_ = apiutil.WriteData(w, http.StatusOK, team)
}

// DELETE /api/v1/teams/{id}
//
// A team holding sold players cannot be removed; the roster has to be
// unsold first so the budget trail stays intact.
func HandleDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid team id")
		return
	}

	owned, err := queries.CountPlayersSoldToTeam(r.Context(), id)
	if err != nil {
		logger.Error().Err(err).Int64("team_id", id).Msg("Failed to count team roster")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to delete team")
		return
	}
	if owned > 0 {
		apiutil.WriteError(w, http.StatusConflict, "Team still owns players; unsell them first")
		return
	}

	err = queries.DeleteTeam(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		apiutil.WriteError(w, http.StatusNotFound, "Team not found")
		return
	}
	if appdb.IsForeignKeyViolation(err) {
		apiutil.WriteError(w, http.StatusConflict, "Team is referenced by other records")
		return
	}
	if err != nil {
		logger.Error().Err(err).Int64("team_id", id).Msg("Failed to delete team")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to delete team")
		return
	}

	logger.Info().Int64("team_id", id).Msg("Team deleted")
	_ = apiutil.WriteData(w, http.StatusOK, map[string]int64{"id": id})
}
