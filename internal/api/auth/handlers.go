package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hhpl/auction-server/internal/api/apiutil"
	"github.com/hhpl/auction-server/internal/config"
	appdb "github.com/hhpl/auction-server/internal/db"
	"github.com/hhpl/auction-server/internal/ratelimit"
)

const loginQueryTimeout = 5 * time.Second

var (
	queries   *appdb.Queries
	appConfig *config.Config
	limiter   *ratelimit.Limiter
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB, cfg *config.Config, loginLimiter *ratelimit.Limiter) {
	if database != nil {
		queries = database.Queries
	}
	appConfig = cfg
	limiter = loginLimiter
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	Role  string      `json:"role"`
	Team  *appdb.Team `json:"team,omitempty"`
}

// POST /api/v1/auth/login
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil || appConfig == nil {
		logger.Error().Msg("Auth handlers not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req loginRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	ip := ratelimit.GetClientIP(r, false)
	if limiter != nil {
		if result := limiter.CheckLogin(req.Email, ip); !result.Allowed {
			ratelimit.LogLimitExceeded(req.Email, ip, result.Reason)
			w.Header().Set("Retry-After", retryAfterSeconds(result.RetryAfter))
			apiutil.WriteError(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
			return
		}
	}

	// Admin credentials are configured, not stored in the teams table.
	if appConfig.Admin.Email != "" && req.Email == strings.ToLower(appConfig.Admin.Email) {
		handleAdminLogin(w, r, req, ip)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), loginQueryTimeout)
	defer cancel()

	team, err := queries.GetTeamByEmail(ctx, req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		recordFailure(req.Email, ip)
		apiutil.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load team for login")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	if !VerifyPassword(team.PasswordHash, req.Password) {
		recordFailure(req.Email, ip)
		apiutil.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := IssueToken(appConfig.App.SecretKey, team.Email, RoleTeamOwner, team.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to issue token")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	if limiter != nil {
		limiter.RecordSuccess(req.Email, ip)
	}
	logger.Info().Int64("team_id", team.ID).Msg("Team owner signed in")
	_ = apiutil.WriteData(w, http.StatusOK, loginResponse{Token: token, Role: RoleTeamOwner, Team: &team})
}

func handleAdminLogin(w http.ResponseWriter, r *http.Request, req loginRequest, ip string) {
	logger := log.Ctx(r.Context())

	if !VerifyPassword(appConfig.Admin.PasswordHash, req.Password) {
		recordFailure(req.Email, ip)
		apiutil.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := IssueToken(appConfig.App.SecretKey, req.Email, RoleAdmin, 0)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to issue admin token")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	if limiter != nil {
		limiter.RecordSuccess(req.Email, ip)
	}
	logger.Info().Msg("Admin signed in")
	_ = apiutil.WriteData(w, http.StatusOK, loginResponse{Token: token, Role: RoleAdmin})
}

func recordFailure(email, ip string) {
	if limiter == nil {
		return
	}
	if lockedOut := limiter.RecordFailure(email, ip); lockedOut {
		log.Warn().Str("account", ratelimit.SanitizeAccount(email)).Msg("Account locked out after repeated failures")
	}
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
