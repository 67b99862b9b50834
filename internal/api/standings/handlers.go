// Package standings serves the derived points table.
package standings

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hhpl/auction-server/internal/api/apiutil"
	appdb "github.com/hhpl/auction-server/internal/db"
	"github.com/hhpl/auction-server/internal/standings"
)

var queries *appdb.Queries

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB) {
	if database != nil {
		queries = database.Queries
	}
}

// GET /api/v1/standings
func HandleGet(w http.ResponseWriter, r *http.Request) {
	table, err := standings.Calculate(r.Context(), queries)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to calculate standings")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to calculate standings")
		return
	}
	if table == nil {
		table = []standings.TeamStanding{}
	}
	_ = apiutil.WriteData(w, http.StatusOK, table)
}
