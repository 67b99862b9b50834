// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hhpl/auction-server/internal/api"
	auctionapi "github.com/hhpl/auction-server/internal/api/auction"
	authapi "github.com/hhpl/auction-server/internal/api/auth"
	"github.com/hhpl/auction-server/internal/api/matches"
	"github.com/hhpl/auction-server/internal/api/players"
	standingsapi "github.com/hhpl/auction-server/internal/api/standings"
	"github.com/hhpl/auction-server/internal/api/teams"
	"github.com/hhpl/auction-server/internal/config"
)

func newServer(cfg *config.Config) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithAuth(cfg.App.SecretKey),
		api.WithRequestID,
	)

	registerRoutes(router)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Auth
	mux.HandleFunc("POST /api/v1/auth/login", authapi.HandleLogin)

	// Teams
	mux.HandleFunc("POST /api/v1/teams/register", teams.HandleRegister)
	mux.HandleFunc("GET /api/v1/teams", teams.HandleList)
	mux.HandleFunc("GET /api/v1/teams/owner/{email}", teams.HandleGetByOwnerEmail)
	mux.HandleFunc("GET /api/v1/teams/{id}", teams.HandleGet)
	mux.HandleFunc("GET /api/v1/teams/{id}/players", teams.HandleListPlayers)
	mux.HandleFunc("PUT /api/v1/teams/{id}", teams.HandleUpdate)
	mux.Handle("DELETE /api/v1/teams/{id}", api.RequireAdmin(http.HandlerFunc(teams.HandleDelete)))

	// Players
	mux.Handle("POST /api/v1/players", api.RequireAdmin(http.HandlerFunc(players.HandleCreate)))
	mux.HandleFunc("GET /api/v1/players", players.HandleList)
	mux.HandleFunc("GET /api/v1/players/{id}", players.HandleGet)
	mux.Handle("PUT /api/v1/players/{id}", api.RequireAdmin(http.HandlerFunc(players.HandleUpdate)))
	mux.Handle("DELETE /api/v1/players/{id}", api.RequireAdmin(http.HandlerFunc(players.HandleDelete)))

	// Auction settlement
	mux.Handle("POST /api/v1/auction/sell", api.RequireAdmin(http.HandlerFunc(auctionapi.HandleSell)))
	mux.Handle("POST /api/v1/auction/unsell", api.RequireAdmin(http.HandlerFunc(auctionapi.HandleUnsell)))

	// Matches
	mux.Handle("POST /api/v1/matches", api.RequireAdmin(http.HandlerFunc(matches.HandleCreate)))
	mux.HandleFunc("GET /api/v1/matches", matches.HandleList)
	mux.HandleFunc("GET /api/v1/matches/{id}", matches.HandleGet)
	mux.Handle("POST /api/v1/matches/{id}/result", api.RequireAdmin(http.HandlerFunc(matches.HandleDeclareResult)))
	mux.Handle("DELETE /api/v1/matches/{id}", api.RequireAdmin(http.HandlerFunc(matches.HandleDelete)))

	// Standings
	mux.HandleFunc("GET /api/v1/standings", standingsapi.HandleGet)
}
