package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func newDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func seedTeam(t *testing.T, database *DB, email string) Team {
	t.Helper()
	team, err := database.Queries.CreateTeam(context.Background(), CreateTeamParams{
		Name:         "Store FC",
		OwnerName:    "Owner",
		Email:        email,
		PasswordHash: "x",
		TotalBudget:  1000,
	})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	return team
}

func TestCreateTeamStartsWithFullBudget(t *testing.T) {
	database := newDB(t)
	team := seedTeam(t, database, "Mixed.Case@Example.COM")

	if team.RemainingBudget != team.TotalBudget {
		t.Errorf("remaining = %d, want total %d", team.RemainingBudget, team.TotalBudget)
	}
	if team.Email != "mixed.case@example.com" {
		t.Errorf("email = %q, want lowercased", team.Email)
	}
}

func TestCreateTeamDuplicateEmail(t *testing.T) {
	database := newDB(t)
	seedTeam(t, database, "dup@example.com")

	_, err := database.Queries.CreateTeam(context.Background(), CreateTeamParams{
		Name:         "Other FC",
		OwnerName:    "Owner",
		Email:        "DUP@example.com",
		PasswordHash: "x",
		TotalBudget:  1000,
	})
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestBudgetBoundsEnforcedByStore(t *testing.T) {
	database := newDB(t)
	team := seedTeam(t, database, "bounds@example.com")
	ctx := context.Background()

	if _, err := database.ExecContext(ctx,
		`UPDATE teams SET remaining_budget = -1 WHERE id = ?`, team.ID); err == nil {
		t.Error("negative remaining budget should violate the store constraint")
	}
	if _, err := database.ExecContext(ctx,
		`UPDATE teams SET remaining_budget = total_budget + 1 WHERE id = ?`, team.ID); err == nil {
		t.Error("remaining above total should violate the store constraint")
	}
}

func TestPlayerSaleColumnsAreAllOrNothing(t *testing.T) {
	database := newDB(t)
	ctx := context.Background()
	team := seedTeam(t, database, "tristate@example.com")
	player, err := database.Queries.CreatePlayer(ctx, CreatePlayerParams{Name: "P", Role: "batsman"})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	// Sold without a price or owner must be rejected.
	if _, err := database.ExecContext(ctx,
		`UPDATE players SET status = 'sold' WHERE id = ?`, player.ID); err == nil {
		t.Error("sold without sale columns should violate the store constraint")
	}
	// Available with a dangling price must be rejected.
	if _, err := database.ExecContext(ctx,
		`UPDATE players SET sold_price = 100 WHERE id = ?`, player.ID); err == nil {
		t.Error("available with a sold price should violate the store constraint")
	}
	// The consistent form passes.
	if _, err := database.ExecContext(ctx,
		`UPDATE players SET status = 'sold', sold_to_team_id = ?, sold_price = 100 WHERE id = ?`,
		team.ID, player.ID); err != nil {
		t.Errorf("consistent sold state rejected: %v", err)
	}
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	database := newDB(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := database.RunInTx(ctx, func(tx *DB) error {
		if _, err := tx.Queries.CreateTeam(ctx, CreateTeamParams{
			Name:         "Ghost FC",
			OwnerName:    "Owner",
			Email:        "ghost@example.com",
			PasswordHash: "x",
			TotalBudget:  1000,
		}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	if _, err := database.Queries.GetTeamByEmail(ctx, "ghost@example.com"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected rollback to discard the insert, got %v", err)
	}
}

func TestDeclareMatchResultOnlyOnce(t *testing.T) {
	database := newDB(t)
	ctx := context.Background()

	home := seedTeam(t, database, "home@example.com")
	away, err := database.Queries.CreateTeam(ctx, CreateTeamParams{
		Name: "Away FC", OwnerName: "Owner", Email: "away@example.com",
		PasswordHash: "x", TotalBudget: 1000,
	})
	if err != nil {
		t.Fatalf("create away team: %v", err)
	}

	match, err := database.Queries.CreateMatch(ctx, CreateMatchParams{
		MatchNumber: "M1",
		HomeTeamID:  home.ID,
		AwayTeamID:  away.ID,
		ScheduledAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	if match.Status != MatchStatusScheduled {
		t.Errorf("status = %q, want scheduled", match.Status)
	}

	declared, err := database.Queries.DeclareMatchResult(ctx, DeclareMatchResultParams{
		ID: match.ID, WinnerTeamID: home.ID, HomeScore: "180/5", AwayScore: "160/9",
	})
	if err != nil {
		t.Fatalf("declare result: %v", err)
	}
	if declared.Status != MatchStatusCompleted || declared.WinnerTeamID.Int64 != home.ID {
		t.Errorf("declared = %+v, want completed with winner %d", declared, home.ID)
	}

	// Second declaration bounces off the status guard.
	if _, err := database.Queries.DeclareMatchResult(ctx, DeclareMatchResultParams{
		ID: match.ID, WinnerTeamID: away.ID,
	}); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for double declaration, got %v", err)
	}
}

func TestMatchRejectsSelfPlay(t *testing.T) {
	database := newDB(t)
	ctx := context.Background()
	team := seedTeam(t, database, "self@example.com")

	if _, err := database.Queries.CreateMatch(ctx, CreateMatchParams{
		MatchNumber: "M1",
		HomeTeamID:  team.ID,
		AwayTeamID:  team.ID,
		ScheduledAt: time.Now(),
	}); err == nil {
		t.Error("match against itself should violate the store constraint")
	}
}

func TestListPlayersByStatus(t *testing.T) {
	database := newDB(t)
	ctx := context.Background()
	team := seedTeam(t, database, "filter@example.com")

	for i := 0; i < 3; i++ {
		if _, err := database.Queries.CreatePlayer(ctx, CreatePlayerParams{
			Name: fmt.Sprintf("Player %d", i), Role: "bowler",
		}); err != nil {
			t.Fatalf("create player: %v", err)
		}
	}
	if _, err := database.ExecContext(ctx, `
		UPDATE players SET status = 'sold', sold_to_team_id = ?, sold_price = 50
		WHERE id = (SELECT MIN(id) FROM players)`, team.ID); err != nil {
		t.Fatalf("mark sold: %v", err)
	}

	available, err := database.Queries.ListPlayersByStatus(ctx, PlayerStatusAvailable)
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	sold, err := database.Queries.ListPlayersByStatus(ctx, PlayerStatusSold)
	if err != nil {
		t.Fatalf("list sold: %v", err)
	}
	if len(available) != 2 || len(sold) != 1 {
		t.Errorf("available = %d, sold = %d; want 2 and 1", len(available), len(sold))
	}
}
