package ledger

import (
	"context"
	"errors"
	"testing"

	appdb "github.com/hhpl/auction-server/internal/db"
	"github.com/hhpl/auction-server/internal/testutil"
)

func seedTeam(t *testing.T, database *appdb.DB, budget int64) appdb.Team {
	t.Helper()
	team, err := database.Queries.CreateTeam(context.Background(), appdb.CreateTeamParams{
		Name:         "Ledger FC",
		OwnerName:    "Owner",
		Email:        "ledger@example.com",
		PasswordHash: "x",
		TotalBudget:  budget,
	})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	return team
}

func remaining(t *testing.T, database *appdb.DB, teamID int64) int64 {
	t.Helper()
	team, err := database.Queries.GetTeam(context.Background(), teamID)
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	return team.RemainingBudget
}

func TestDebit(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	team := seedTeam(t, database, 1000)

	if err := Debit(ctx, database.Queries, team.ID, 400); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if got := remaining(t, database, team.ID); got != 600 {
		t.Errorf("remaining = %d, want 600", got)
	}

	// Debiting the full remainder is allowed; one more unit is not.
	if err := Debit(ctx, database.Queries, team.ID, 600); err != nil {
		t.Fatalf("debit to zero: %v", err)
	}
	if err := Debit(ctx, database.Queries, team.ID, 1); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := remaining(t, database, team.ID); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
}

func TestDebitValidation(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	team := seedTeam(t, database, 1000)

	if err := Debit(ctx, database.Queries, team.ID, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount: expected ErrInvalidAmount, got %v", err)
	}
	if err := Debit(ctx, database.Queries, team.ID, -10); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount: expected ErrInvalidAmount, got %v", err)
	}
	if err := Debit(ctx, database.Queries, 9999, 10); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("unknown team: expected ErrTeamNotFound, got %v", err)
	}
}

func TestCreditClampsAtTotalBudget(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	team := seedTeam(t, database, 1000)

	if err := Debit(ctx, database.Queries, team.ID, 300); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if err := Credit(ctx, database.Queries, team.ID, 200); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if got := remaining(t, database, team.ID); got != 900 {
		t.Errorf("remaining = %d, want 900", got)
	}

	// Over-crediting clamps at the total instead of overflowing it.
	if err := Credit(ctx, database.Queries, team.ID, 500); err != nil {
		t.Fatalf("over-credit: %v", err)
	}
	if got := remaining(t, database, team.ID); got != 1000 {
		t.Errorf("remaining = %d, want clamp at 1000", got)
	}
}

func TestCreditValidation(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	seedTeam(t, database, 1000)

	if err := Credit(ctx, database.Queries, 9999, 100); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("unknown team: expected ErrTeamNotFound, got %v", err)
	}
	if err := Credit(ctx, database.Queries, 1, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount: expected ErrInvalidAmount, got %v", err)
	}
}
