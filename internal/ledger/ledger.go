// Package ledger owns every mutation of a team's remaining budget. Nothing
// else in the codebase writes the remaining_budget column.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hhpl/auction-server/internal/db"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient remaining budget")
	ErrTeamNotFound      = errors.New("team not found")
)

// Debit subtracts amount from the team's remaining budget. The balance
// precondition is part of the UPDATE itself, so a concurrent debit can never
// interleave between check and write.
func Debit(ctx context.Context, q *db.Queries, teamID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	res, err := q.DBTX().ExecContext(ctx, `
		UPDATE teams
		SET remaining_budget = remaining_budget - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND remaining_budget >= ?`,
		amount, teamID, amount,
	)
	if err != nil {
		return fmt.Errorf("debit team %d: %w", teamID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit team %d: %w", teamID, err)
	}
	if affected == 0 {
		if exists, err := teamExists(ctx, q, teamID); err != nil {
			return fmt.Errorf("debit team %d: %w", teamID, err)
		} else if !exists {
			return ErrTeamNotFound
		}
		return ErrInsufficientFunds
	}
	return nil
}

// Credit adds amount back to the team's remaining budget, clamped at the
// total budget. Settlement always credits exactly the stored sold price, so
// the clamp is a guard, not a rounding rule.
func Credit(ctx context.Context, q *db.Queries, teamID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	res, err := q.DBTX().ExecContext(ctx, `
		UPDATE teams
		SET remaining_budget = MIN(total_budget, remaining_budget + ?), updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		amount, teamID,
	)
	if err != nil {
		return fmt.Errorf("credit team %d: %w", teamID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit team %d: %w", teamID, err)
	}
	if affected == 0 {
		return ErrTeamNotFound
	}
	return nil
}

func teamExists(ctx context.Context, q *db.Queries, teamID int64) (bool, error) {
	var one int
	err := q.DBTX().QueryRowContext(ctx, `SELECT 1 FROM teams WHERE id = ?`, teamID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
