// Package auction implements the settlement engine: the only code allowed to
// move a player between available and sold, always in the same transaction
// as the budget movement it causes.
package auction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	appdb "github.com/hhpl/auction-server/internal/db"
	"github.com/hhpl/auction-server/internal/ledger"
)

// Engine serializes sell/unsell settlements against the entity store.
type Engine struct {
	db *appdb.DB
}

func NewEngine(database *appdb.DB) *Engine {
	return &Engine{db: database}
}

// SaleResult is the post-settlement state returned to callers: the player and
// the team whose budget moved.
type SaleResult struct {
	Player appdb.Player `json:"player"`
	Team   appdb.Team   `json:"team"`
}

// Sell settles a player to a team for price. The budget debit and the player
// status change commit together or not at all. A player already sold is
// rejected, never reassigned.
func (e *Engine) Sell(ctx context.Context, playerID, teamID, price int64) (SaleResult, error) {
	if price <= 0 {
		return SaleResult{}, ErrInvalidAmount
	}

	var result SaleResult
	err := e.db.RunInTx(ctx, func(tx *appdb.DB) error {
		player, err := tx.Queries.GetPlayer(ctx, playerID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPlayerNotFound
		}
		if err != nil {
			return fmt.Errorf("load player %d: %w", playerID, err)
		}
		if player.Status != appdb.PlayerStatusAvailable {
			return ErrAlreadySold
		}

		if err := ledger.Debit(ctx, tx.Queries, teamID, price); err != nil {
			return err
		}

		if err := markSold(ctx, tx.Queries, playerID, teamID, price); err != nil {
			return err
		}

		result.Player, err = tx.Queries.GetPlayer(ctx, playerID)
		if err != nil {
			return fmt.Errorf("reload player %d: %w", playerID, err)
		}
		result.Team, err = tx.Queries.GetTeam(ctx, teamID)
		if err != nil {
			return fmt.Errorf("reload team %d: %w", teamID, err)
		}
		return nil
	})
	if err != nil {
		return SaleResult{}, translateBusy(err)
	}

	log.Info().
		Int64("player_id", result.Player.ID).
		Int64("team_id", result.Team.ID).
		Int64("price", price).
		Int64("remaining_budget", result.Team.RemainingBudget).
		Msg("Player sold")
	return result, nil
}

// Unsell returns a sold player to the pool and restores exactly the stored
// sold price to the owning team.
func (e *Engine) Unsell(ctx context.Context, playerID int64) (SaleResult, error) {
	var result SaleResult
	err := e.db.RunInTx(ctx, func(tx *appdb.DB) error {
		player, err := tx.Queries.GetPlayer(ctx, playerID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPlayerNotFound
		}
		if err != nil {
			return fmt.Errorf("load player %d: %w", playerID, err)
		}
		if player.Status != appdb.PlayerStatusSold {
			return ErrNotSold
		}

		teamID := player.SoldToTeamID.Int64
		if err := ledger.Credit(ctx, tx.Queries, teamID, player.SoldPrice.Int64); err != nil {
			return err
		}

		if err := markAvailable(ctx, tx.Queries, playerID); err != nil {
			return err
		}

		result.Player, err = tx.Queries.GetPlayer(ctx, playerID)
		if err != nil {
			return fmt.Errorf("reload player %d: %w", playerID, err)
		}
		result.Team, err = tx.Queries.GetTeam(ctx, teamID)
		if err != nil {
			return fmt.Errorf("reload team %d: %w", teamID, err)
		}
		return nil
	})
	if err != nil {
		return SaleResult{}, translateBusy(err)
	}

	log.Info().
		Int64("player_id", result.Player.ID).
		Int64("team_id", result.Team.ID).
		Int64("remaining_budget", result.Team.RemainingBudget).
		Msg("Player returned to auction pool")
	return result, nil
}

// markSold flips the player to sold with a status guard in the WHERE clause.
// Zero rows means another settlement won the race after our read.
func markSold(ctx context.Context, q *appdb.Queries, playerID, teamID, price int64) error {
	res, err := q.DBTX().ExecContext(ctx, `
		UPDATE players
		SET status = ?, sold_to_team_id = ?, sold_price = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`,
		appdb.PlayerStatusSold, teamID, price, playerID, appdb.PlayerStatusAvailable,
	)
	if err != nil {
		return fmt.Errorf("mark player %d sold: %w", playerID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark player %d sold: %w", playerID, err)
	}
	if affected == 0 {
		return ErrAlreadySold
	}
	return nil
}

func markAvailable(ctx context.Context, q *appdb.Queries, playerID int64) error {
	res, err := q.DBTX().ExecContext(ctx, `
		UPDATE players
		SET status = ?, sold_to_team_id = NULL, sold_price = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`,
		appdb.PlayerStatusAvailable, playerID, appdb.PlayerStatusSold,
	)
	if err != nil {
		return fmt.Errorf("mark player %d available: %w", playerID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark player %d available: %w", playerID, err)
	}
	if affected == 0 {
		return ErrNotSold
	}
	return nil
}

// translateBusy maps SQLite lock contention to the retryable ErrBusy; every
// other error passes through unchanged.
func translateBusy(err error) error {
	if appdb.IsBusy(err) {
		return fmt.Errorf("%w: %v", ErrBusy, err)
	}
	return err
}
