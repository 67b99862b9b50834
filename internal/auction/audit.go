package auction

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Violation reports one team whose stored budget disagrees with the budget
// derived from its sold players, or whose budget is out of bounds.
type Violation struct {
	TeamID          int64  `json:"teamId"`
	TeamName        string `json:"teamName"`
	TotalBudget     int64  `json:"totalBudget"`
	RemainingBudget int64  `json:"remainingBudget"`
	SoldSpend       int64  `json:"soldSpend"`
	Detail          string `json:"detail"`
}

// Audit checks the ledger invariants across all teams:
// 0 <= remaining <= total, and remaining = total - sum(sold prices).
// A healthy store returns an empty slice.
func (e *Engine) Audit(ctx context.Context) ([]Violation, error) {
	rows, err := e.db.Queries.ListTeamBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list team budgets: %w", err)
	}

	var violations []Violation
	for _, row := range rows {
		var detail string
		switch {
		case row.RemainingBudget < 0 || row.RemainingBudget > row.TotalBudget:
			detail = "remaining budget out of bounds"
		case row.RemainingBudget != row.TotalBudget-row.SoldSpend:
			detail = "remaining budget does not match sold spend"
		default:
			continue
		}
		violations = append(violations, Violation{
			TeamID:          row.TeamID,
			TeamName:        row.Name,
			TotalBudget:     row.TotalBudget,
			RemainingBudget: row.RemainingBudget,
			SoldSpend:       row.SoldSpend,
			Detail:          detail,
		})
	}
	return violations, nil
}

// RunAudit executes Audit and logs the outcome; used by the scheduler job.
func (e *Engine) RunAudit(ctx context.Context) {
	violations, err := e.Audit(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Budget audit failed")
		return
	}
	if len(violations) == 0 {
		log.Info().Msg("Budget audit clean")
		return
	}
	for _, v := range violations {
		log.Error().
			Int64("team_id", v.TeamID).
			Str("team_name", v.TeamName).
			Int64("total_budget", v.TotalBudget).
			Int64("remaining_budget", v.RemainingBudget).
			Int64("sold_spend", v.SoldSpend).
			Str("detail", v.Detail).
			Msg("Budget audit violation")
	}
}
