package db

import (
	"context"
	"database/sql"
	"strings"
)

const teamColumns = `id, name, owner_name, email, phone_number, password_hash, logo,
	total_budget, remaining_budget, created_at, updated_at`

func scanTeam(row *sql.Row) (Team, error) {
	var t Team
	err := row.Scan(
		&t.ID, &t.Name, &t.OwnerName, &t.Email, &t.PhoneNumber, &t.PasswordHash,
		&t.Logo, &t.TotalBudget, &t.RemainingBudget, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

type CreateTeamParams struct {
	Name         string
	OwnerName    string
	Email        string
	PhoneNumber  string
	PasswordHash string
	Logo         string
	TotalBudget  int64
}

// CreateTeam inserts a team with its full budget remaining. Email is stored
// lowercased; the UNIQUE constraint surfaces duplicates.
func (q *Queries) CreateTeam(ctx context.Context, params CreateTeamParams) (Team, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO teams (name, owner_name, email, phone_number, password_hash, logo, total_budget, remaining_budget)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		params.Name, params.OwnerName, strings.ToLower(params.Email), params.PhoneNumber,
		params.PasswordHash, params.Logo, params.TotalBudget, params.TotalBudget,
	)
	if err != nil {
		return Team{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Team{}, err
	}
	return q.GetTeam(ctx, id)
}

func (q *Queries) GetTeam(ctx context.Context, id int64) (Team, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = ?`, id)
	return scanTeam(row)
}

func (q *Queries) GetTeamByEmail(ctx context.Context, email string) (Team, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE email = ?`, strings.ToLower(email))
	return scanTeam(row)
}

func (q *Queries) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(
			&t.ID, &t.Name, &t.OwnerName, &t.Email, &t.PhoneNumber, &t.PasswordHash,
			&t.Logo, &t.TotalBudget, &t.RemainingBudget, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

type UpdateTeamProfileParams struct {
	ID          int64
	Name        string
	OwnerName   string
	PhoneNumber string
	Logo        string
}

// UpdateTeamProfile updates descriptive fields only. Budgets are never
// touched here; that is the ledger's job.
func (q *Queries) UpdateTeamProfile(ctx context.Context, params UpdateTeamProfileParams) (Team, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE teams
		SET name = ?, owner_name = ?, phone_number = ?, logo = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		params.Name, params.OwnerName, params.PhoneNumber, params.Logo, params.ID,
	)
	if err != nil {
		return Team{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Team{}, err
	}
	if affected == 0 {
		return Team{}, sql.ErrNoRows
	}
	return q.GetTeam(ctx, params.ID)
}

// DeleteTeam removes a team. Callers must check the roster first; the foreign
// key from players.sold_to_team_id is the backstop.
func (q *Queries) DeleteTeam(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountPlayersSoldToTeam reports how many players a team currently owns.
func (q *Queries) CountPlayersSoldToTeam(ctx context.Context, teamID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM players WHERE sold_to_team_id = ?`, teamID,
	).Scan(&count)
	return count, err
}

// ListTeamBudgets returns every team's stored budget columns alongside the
// spend derived from its sold players.
func (q *Queries) ListTeamBudgets(ctx context.Context) ([]TeamBudgetRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.total_budget, t.remaining_budget,
			COALESCE(SUM(p.sold_price), 0)
		FROM teams t
		LEFT JOIN players p ON p.sold_to_team_id = t.id
		GROUP BY t.id, t.name, t.total_budget, t.remaining_budget
		ORDER BY t.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []TeamBudgetRow
	for rows.Next() {
		var b TeamBudgetRow
		if err := rows.Scan(&b.TeamID, &b.Name, &b.TotalBudget, &b.RemainingBudget, &b.SoldSpend); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}
