package db

import (
	"context"
	"database/sql"
	"time"
)

const matchColumns = `id, match_number, group_name, home_team_id, away_team_id, venue, location,
	scheduled_at, status, winner_team_id, home_score, away_score, created_at, updated_at`

func scanMatches(rows *sql.Rows) ([]Match, error) {
	defer rows.Close()
	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(
			&m.ID, &m.MatchNumber, &m.GroupName, &m.HomeTeamID, &m.AwayTeamID,
			&m.Venue, &m.Location, &m.ScheduledAt, &m.Status, &m.WinnerTeamID,
			&m.HomeScore, &m.AwayScore, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

type CreateMatchParams struct {
	MatchNumber string
	GroupName   string
	HomeTeamID  int64
	AwayTeamID  int64
	Venue       string
	Location    string
	ScheduledAt time.Time
}

func (q *Queries) CreateMatch(ctx context.Context, params CreateMatchParams) (Match, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO matches (match_number, group_name, home_team_id, away_team_id, venue, location, scheduled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		params.MatchNumber, params.GroupName, params.HomeTeamID, params.AwayTeamID,
		params.Venue, params.Location, params.ScheduledAt.UTC(),
	)
	if err != nil {
		return Match{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Match{}, err
	}
	return q.GetMatch(ctx, id)
}

func (q *Queries) GetMatch(ctx context.Context, id int64) (Match, error) {
	var m Match
	err := q.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id).Scan(
		&m.ID, &m.MatchNumber, &m.GroupName, &m.HomeTeamID, &m.AwayTeamID,
		&m.Venue, &m.Location, &m.ScheduledAt, &m.Status, &m.WinnerTeamID,
		&m.HomeScore, &m.AwayScore, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

func (q *Queries) ListMatches(ctx context.Context) ([]Match, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+matchColumns+` FROM matches ORDER BY scheduled_at, id`)
	if err != nil {
		return nil, err
	}
	return scanMatches(rows)
}

func (q *Queries) ListCompletedMatches(ctx context.Context) ([]Match, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE status = ? ORDER BY scheduled_at, id`,
		MatchStatusCompleted)
	if err != nil {
		return nil, err
	}
	return scanMatches(rows)
}

type DeclareMatchResultParams struct {
	ID           int64
	WinnerTeamID int64
	HomeScore    string
	AwayScore    string
}

// DeclareMatchResult marks a scheduled match completed. The status guard in
// the WHERE clause rejects double declarations.
func (q *Queries) DeclareMatchResult(ctx context.Context, params DeclareMatchResultParams) (Match, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE matches
		SET status = ?, winner_team_id = ?, home_score = ?, away_score = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`,
		MatchStatusCompleted, params.WinnerTeamID, params.HomeScore, params.AwayScore,
		params.ID, MatchStatusScheduled,
	)
	if err != nil {
		return Match{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Match{}, err
	}
	if affected == 0 {
		return Match{}, sql.ErrNoRows
	}
	return q.GetMatch(ctx, params.ID)
}

func (q *Queries) DeleteMatch(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id)
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
