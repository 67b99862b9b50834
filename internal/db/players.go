package db

import (
	"context"
	"database/sql"
)

const playerColumns = `id, name, role, batting_style, bowling_style, date_of_birth, photo,
	status, sold_to_team_id, sold_price, created_at, updated_at`

func scanPlayerRow(row *sql.Row) (Player, error) {
	var p Player
	err := row.Scan(
		&p.ID, &p.Name, &p.Role, &p.BattingStyle, &p.BowlingStyle, &p.DateOfBirth,
		&p.Photo, &p.Status, &p.SoldToTeamID, &p.SoldPrice, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func scanPlayers(rows *sql.Rows) ([]Player, error) {
	defer rows.Close()
	var players []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Role, &p.BattingStyle, &p.BowlingStyle, &p.DateOfBirth,
			&p.Photo, &p.Status, &p.SoldToTeamID, &p.SoldPrice, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

type CreatePlayerParams struct {
	Name         string
	Role         string
	BattingStyle string
	BowlingStyle string
	DateOfBirth  string
	Photo        string
}

// CreatePlayer registers a player in the available state.
func (q *Queries) CreatePlayer(ctx context.Context, params CreatePlayerParams) (Player, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO players (name, role, batting_style, bowling_style, date_of_birth, photo)
		VALUES (?, ?, ?, ?, ?, ?)`,
		params.Name, params.Role, params.BattingStyle, params.BowlingStyle,
		params.DateOfBirth, params.Photo,
	)
	if err != nil {
		return Player{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Player{}, err
	}
	return q.GetPlayer(ctx, id)
}

func (q *Queries) GetPlayer(ctx context.Context, id int64) (Player, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	return scanPlayerRow(row)
}

func (q *Queries) ListPlayers(ctx context.Context) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	return scanPlayers(rows)
}

func (q *Queries) ListPlayersByStatus(ctx context.Context, status string) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE status = ? ORDER BY name, id`, status)
	if err != nil {
		return nil, err
	}
	return scanPlayers(rows)
}

func (q *Queries) ListPlayersByTeam(ctx context.Context, teamID int64) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE sold_to_team_id = ? ORDER BY sold_price DESC, name`, teamID)
	if err != nil {
		return nil, err
	}
	return scanPlayers(rows)
}

type UpdatePlayerProfileParams struct {
	ID           int64
	Name         string
	Role         string
	BattingStyle string
	BowlingStyle string
	DateOfBirth  string
	Photo        string
}

// UpdatePlayerProfile updates descriptive fields only; commercial status is
// owned by the settlement engine.
func (q *Queries) UpdatePlayerProfile(ctx context.Context, params UpdatePlayerProfileParams) (Player, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE players
		SET name = ?, role = ?, batting_style = ?, bowling_style = ?, date_of_birth = ?, photo = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		params.Name, params.Role, params.BattingStyle, params.BowlingStyle,
		params.DateOfBirth, params.Photo, params.ID,
	)
	if err != nil {
		return Player{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Player{}, err
	}
	if affected == 0 {
		return Player{}, sql.ErrNoRows
	}
	return q.GetPlayer(ctx, params.ID)
}

func (q *Queries) DeletePlayer(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id)
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
