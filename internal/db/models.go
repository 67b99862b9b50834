package db

import (
	"database/sql"
	"encoding/json"
	"time"
)

const (
	PlayerStatusAvailable = "available"
	PlayerStatusSold      = "sold"

	MatchStatusScheduled = "scheduled"
	MatchStatusCompleted = "completed"
)

type Team struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	OwnerName       string    `json:"ownerName"`
	Email           string    `json:"email"`
	PhoneNumber     string    `json:"phoneNumber"`
	PasswordHash    string    `json:"-"`
	Logo            string    `json:"logo"`
	TotalBudget     int64     `json:"totalBudget"`
	RemainingBudget int64     `json:"remainingBudget"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Player struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Role         string        `json:"role"`
	BattingStyle string        `json:"battingStyle"`
	BowlingStyle string        `json:"bowlingStyle"`
	DateOfBirth  string        `json:"dateOfBirth"`
	Photo        string        `json:"photo"`
	Status       string        `json:"status"`
	SoldToTeamID sql.NullInt64 `json:"soldToTeamId"`
	SoldPrice    sql.NullInt64 `json:"soldPrice"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// MarshalJSON renders the nullable sale columns as plain numbers or null
// instead of the sql.NullInt64 wrapper.
func (p Player) MarshalJSON() ([]byte, error) {
	type alias Player
	return json.Marshal(struct {
		alias
		SoldToTeamID *int64 `json:"soldToTeamId"`
		SoldPrice    *int64 `json:"soldPrice"`
	}{alias(p), nullInt64Ptr(p.SoldToTeamID), nullInt64Ptr(p.SoldPrice)})
}

type Match struct {
	ID           int64         `json:"id"`
	MatchNumber  string        `json:"matchNumber"`
	GroupName    string        `json:"groupName"`
	HomeTeamID   int64         `json:"homeTeamId"`
	AwayTeamID   int64         `json:"awayTeamId"`
	Venue        string        `json:"venue"`
	Location     string        `json:"location"`
	ScheduledAt  time.Time     `json:"scheduledAt"`
	Status       string        `json:"status"`
	WinnerTeamID sql.NullInt64 `json:"winnerTeamId"`
	HomeScore    string        `json:"homeScore"`
	AwayScore    string        `json:"awayScore"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func (m Match) MarshalJSON() ([]byte, error) {
	type alias Match
	return json.Marshal(struct {
		alias
		WinnerTeamID *int64 `json:"winnerTeamId"`
	}{alias(m), nullInt64Ptr(m.WinnerTeamID)})
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

// TeamBudgetRow is the per-team view used by the settlement audit: the stored
// budget columns next to the spend derived from sold players.
type TeamBudgetRow struct {
	TeamID          int64
	Name            string
	TotalBudget     int64
	RemainingBudget int64
	SoldSpend       int64
}
