// Package standings derives the points table from completed matches. It is a
// pure read-side projection; nothing here mutates the store.
package standings

import (
	"context"
	"errors"
	"sort"

	"github.com/hhpl/auction-server/internal/db"
)

const pointsPerWin = 2

// TeamStanding is one row of the points table.
type TeamStanding struct {
	TeamID        int64        `json:"teamId"`
	TeamName      string       `json:"teamName"`
	Logo          string       `json:"logo"`
	MatchesPlayed int          `json:"matchesPlayed"`
	Wins          int          `json:"wins"`
	Losses        int          `json:"losses"`
	Points        int          `json:"points"`
	LastFive      []FormResult `json:"lastFive"`
}

// FormResult is one entry of a team's recent form, most recent first.
type FormResult struct {
	MatchID int64 `json:"matchId"`
	Won     bool  `json:"won"`
}

// Calculate builds the table: two points per win, ordered by points, then
// wins, then team name. Scheduled matches contribute nothing.
func Calculate(ctx context.Context, q *db.Queries) ([]TeamStanding, error) {
	if q == nil {
		return nil, errors.New("queries are required")
	}

	teams, err := q.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	completed, err := q.ListCompletedMatches(ctx)
	if err != nil {
		return nil, err
	}

	table := make(map[int64]*TeamStanding, len(teams))
	order := make([]*TeamStanding, 0, len(teams))
	for _, team := range teams {
		entry := &TeamStanding{TeamID: team.ID, TeamName: team.Name, Logo: team.Logo}
		table[team.ID] = entry
		order = append(order, entry)
	}

	for _, match := range completed {
		if !match.WinnerTeamID.Valid {
			continue
		}
		winnerID := match.WinnerTeamID.Int64
		for _, teamID := range []int64{match.HomeTeamID, match.AwayTeamID} {
			entry, ok := table[teamID]
			if !ok {
				continue
			}
			entry.MatchesPlayed++
			won := teamID == winnerID
			if won {
				entry.Wins++
			} else {
				entry.Losses++
			}
			entry.LastFive = append(entry.LastFive, FormResult{MatchID: match.ID, Won: won})
		}
	}

	for _, entry := range order {
		entry.Points = entry.Wins * pointsPerWin
		trimToRecentForm(entry)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Points != order[j].Points {
			return order[i].Points > order[j].Points
		}
		if order[i].Wins != order[j].Wins {
			return order[i].Wins > order[j].Wins
		}
		return order[i].TeamName < order[j].TeamName
	})

	standings := make([]TeamStanding, 0, len(order))
	for _, entry := range order {
		standings = append(standings, *entry)
	}
	return standings, nil
}

// trimToRecentForm keeps the five most recent results, newest first.
func trimToRecentForm(entry *TeamStanding) {
	if len(entry.LastFive) > 5 {
		entry.LastFive = entry.LastFive[len(entry.LastFive)-5:]
	}
	for i, j := 0, len(entry.LastFive)-1; i < j; i, j = i+1, j-1 {
		entry.LastFive[i], entry.LastFive[j] = entry.LastFive[j], entry.LastFive[i]
	}
}
