package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/use-agent/scorecard/models"
)

// RowsPerBlock is the fixed number of rows in every batting and bowling
// table. Short lists are padded with empty rows.
const RowsPerBlock = 3

// Header placeholders.
const (
	PlaceholderTeamA    = "Team A"
	PlaceholderTeamB    = "Team B"
	PlaceholderOpponent = "Opponent"
)

// Layout is the data the report template consumes.
type Layout struct {
	TournamentName string
	Date           string
	Time           string
	OversLimit     string
	Title          string
	Innings        []InningsLayout
	Result         string
	ManOfTheMatch  string
}

// InningsLayout is one innings block: a header bar, the top batters and
// the top bowlers of the opposing side.
type InningsLayout struct {
	TeamName    string
	Score       string
	OversPlayed string
	Opponent    string
	Batting     []BattingRow
	Bowling     []BowlingRow
}

// BattingRow is a numbered table row. Empty rows are padding.
type BattingRow struct {
	No    string
	Empty bool
	models.BattingLine
}

// BowlingRow is a numbered table row. Empty rows are padding.
type BowlingRow struct {
	No    string
	Empty bool
	models.BowlingLine
}

// BuildLayout derives the report layout from a scorecard. The scorecard
// is not modified.
func BuildLayout(sc *models.Scorecard) Layout {
	l := Layout{
		TournamentName: sc.Meta.TournamentName,
		OversLimit:     sc.Meta.OversLimit,
		Result:         sc.Meta.Result,
		ManOfTheMatch:  sc.Meta.ManOfTheMatch,
		Date:           models.NA,
		Time:           models.NA,
		Innings:        make([]InningsLayout, 0, len(sc.Innings)),
	}

	team1, team2 := PlaceholderTeamA, PlaceholderTeamB
	if len(sc.Innings) > 0 {
		team1 = sc.Innings[0].Team(PlaceholderTeamA)
		l.Date, l.Time = SplitTimestamp(sc.Innings[0].StartTime)
	}
	if len(sc.Innings) > 1 {
		team2 = sc.Innings[1].Team(PlaceholderTeamB)
	}
	l.Title = team1 + " V/S " + team2

	for i, inn := range sc.Innings {
		l.Innings = append(l.Innings, InningsLayout{
			TeamName:    inn.Team(models.DefaultTeamName),
			Score:       inn.ScoreSummary,
			OversPlayed: inn.OversPlayed,
			Opponent:    opponent(sc.Innings, i),
			Batting:     battingRows(TopBatters(inn.Batters)),
			Bowling:     bowlingRows(TopBowlers(inn.Bowlers)),
		})
	}
	return l
}

// TopBatters returns up to three batters ordered by runs, highest first.
// Equal scores keep their original order.
func TopBatters(in []models.BattingLine) []models.BattingLine {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b models.BattingLine) int {
		return cmp.Compare(b.Runs, a.Runs)
	})
	return out[:min(len(out), RowsPerBlock)]
}

// TopBowlers returns up to three bowlers ordered by wickets, highest
// first. Among equal wickets fewer runs conceded ranks higher.
func TopBowlers(in []models.BowlingLine) []models.BowlingLine {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b models.BowlingLine) int {
		if c := cmp.Compare(b.Wickets, a.Wickets); c != 0 {
			return c
		}
		return cmp.Compare(a.Runs, b.Runs)
	})
	return out[:min(len(out), RowsPerBlock)]
}

// SplitTimestamp splits an ISO-8601 start time into a date and an HH:MM
// clock. Anything that does not look like "YYYY-MM-DDTHH:MM..." yields
// N/A for both.
func SplitTimestamp(ts string) (date, clock string) {
	datePart, timePart, ok := strings.Cut(strings.TrimSpace(ts), "T")
	if !ok || strings.Contains(timePart, "T") || len(timePart) < 5 {
		return models.NA, models.NA
	}
	if _, err := time.Parse(time.DateOnly, datePart); err != nil {
		return models.NA, models.NA
	}
	clock = timePart[:5]
	if _, err := time.Parse("15:04", clock); err != nil {
		return models.NA, models.NA
	}
	return datePart, clock
}

// opponent names the team that bowled during innings i. Only the first
// two innings of a two-team match have a well-defined opponent.
func opponent(innings []models.Innings, i int) string {
	if len(innings) < 2 || i > 1 {
		return PlaceholderOpponent
	}
	return innings[1-i].Team(PlaceholderOpponent)
}

func battingRows(top []models.BattingLine) []BattingRow {
	rows := make([]BattingRow, RowsPerBlock)
	for i := range rows {
		rows[i].No = rowNumber(i)
		if i < len(top) {
			rows[i].BattingLine = top[i]
		} else {
			rows[i].Empty = true
		}
	}
	return rows
}

func bowlingRows(top []models.BowlingLine) []BowlingRow {
	rows := make([]BowlingRow, RowsPerBlock)
	for i := range rows {
		rows[i].No = rowNumber(i)
		if i < len(top) {
			rows[i].BowlingLine = top[i]
		} else {
			rows[i].Empty = true
		}
	}
	return rows
}

func rowNumber(i int) string {
	return fmt.Sprintf("%02d", i+1)
}
