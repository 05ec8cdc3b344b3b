package normalizer

import (
	"github.com/use-agent/scorecard/models"
)

// Normalize maps the embedded page payload onto a fresh Scorecard. It
// never fails: absent or malformed fields take their documented defaults.
func Normalize(payload any) *models.Scorecard {
	pageProps := Wrap(payload).Get("props", "pageProps")

	sc := models.NewScorecard()
	for _, raw := range pageProps.Get("scorecard").List() {
		if !raw.IsObject() {
			continue
		}
		sc.Innings = append(sc.Innings, normalizeInnings(raw))
	}

	data := pageProps.Get("summaryData", "data")
	sc.Meta = models.Meta{
		Result:         data.Get("match_summary", "summary").Str(models.DefaultResult),
		ManOfTheMatch:  data.Get("player_of_the_match", "player_name").Str(models.NA),
		OversLimit:     data.Get("overs").Str(models.NA),
		TournamentName: data.Get("tournament_name").Str(models.NA),
	}
	return sc
}

func normalizeInnings(raw Value) models.Innings {
	inning := raw.Get("inning")
	summary := inning.Get("summary")

	inn := models.Innings{
		TeamName:     raw.Get("teamName").Str(""),
		ScoreSummary: summary.Get("score").Str(models.DefaultScore),
		OversPlayed:  summary.Get("over").Str(models.DefaultOversPlayed),
		StartTime:    inning.Get("inning_start_time").Str(""),
		Batters:      []models.BattingLine{},
		Bowlers:      []models.BowlingLine{},
	}

	for _, b := range raw.Get("batting").List() {
		if !b.IsObject() {
			continue
		}
		inn.Batters = append(inn.Batters, models.BattingLine{
			Name:  b.Get("name").Str(""),
			Runs:  b.Get("runs").Int(0),
			Balls: b.Get("balls").Int(0),
			Sixes: b.Get("6s").Int(0),
			Fours: b.Get("4s").Int(0),
		})
	}

	for _, b := range raw.Get("bowling").List() {
		if !b.IsObject() {
			continue
		}
		inn.Bowlers = append(inn.Bowlers, models.BowlingLine{
			Name:    b.Get("name").Str(""),
			Overs:   b.Get("overs").Str(models.DefaultOvers),
			Runs:    b.Get("runs").Int(0),
			Wickets: b.Get("wickets").Int(0),
		})
	}

	return inn
}
