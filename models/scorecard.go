package models

// NA is the fallback used for any text field the payload does not provide.
const NA = "N/A"

// Default values used when the payload omits a field.
const (
	DefaultResult      = "Match Ended"
	DefaultTeamName    = "Unknown" // innings header only; see Innings.Team
	DefaultScore       = "0/0"
	DefaultOvers       = "0"
	DefaultOversPlayed = ""
)

// MarkerID is the id of the script element under which the source site
// serializes its server-rendered page state.
const MarkerID = "__NEXT_DATA__"

// MarkerSelector matches the embedded-data script element.
const MarkerSelector = `script[id="` + MarkerID + `"]`

// Transport records which fetch tier produced a document.
type Transport string

const (
	TransportLightweight Transport = "lightweight"
	TransportRendered    Transport = "rendered"
)

// RawDocument is the markup returned by the fetcher.
type RawDocument struct {
	HTML      string
	Transport Transport
	FinalURL  string
}

// Scorecard is the canonical match model produced by the normalizer.
// Innings are kept in play order.
type Scorecard struct {
	Innings []Innings `json:"innings"`
	Meta    Meta      `json:"meta"`
}

// Meta carries the match-level summary fields.
type Meta struct {
	Result         string `json:"result"`
	ManOfTheMatch  string `json:"man_of_the_match"`
	OversLimit     string `json:"overs_limit"`
	TournamentName string `json:"tournament_name"`
}

// Innings is one team's batting innings together with the bowling
// figures recorded against it.
type Innings struct {
	TeamName     string        `json:"team_name"`
	ScoreSummary string        `json:"score_summary"`
	OversPlayed  string        `json:"overs_played"`
	StartTime    string        `json:"start_time,omitempty"`
	Batters      []BattingLine `json:"batters"`
	Bowlers      []BowlingLine `json:"bowlers"`
}

// Team returns the team name, or fallback when the payload did not name
// the team. An absent name stays empty in the model so each place it is
// shown can pick its own placeholder.
func (inn Innings) Team(fallback string) string {
	if inn.TeamName == "" {
		return fallback
	}
	return inn.TeamName
}

// BattingLine is a single batter's figures.
type BattingLine struct {
	Name  string `json:"name"`
	Runs  int    `json:"runs"`
	Balls int    `json:"balls"`
	Sixes int    `json:"sixes"`
	Fours int    `json:"fours"`
}

// BowlingLine is a single bowler's figures. Overs stay textual because
// the site reports partial overs as "3.4".
type BowlingLine struct {
	Name    string `json:"name"`
	Overs   string `json:"overs"`
	Runs    int    `json:"runs"`
	Wickets int    `json:"wickets"`
}

// DefaultMeta returns the meta block used when the payload has none.
func DefaultMeta() Meta {
	return Meta{
		Result:         DefaultResult,
		ManOfTheMatch:  NA,
		OversLimit:     NA,
		TournamentName: NA,
	}
}

// NewScorecard returns a fresh empty scorecard with every meta field set
// to its fallback. Each call allocates a new value.
func NewScorecard() *Scorecard {
	return &Scorecard{
		Innings: []Innings{},
		Meta:    DefaultMeta(),
	}
}

// Clone returns a deep copy of the scorecard.
func (s *Scorecard) Clone() *Scorecard {
	out := &Scorecard{
		Innings: make([]Innings, len(s.Innings)),
		Meta:    s.Meta,
	}
	for i, inn := range s.Innings {
		inn.Batters = append([]BattingLine(nil), inn.Batters...)
		inn.Bowlers = append([]BowlingLine(nil), inn.Bowlers...)
		out.Innings[i] = inn
	}
	return out
}
