package models

// Output formats accepted by the renderer.
const (
	FormatPDF      = "pdf"
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// ScorecardRequest is the payload for POST /api/v1/scorecard.
type ScorecardRequest struct {
	// URL is a match page on the source site, either the summary or the
	// scorecard shape. Required.
	URL string `json:"url" binding:"required,url"`

	// ManOfTheMatch, when set, replaces the extracted player of the match
	// in the rendered report only.
	ManOfTheMatch string `json:"man_of_the_match,omitempty" binding:"omitempty,max=200"`

	// Format controls the response body.
	// Allowed: "pdf" (default), "html", "markdown", "json".
	Format string `json:"format,omitempty" binding:"omitempty,oneof=pdf html markdown json"`

	// Timeout is the maximum duration in seconds for the whole pipeline.
	// Default: the server's configured request timeout.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=600"`
}

// Defaults applies default values to unset fields.
func (r *ScorecardRequest) Defaults() {
	if r.Format == "" {
		r.Format = FormatPDF
	}
}

// ValidFormat reports whether f is a known output format.
func ValidFormat(f string) bool {
	switch f {
	case FormatPDF, FormatHTML, FormatMarkdown, FormatJSON:
		return true
	}
	return false
}
