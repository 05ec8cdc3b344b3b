package models

// ScorecardResponse is the JSON response for POST /api/v1/scorecard when
// the caller asks for format "json" or when the request fails.
type ScorecardResponse struct {
	// Success indicates whether the pipeline completed without errors.
	Success bool `json:"success"`

	// SourceURL is the canonical scorecard URL that was fetched.
	SourceURL string `json:"source_url,omitempty"`

	// Transport is the fetch tier that produced the document.
	Transport Transport `json:"transport,omitempty"`

	// Scorecard is the canonical match model.
	Scorecard *Scorecard `json:"scorecard,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo provides duration breakdowns in milliseconds.
type TimingInfo struct {
	TotalMs   int64 `json:"total_ms"`
	ResolveMs int64 `json:"resolve_ms"`
	FetchMs   int64 `json:"fetch_ms"`
	RenderMs  int64 `json:"render_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string       `json:"status"`
	Uptime  string       `json:"uptime"`
	Browser BrowserStats `json:"browser"`
	Version string       `json:"version"`
}

// BrowserStats reports the rendered tier's state.
type BrowserStats struct {
	Connected      bool  `json:"connected"`
	ActiveSessions int   `json:"active_sessions"`
	Renders        int64 `json:"renders"`

	// Lost means a launched browser stopped responding and has not been
	// relaunched yet.
	Lost bool `json:"lost"`
}
