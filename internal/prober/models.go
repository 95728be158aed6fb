package prober

// ProbeResult holds the outcome of a single direct HTTP probe.
type ProbeResult struct {
	URL        string `json:"url"`
	Active     bool   `json:"active"`
	StatusCode int    `json:"statusCode,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Timestamp  string `json:"timestamp"` // ISO 8601
	DurationMs int64  `json:"durationMs"`
}
