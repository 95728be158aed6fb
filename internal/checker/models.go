// File: backend/internal/checker/models.go
package checker

import "fmt"

// OutcomeKind is the final classification for one checked URL.
type OutcomeKind string

const (
	OutcomeActiveDirect                 OutcomeKind = "active_direct"
	OutcomeActiveOtherRegions           OutcomeKind = "active_other_regions"
	OutcomeInactiveNoNonExcludedRegions OutcomeKind = "inactive_no_non_excluded_regions"
	OutcomeInactiveNoActiveNodes        OutcomeKind = "inactive_no_active_nodes"
	OutcomeError                        OutcomeKind = "error"
)

// CheckResult is the immutable per-URL outcome. Exactly one is produced for
// every input URL.
type CheckResult struct {
	URL           string      `json:"url"`
	Outcome       OutcomeKind `json:"outcome"`
	StatusLabel   string      `json:"statusLabel"`
	ActiveRegions []string    `json:"activeRegions,omitempty"`
	Detail        string      `json:"detail,omitempty"`
	ResolvedIPs   []string    `json:"resolvedIps,omitempty"`
	Timestamp     string      `json:"timestamp"` // ISO 8601
	DurationMs    int64       `json:"durationMs"`
}

// statusLabel renders the user-facing label for an outcome.
func statusLabel(outcome OutcomeKind, excludedRegion string) string {
	switch outcome {
	case OutcomeActiveDirect:
		return "Active (Direct)"
	case OutcomeActiveOtherRegions:
		return "Active (Other Countries)"
	case OutcomeInactiveNoNonExcludedRegions:
		return fmt.Sprintf("Inactive (No non-%s nodes)", excludedRegion)
	case OutcomeInactiveNoActiveNodes:
		return "Inactive"
	case OutcomeError:
		return "Error retrieving API data"
	default:
		return string(outcome)
	}
}
