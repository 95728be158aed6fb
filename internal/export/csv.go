// File: backend/internal/export/csv.go
package export

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/urlstatus/checkflow/backend/internal/checker"
)

// DefaultFilename is the suggested name for a downloaded results file.
const DefaultFilename = "url_check_results.csv"

var header = []string{"URL", "Status", "Other Active Countries"}

// WriteResults writes results as CSV: a header row followed by one row per
// result. Region lists are comma-joined; empty when not applicable.
func WriteResults(w io.Writer, results []checker.CheckResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, result := range results {
		row := []string{
			result.URL,
			result.StatusLabel,
			strings.Join(result.ActiveRegions, ", "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
