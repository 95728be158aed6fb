package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/urlstatus/checkflow/backend/internal/checker"
)

func sampleResults() []checker.CheckResult {
	return []checker.CheckResult{
		{URL: "http://a.example", Outcome: checker.OutcomeActiveDirect, StatusLabel: "Active (Direct)"},
		{URL: "http://b.example", Outcome: checker.OutcomeActiveOtherRegions, StatusLabel: "Active (Other Countries)", ActiveRegions: []string{"USA", "Germany"}},
		{URL: "http://c.example", Outcome: checker.OutcomeError, StatusLabel: "Error retrieving API data"},
	}
}

func TestWriteResultsLineCount(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, sampleResults()); err != nil {
		t.Fatalf("WriteResults: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Errorf("got %d lines, want header + 3 rows", len(lines))
	}
}

func TestWriteResultsFieldRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	results := sampleResults()
	if err := WriteResults(&buf, results); err != nil {
		t.Fatalf("WriteResults: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back CSV: %v", err)
	}
	if len(records) != len(results)+1 {
		t.Fatalf("got %d records", len(records))
	}
	wantHeader := []string{"URL", "Status", "Other Active Countries"}
	for i, field := range wantHeader {
		if records[0][i] != field {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], field)
		}
	}
	for i, result := range results {
		row := records[i+1]
		if row[0] != result.URL || row[1] != result.StatusLabel {
			t.Errorf("row %d = %v", i, row)
		}
	}
	if records[2][2] != "USA, Germany" {
		t.Errorf("regions cell = %q", records[2][2])
	}
	if records[1][2] != "" || records[3][2] != "" {
		t.Error("expected empty region cells for direct/error rows")
	}
}

func TestWriteResultsEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, nil); err != nil {
		t.Fatalf("WriteResults: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Errorf("got %d lines, want header only", len(lines))
	}
}
