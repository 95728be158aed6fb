// File: backend/internal/regions/regions.go
package regions

import "strings"

// Entry is one prefix-to-region mapping, loadable from the regions config file.
type Entry struct {
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
}

// Table maps two-letter node prefixes to region display names.
type Table struct {
	byPrefix map[string]string
}

// defaultEntries is the built-in coverage. Extending it is a data change;
// deployments can override or add prefixes via regions.config.json.
var defaultEntries = []Entry{
	{Prefix: "us", Name: "USA"},
	{Prefix: "ch", Name: "Switzerland"},
	{Prefix: "pt", Name: "Portugal"},
	{Prefix: "ru", Name: "Russia"},
	{Prefix: "de", Name: "Germany"},
	{Prefix: "in", Name: "India"},
	{Prefix: "uk", Name: "United Kingdom"},
	{Prefix: "fr", Name: "France"},
	{Prefix: "jp", Name: "Japan"},
}

// NewTable builds a lookup table from the default entries plus any extras.
// Extras win on prefix collision.
func NewTable(extras []Entry) *Table {
	t := &Table{byPrefix: make(map[string]string, len(defaultEntries)+len(extras))}
	for _, e := range defaultEntries {
		t.byPrefix[e.Prefix] = e.Name
	}
	for _, e := range extras {
		p := strings.ToLower(strings.TrimSpace(e.Prefix))
		if len(p) != 2 || e.Name == "" {
			continue
		}
		t.byPrefix[p] = e.Name
	}
	return t
}

// DefaultTable returns a table containing only the built-in entries.
func DefaultTable() *Table {
	return NewTable(nil)
}

// RegionForNode maps a node identifier to a region display name using the
// first two characters of the identifier, lower-cased. Unknown prefixes pass
// the raw node identifier through unchanged.
func (t *Table) RegionForNode(nodeID string) string {
	if len(nodeID) < 2 {
		return nodeID
	}
	prefix := strings.ToLower(nodeID[:2])
	if name, ok := t.byPrefix[prefix]; ok {
		return name
	}
	return nodeID
}

// Entries returns the table contents in no particular order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.byPrefix))
	for p, n := range t.byPrefix {
		out = append(out, Entry{Prefix: p, Name: n})
	}
	return out
}
