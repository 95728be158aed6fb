// File: backend/internal/remotecheck/report.go
package remotecheck

import (
	"encoding/json"
	"sort"
	"strconv"
)

// NodeObservation is one entry of a node's result list. The service encodes
// it as a positional 5-element array: [success, elapsed, message, status, ip]
// where status may be null. Entries that do not fit that shape are kept but
// marked invalid so one bad node cannot poison the rest of the report.
type NodeObservation struct {
	Success int
	Elapsed float64
	Message string
	Status  *int
	IP      string
	Valid   bool `json:"-"`
}

func (o *NodeObservation) UnmarshalJSON(data []byte) error {
	o.Valid = false

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	if len(raw) < 5 {
		return nil
	}

	success, ok := parseIntField(raw[0])
	if !ok {
		return nil
	}
	var elapsed float64
	if err := json.Unmarshal(raw[1], &elapsed); err != nil {
		return nil
	}
	var message string
	if err := json.Unmarshal(raw[2], &message); err != nil {
		return nil
	}
	var status *int
	if string(raw[3]) != "null" {
		value, ok := parseIntField(raw[3])
		if !ok {
			return nil
		}
		status = &value
	}
	var ip string
	if err := json.Unmarshal(raw[4], &ip); err != nil {
		return nil
	}

	o.Success = success
	o.Elapsed = elapsed
	o.Message = message
	o.Status = status
	o.IP = ip
	o.Valid = true
	return nil
}

// parseIntField accepts a JSON number or a numeric string.
func parseIntField(raw json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, convErr := strconv.Atoi(s); convErr == nil {
			return v, true
		}
	}
	return 0, false
}

// Report maps node identifiers to their result lists.
type Report map[string][]NodeObservation

// ActiveNodes returns the sorted identifiers of nodes whose first observation
// reports success flag 1 and a status in [200,400). Nodes with empty result
// lists or malformed first observations are skipped.
func (r Report) ActiveNodes() []string {
	var active []string
	for nodeID, observations := range r {
		if len(observations) == 0 {
			continue
		}
		first := observations[0]
		if !first.Valid || first.Status == nil {
			continue
		}
		if first.Success == 1 && *first.Status >= 200 && *first.Status < 400 {
			active = append(active, nodeID)
		}
	}
	sort.Strings(active)
	return active
}
