// File: backend/internal/checker/checker.go
package checker

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/urlstatus/checkflow/backend/internal/prober"
	"github.com/urlstatus/checkflow/backend/internal/regions"
	"github.com/urlstatus/checkflow/backend/internal/remotecheck"
)

// Prober issues the direct probe.
type Prober interface {
	Probe(ctx context.Context, targetURL string) prober.ProbeResult
}

// RemoteChecker submits delegated checks and polls for their results.
type RemoteChecker interface {
	Submit(ctx context.Context, targetURL string) (string, error)
	Poll(ctx context.Context, ticket string) (remotecheck.Report, error)
}

// HostResolver annotates results with the target's resolved addresses.
type HostResolver interface {
	LookupURL(ctx context.Context, rawURL string) ([]string, error)
}

// StatusFunc receives per-URL progress messages while a check runs.
type StatusFunc func(targetURL, message string)

// CheckService runs the two-tier reachability check: direct probe first,
// remote check on probe failure. URLs are processed strictly sequentially;
// one URL's failure never aborts the rest of a batch.
type CheckService struct {
	prober         Prober
	remote         RemoteChecker
	resolver       HostResolver // may be nil
	regionTable    *regions.Table
	excludedRegion string
}

func NewCheckService(p Prober, rc RemoteChecker, hr HostResolver, table *regions.Table, excludedRegion string) *CheckService {
	if table == nil {
		table = regions.DefaultTable()
	}
	return &CheckService{
		prober:         p,
		remote:         rc,
		resolver:       hr,
		regionTable:    table,
		excludedRegion: excludedRegion,
	}
}

// CheckAll checks every URL in input order and returns one result per URL.
func (s *CheckService) CheckAll(ctx context.Context, urls []string, status StatusFunc) []CheckResult {
	results := make([]CheckResult, 0, len(urls))
	for _, targetURL := range urls {
		results = append(results, s.CheckURL(ctx, targetURL, status))
	}
	return results
}

// CheckURL produces exactly one outcome for a URL. Errors from the remote
// check are folded into an Error outcome rather than returned.
func (s *CheckService) CheckURL(ctx context.Context, targetURL string, status StatusFunc) CheckResult {
	if status == nil {
		status = func(string, string) {}
	}
	startTime := time.Now()
	targetURL = strings.TrimSpace(targetURL)

	result := CheckResult{
		URL:       targetURL,
		Timestamp: startTime.Format(time.RFC3339),
	}
	if targetURL == "" {
		result.Outcome = OutcomeError
		result.Detail = "empty URL"
		result.StatusLabel = statusLabel(OutcomeError, s.excludedRegion)
		return result
	}

	if s.resolver != nil {
		if ips, err := s.resolver.LookupURL(ctx, targetURL); err == nil {
			result.ResolvedIPs = ips
		} else {
			log.Printf("Checker: DNS lookup for %s failed: %v", targetURL, err)
		}
	}

	status(targetURL, "Probing directly...")
	probeResult := s.prober.Probe(ctx, targetURL)
	if probeResult.Active {
		result.Outcome = OutcomeActiveDirect
		result.StatusLabel = statusLabel(OutcomeActiveDirect, s.excludedRegion)
		result.DurationMs = time.Since(startTime).Milliseconds()
		return result
	}

	status(targetURL, fmt.Sprintf("Direct probe failed (%s). Submitting remote check...", probeResult.Detail))
	ticket, err := s.remote.Submit(ctx, targetURL)
	if err != nil {
		log.Printf("Checker: Remote submission for %s failed: %v", targetURL, err)
		result.Outcome = OutcomeError
		result.Detail = err.Error()
		result.StatusLabel = statusLabel(OutcomeError, s.excludedRegion)
		result.DurationMs = time.Since(startTime).Milliseconds()
		return result
	}

	status(targetURL, fmt.Sprintf("Remote check submitted (ticket %s). Polling for results...", ticket))
	report, err := s.remote.Poll(ctx, ticket)
	if err != nil {
		log.Printf("Checker: Remote poll for %s failed: %v", targetURL, err)
		result.Outcome = OutcomeError
		result.Detail = err.Error()
		result.StatusLabel = statusLabel(OutcomeError, s.excludedRegion)
		result.DurationMs = time.Since(startTime).Milliseconds()
		return result
	}

	activeNodes := report.ActiveNodes()
	if len(activeNodes) == 0 {
		result.Outcome = OutcomeInactiveNoActiveNodes
		result.StatusLabel = statusLabel(OutcomeInactiveNoActiveNodes, s.excludedRegion)
		result.DurationMs = time.Since(startTime).Milliseconds()
		return result
	}

	otherRegions := s.mapAndFilterRegions(activeNodes)
	if len(otherRegions) > 0 {
		result.Outcome = OutcomeActiveOtherRegions
		result.ActiveRegions = otherRegions
	} else {
		result.Outcome = OutcomeInactiveNoNonExcludedRegions
	}
	result.StatusLabel = statusLabel(result.Outcome, s.excludedRegion)
	result.DurationMs = time.Since(startTime).Milliseconds()
	return result
}

// mapAndFilterRegions maps node ids to region names, drops the excluded
// region, and deduplicates while preserving node order.
func (s *CheckService) mapAndFilterRegions(nodeIDs []string) []string {
	seen := make(map[string]bool, len(nodeIDs))
	var out []string
	for _, nodeID := range nodeIDs {
		region := s.regionTable.RegionForNode(nodeID)
		if region == s.excludedRegion || seen[region] {
			continue
		}
		seen[region] = true
		out = append(out, region)
	}
	return out
}
