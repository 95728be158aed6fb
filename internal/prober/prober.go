// File: backend/internal/prober/prober.go
package prober

import (
	"context"
	"crypto/tls"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/urlstatus/checkflow/backend/internal/config"
)

// Prober issues direct HTTP probes against target URLs. A target is active
// iff a response arrives with a status in [200,400). Exactly one request is
// made per probe; transport failures are reported, never retried.
type Prober struct {
	cfg    config.ProberConfig
	client *http.Client
}

func New(cfg config.ProberConfig) *Prober {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}
	if cfg.AllowInsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Prober{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
	}
}

// Probe checks a single URL. A missing scheme defaults to http://.
func (p *Prober) Probe(ctx context.Context, targetURL string) ProbeResult {
	return p.probeWithClient(ctx, targetURL, p.client)
}

func (p *Prober) probeWithClient(ctx context.Context, targetURL string, client *http.Client) ProbeResult {
	startTime := time.Now()
	result := ProbeResult{
		URL:       targetURL,
		Timestamp: startTime.Format(time.RFC3339),
	}

	requestURL := targetURL
	if !strings.HasPrefix(requestURL, "http://") && !strings.HasPrefix(requestURL, "https://") {
		requestURL = "http://" + requestURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		result.Detail = "invalid URL: " + err.Error()
		result.DurationMs = time.Since(startTime).Milliseconds()
		return result
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		result.Detail = err.Error()
		result.DurationMs = time.Since(startTime).Milliseconds()
		return result
	}
	defer func() {
		io.Copy(ioutil.Discard, resp.Body)
		resp.Body.Close()
	}()

	result.StatusCode = resp.StatusCode
	result.Active = resp.StatusCode >= 200 && resp.StatusCode < 400
	if !result.Active {
		result.Detail = http.StatusText(resp.StatusCode)
	}
	result.DurationMs = time.Since(startTime).Milliseconds()
	return result
}
