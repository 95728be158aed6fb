// File: backend/internal/remotecheck/client.go
package remotecheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/urlstatus/checkflow/backend/internal/config"
)

const maxBodyReadBytes = 2 * 1024 * 1024

// The challenge page embeds the token as a hidden form field.
var csrfTokenPattern = regexp.MustCompile(`name="csrf_token" value="(.+?)"`)

// Client talks to the distributed checking service. One client is scoped to
// one batch run; its cookie jar carries any session cookies the service sets
// on the challenge page, which the token resubmission depends on.
type Client struct {
	cfg        config.RemoteCheckConfig
	httpClient *http.Client
}

func NewClient(cfg config.RemoteCheckConfig) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Jar: jar},
	}
}

// Submit registers a check for targetURL and returns the service's ticket.
//
// A JSON response carries the ticket in request_id. An HTML response is the
// anti-automation challenge page: the CSRF token is scraped out of it and the
// request is reissued once with the token attached. At most two submission
// requests are ever made; HTML after the token resubmission is a protocol
// error, not another retry.
func (c *Client) Submit(ctx context.Context, targetURL string) (string, error) {
	endpoint := c.cfg.BaseURL + "/check-http"
	params := url.Values{}
	params.Set("host", targetURL)

	body, contentType, err := c.doGet(ctx, endpoint, params, c.cfg.SubmitTimeout)
	if err != nil {
		return "", &CheckError{Kind: KindTransport, Op: "submit", Err: err}
	}
	if looksLikeJSON(body) {
		return extractRequestID(body)
	}

	token, ok := extractCSRFToken(body, contentType)
	if !ok {
		return "", &CheckError{Kind: KindProtocol, Op: "submit", Message: "token extraction failed"}
	}
	log.Printf("RemoteCheck: Challenge page received for %s, resubmitting with token.", targetURL)

	params.Set("csrf_token", token)
	body, _, err = c.doGet(ctx, endpoint, params, c.cfg.SubmitTimeout)
	if err != nil {
		return "", &CheckError{Kind: KindTransport, Op: "submit", Err: err}
	}
	if !looksLikeJSON(body) {
		return "", &CheckError{Kind: KindProtocol, Op: "submit", Message: "expected JSON, got HTML after token submission"}
	}
	return extractRequestID(body)
}

// Poll retrieves the result for a ticket. Each attempt sleeps the configured
// interval, then issues one GET: an empty body means "not ready yet", a
// non-empty body that is not valid JSON aborts, and a parsed non-empty report
// is returned immediately. Fixed cadence, no backoff.
func (c *Client) Poll(ctx context.Context, ticket string) (Report, error) {
	endpoint := c.cfg.BaseURL + "/check-result/" + url.PathEscape(ticket)
	for attempt := 1; attempt <= c.cfg.PollAttempts; attempt++ {
		time.Sleep(c.cfg.PollInterval)

		body, _, err := c.doGet(ctx, endpoint, nil, c.cfg.PollTimeout)
		if err != nil {
			return nil, &CheckError{Kind: KindTransport, Op: "poll", Err: err}
		}
		if len(bytes.TrimSpace(body)) == 0 {
			continue
		}
		var report Report
		if err := json.Unmarshal(body, &report); err != nil {
			return nil, &CheckError{Kind: KindParse, Op: "poll", Message: "malformed JSON in poll response", Err: err}
		}
		if len(report) > 0 {
			return report, nil
		}
	}
	return nil, &CheckError{
		Kind:    KindTimeout,
		Op:      "poll",
		Message: fmt.Sprintf("no result for ticket %s after %d attempts", ticket, c.cfg.PollAttempts),
	}
}

func (c *Client) doGet(ctx context.Context, endpoint string, params url.Values, timeout time.Duration) ([]byte, string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	requestURL := endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		io.Copy(ioutil.Discard, resp.Body)
		resp.Body.Close()
	}()

	body, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxBodyReadBytes))
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func extractRequestID(body []byte) (string, error) {
	var payload struct {
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &CheckError{Kind: KindParse, Op: "submit", Message: "malformed JSON in submission response", Err: err}
	}
	if payload.RequestID == "" {
		return "", &CheckError{Kind: KindProtocol, Op: "submit", Message: "submission response missing request_id"}
	}
	return payload.RequestID, nil
}

// extractCSRFToken decodes the challenge page to UTF-8 per its declared
// charset before scanning for the token field.
func extractCSRFToken(body []byte, contentType string) (string, bool) {
	decoded := body
	if utf8Reader, err := charset.NewReader(bytes.NewReader(body), contentType); err == nil {
		if converted, readErr := ioutil.ReadAll(utf8Reader); readErr == nil {
			decoded = converted
		}
	}
	match := csrfTokenPattern.FindSubmatch(decoded)
	if match == nil {
		return "", false
	}
	return string(match[1]), true
}
