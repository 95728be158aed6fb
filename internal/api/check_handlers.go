// File: backend/internal/api/check_handlers.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/urlstatus/checkflow/backend/internal/checker"
	"github.com/urlstatus/checkflow/backend/internal/config"
)

// CheckRequest is the payload for the batch check endpoint.
type CheckRequest struct {
	URLs []string `json:"urls"`
}

// CheckResponse carries one result per submitted URL.
type CheckResponse struct {
	Results []checker.CheckResult `json:"results"`
}

// streamStatusEvent is the payload of a check_status SSE event.
type streamStatusEvent struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

func cleanURLList(raw []string) []string {
	cleaned := make([]string, 0, len(raw))
	for _, u := range raw {
		u = strings.TrimSpace(u)
		if u != "" {
			cleaned = append(cleaned, u)
		}
	}
	return cleaned
}

// CheckHandler runs the two-tier check over a list of URLs and responds with
// the full outcome list. URLs are checked strictly sequentially in input
// order; a failing URL yields an Error outcome and the batch continues.
// POST /api/v1/check
func (h *APIHandler) CheckHandler(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	urls := cleanURLList(req.URLs)
	if len(urls) == 0 {
		respondWithError(w, http.StatusBadRequest, "No URLs provided")
		return
	}

	svc, proberCfg, remoteCfg := h.newCheckService()
	if remoteCfg.MaxURLsPerRequest > 0 && len(urls) > remoteCfg.MaxURLsPerRequest {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Too many URLs. Max %d for this configuration.", remoteCfg.MaxURLsPerRequest))
		return
	}

	var limiter *rate.Limiter
	if proberCfg.RateLimitCPS > 0 && proberCfg.RateLimitBurst > 0 {
		limiter = rate.NewLimiter(rate.Limit(proberCfg.RateLimitCPS), proberCfg.RateLimitBurst)
	}

	log.Printf("API Check Batch: Starting check of %d URLs.", len(urls))
	results := make([]checker.CheckResult, 0, len(urls))
	for _, targetURL := range urls {
		if limiter != nil {
			if err := limiter.Wait(r.Context()); err != nil {
				log.Printf("API Check Batch: Rate limiter context error for %s: %v", targetURL, err)
				results = append(results, checker.CheckResult{
					URL:         targetURL,
					Outcome:     checker.OutcomeError,
					StatusLabel: "Error retrieving API data",
					Detail:      "rate limit error: " + err.Error(),
					Timestamp:   time.Now().Format(time.RFC3339),
				})
				continue
			}
		}
		results = append(results, svc.CheckURL(r.Context(), targetURL, nil))
	}

	respondWithJSON(w, http.StatusOK, CheckResponse{Results: results})
	log.Printf("API Check Batch: Completed check of %d URLs.", len(urls))
}

// CheckStreamHandler runs checks over URLs given as repeated ?url= query
// parameters and streams progress over SSE: check_status events while a URL
// is in flight, one check_result event per URL, then a done event. A client
// disconnect stops the stream between URLs.
// GET /api/v1/check/stream
func (h *APIHandler) CheckStreamHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Printf("API Error: CheckStreamHandler - Streaming unsupported.")
		respondWithError(w, http.StatusInternalServerError, "Streaming unsupported!")
		return
	}

	urls := cleanURLList(r.URL.Query()["url"])
	if len(urls) == 0 {
		respondWithError(w, http.StatusBadRequest, "No 'url' query parameters provided")
		return
	}

	svc, proberCfg, remoteCfg := h.newCheckService()

	h.configMutex.RLock()
	streamChunkSize := h.Config.Server.StreamChunkSize
	h.configMutex.RUnlock()
	if streamChunkSize <= 0 {
		streamChunkSize = config.DefaultStreamChunkSize
	}

	if remoteCfg.MaxURLsPerRequest > 0 && len(urls) > remoteCfg.MaxURLsPerRequest {
		errorData := map[string]string{"error": fmt.Sprintf("Too many URLs. Max %d for this configuration.", remoteCfg.MaxURLsPerRequest)}
		jsonData, _ := json.Marshal(errorData)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", string(jsonData))
		flusher.Flush()
		return
	}

	var streamRateLimiter *rate.Limiter
	if proberCfg.RateLimitCPS > 0 && proberCfg.RateLimitBurst > 0 {
		streamRateLimiter = rate.NewLimiter(rate.Limit(proberCfg.RateLimitCPS), proberCfg.RateLimitBurst)
		log.Printf("API Check Stream: Initialized rate limiter: %.2f CPS, %d Burst", proberCfg.RateLimitCPS, proberCfg.RateLimitBurst)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	eventID := 0
	requestContext := r.Context()
	totalURLs := len(urls)
	log.Printf("API Check Stream: Starting to process %d URLs in chunks of %d.", totalURLs, streamChunkSize)

	statusFn := func(targetURL, message string) {
		jsonData, err := json.Marshal(streamStatusEvent{URL: targetURL, Message: message})
		if err != nil {
			return
		}
		fmt.Fprintf(w, "event: check_status\ndata: %s\n\n", string(jsonData))
		flusher.Flush()
	}

	for i := 0; i < totalURLs; i += streamChunkSize {
		chunkEnd := i + streamChunkSize
		if chunkEnd > totalURLs {
			chunkEnd = totalURLs
		}
		for _, targetURL := range urls[i:chunkEnd] {
			eventID++
			select {
			case <-requestContext.Done():
				log.Printf("API Check Stream: Client disconnected before checking %s.", targetURL)
				fmt.Fprintf(w, "event: error\ndata: {\"message\": \"Client disconnected\"}\n\n")
				flusher.Flush()
				return
			default:
			}
			if streamRateLimiter != nil {
				if err := streamRateLimiter.Wait(requestContext); err != nil {
					log.Printf("API Check Stream: Rate limiter error for %s: %v", targetURL, err)
					errorData := map[string]string{"url": targetURL, "error": "Rate limit error: " + err.Error()}
					jsonData, _ := json.Marshal(errorData)
					fmt.Fprintf(w, "id: %d\nevent: check_error\ndata: %s\n\n", eventID, string(jsonData))
					flusher.Flush()
					if err == context.Canceled || err == context.DeadlineExceeded {
						return
					}
					continue
				}
			}

			checkStart := time.Now()
			result := svc.CheckURL(requestContext, targetURL, statusFn)
			log.Printf("API Check Stream: URL '%s' (ID: %d) - Check took %s.", targetURL, eventID, time.Since(checkStart))

			jsonData, err := json.Marshal(result)
			if err != nil {
				log.Printf("API Error: CheckStreamHandler - Marshal error for %s: %v", targetURL, err)
				errorData := map[string]string{"url": targetURL, "error": "Marshal error: " + err.Error()}
				jsonErrData, _ := json.Marshal(errorData)
				fmt.Fprintf(w, "id: %d\nevent: check_error\ndata: %s\n\n", eventID, string(jsonErrData))
				flusher.Flush()
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: check_result\ndata: %s\n\n", eventID, string(jsonData))
			flusher.Flush()
		}
	}

	fmt.Fprintf(w, "event: done\ndata: Check stream completed for %d URLs.\n\n", totalURLs)
	flusher.Flush()
	log.Printf("API Check Stream: Completed all checks for %d URLs.", totalURLs)
}
