// File: backend/internal/api/middleware.go
package api

import (
	"log"
	"net/http"
	"strings"
	"time"
)

// LoggingMiddleware logs the incoming HTTP request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := NewStatusResponseWriter(w)

		log.Printf("Request Start: %s %s %s", r.Method, r.RequestURI, r.RemoteAddr)
		next.ServeHTTP(srw, r)
		log.Printf("Request End: %s %s (Status: %d) %s (Duration: %s)", r.Method, r.RequestURI, srw.statusCode, r.RemoteAddr, time.Since(start))
	})
}

// StatusResponseWriter wraps ResponseWriter to capture the status code and
// forwards Flush so SSE handlers keep working behind the middleware.
type StatusResponseWriter struct {
	http.ResponseWriter
	statusCode int
	flushed    bool
}

func NewStatusResponseWriter(w http.ResponseWriter) *StatusResponseWriter {
	return &StatusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (srw *StatusResponseWriter) WriteHeader(code int) {
	if !srw.flushed {
		srw.statusCode = code
		srw.ResponseWriter.WriteHeader(code)
	}
}

// Flush implements http.Flusher when the underlying writer supports it.
func (srw *StatusResponseWriter) Flush() {
	if flusher, ok := srw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
		srw.flushed = true
	}
}

// APIKeyAuthMiddleware requires a Bearer token matching the configured key.
func APIKeyAuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}
			if parts[1] != apiKey {
				log.Printf("Auth failed: Invalid API Key by %s for %s %s", r.RemoteAddr, r.Method, r.RequestURI)
				http.Error(w, "Invalid API Key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware allows cross-origin requests from any origin.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Disposition, Date")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
