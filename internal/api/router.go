// File: backend/internal/api/router.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/urlstatus/checkflow/backend/internal/batches"
	"github.com/urlstatus/checkflow/backend/internal/config"
)

func NewRouter(cfg *config.AppConfig, store batches.BatchStore) *mux.Router {
	router := mux.NewRouter()
	apiHandler := NewAPIHandler(cfg, store)

	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	router.HandleFunc("/ping", apiHandler.PingHandler).Methods(http.MethodGet, http.MethodOptions)

	apiV1 := router.PathPrefix("/api/v1").Subrouter()
	apiV1.Use(APIKeyAuthMiddleware(cfg.Server.APIKey))

	// URL Checking
	apiV1.HandleFunc("/check", apiHandler.CheckHandler).Methods(http.MethodPost, http.MethodOptions)
	apiV1.HandleFunc("/check/stream", apiHandler.CheckStreamHandler).Methods(http.MethodGet, http.MethodOptions)

	// Batch Runs
	apiV1.HandleFunc("/batches", apiHandler.ListBatchesHandler).Methods(http.MethodGet, http.MethodOptions)
	apiV1.HandleFunc("/batches", apiHandler.CreateBatchHandler).Methods(http.MethodPost, http.MethodOptions)
	apiV1.HandleFunc("/batches/{batchId}", apiHandler.GetBatchHandler).Methods(http.MethodGet, http.MethodOptions)
	apiV1.HandleFunc("/batches/{batchId}", apiHandler.DeleteBatchHandler).Methods(http.MethodDelete, http.MethodOptions)
	apiV1.HandleFunc("/batches/{batchId}/urls", apiHandler.UploadBatchURLsHandler).Methods(http.MethodPost, http.MethodOptions)
	apiV1.HandleFunc("/batches/{batchId}/run", apiHandler.RunBatchHandler).Methods(http.MethodPost, http.MethodOptions)
	apiV1.HandleFunc("/batches/{batchId}/results", apiHandler.GetBatchResultsHandler).Methods(http.MethodGet, http.MethodOptions)
	apiV1.HandleFunc("/batches/{batchId}/export", apiHandler.ExportBatchHandler).Methods(http.MethodGet, http.MethodOptions)

	// Configuration Management (Server Defaults)
	apiV1.HandleFunc("/config/prober", apiHandler.GetProberConfigHandler).Methods(http.MethodGet, http.MethodOptions)
	apiV1.HandleFunc("/config/prober", apiHandler.UpdateProberConfigHandler).Methods(http.MethodPost, http.MethodOptions)
	apiV1.HandleFunc("/config/remotecheck", apiHandler.GetRemoteCheckConfigHandler).Methods(http.MethodGet, http.MethodOptions)
	apiV1.HandleFunc("/config/remotecheck", apiHandler.UpdateRemoteCheckConfigHandler).Methods(http.MethodPost, http.MethodOptions)
	apiV1.HandleFunc("/config/resolver", apiHandler.GetResolverConfigHandler).Methods(http.MethodGet, http.MethodOptions)
	apiV1.HandleFunc("/config/resolver", apiHandler.UpdateResolverConfigHandler).Methods(http.MethodPost, http.MethodOptions)
	apiV1.HandleFunc("/config/logging", apiHandler.GetLoggingConfigHandler).Methods(http.MethodGet, http.MethodOptions)
	apiV1.HandleFunc("/config/logging", apiHandler.UpdateLoggingConfigHandler).Methods(http.MethodPost, http.MethodOptions)

	// Server-wide configuration (like StreamChunkSize)
	apiV1.HandleFunc("/config/server", apiHandler.GetServerConfigHandler).Methods(http.MethodGet, http.MethodOptions)
	apiV1.HandleFunc("/config/server", apiHandler.UpdateServerConfigHandler).Methods(http.MethodPut, http.MethodOptions)

	return router
}
