// File: backend/internal/api/handler_base.go
package api

import (
	"sync"

	"github.com/urlstatus/checkflow/backend/internal/batches"
	"github.com/urlstatus/checkflow/backend/internal/checker"
	"github.com/urlstatus/checkflow/backend/internal/config"
	"github.com/urlstatus/checkflow/backend/internal/prober"
	"github.com/urlstatus/checkflow/backend/internal/regions"
	"github.com/urlstatus/checkflow/backend/internal/remotecheck"
	"github.com/urlstatus/checkflow/backend/internal/resolver"
)

// APIHandler holds shared dependencies for API handlers.
type APIHandler struct {
	Config      *config.AppConfig
	BatchStore  batches.BatchStore
	configMutex sync.RWMutex // Protects AppConfig during dynamic updates
}

// NewAPIHandler creates a new APIHandler with dependencies.
func NewAPIHandler(cfg *config.AppConfig, store batches.BatchStore) *APIHandler {
	return &APIHandler{
		Config:     cfg,
		BatchStore: store,
	}
}

// newCheckService builds a check service from the current configuration.
// The remote-check client (and its cookie jar) is scoped to one run, so each
// batch or stream gets a fresh one.
func (h *APIHandler) newCheckService() (*checker.CheckService, config.ProberConfig, config.RemoteCheckConfig) {
	h.configMutex.RLock()
	proberCfg := h.Config.Prober
	remoteCfg := h.Config.RemoteCheck
	resolverCfg := h.Config.Resolver
	regionEntries := h.Config.Regions
	h.configMutex.RUnlock()

	var hostResolver checker.HostResolver
	if len(resolverCfg.Resolvers) > 0 {
		hostResolver = resolver.New(resolverCfg)
	}

	svc := checker.NewCheckService(
		prober.New(proberCfg),
		remotecheck.NewClient(remoteCfg),
		hostResolver,
		regions.NewTable(regionEntries),
		remoteCfg.ExcludedRegion,
	)
	return svc, proberCfg, remoteCfg
}
