// File: backend/internal/api/server_settings_handlers.go
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/urlstatus/checkflow/backend/internal/config"
)

// GetServerConfigHandler retrieves current server-wide configurations like port and streamChunkSize.
func (h *APIHandler) GetServerConfigHandler(w http.ResponseWriter, r *http.Request) {
	h.configMutex.RLock()
	serverConfigDTO := struct {
		Port            string `json:"port"`
		StreamChunkSize int    `json:"streamChunkSize"`
	}{
		Port:            h.Config.Server.Port,
		StreamChunkSize: h.Config.Server.StreamChunkSize,
	}
	h.configMutex.RUnlock()
	respondWithJSON(w, http.StatusOK, serverConfigDTO)
}

// UpdateServerConfigHandler updates server-wide configurations like streamChunkSize.
func (h *APIHandler) UpdateServerConfigHandler(w http.ResponseWriter, r *http.Request) {
	var reqServerConfigUpdate struct {
		StreamChunkSize *int `json:"streamChunkSize"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqServerConfigUpdate); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()
	configChanged := false
	h.configMutex.Lock()
	if reqServerConfigUpdate.StreamChunkSize != nil {
		if *reqServerConfigUpdate.StreamChunkSize > 0 {
			if h.Config.Server.StreamChunkSize != *reqServerConfigUpdate.StreamChunkSize {
				h.Config.Server.StreamChunkSize = *reqServerConfigUpdate.StreamChunkSize
				configChanged = true
				log.Printf("API: Server StreamChunkSize updated to: %d", h.Config.Server.StreamChunkSize)
			}
		} else {
			log.Printf("API Warning: UpdateServerConfigHandler - Invalid StreamChunkSize received: %d. Value must be > 0. Not updating.", *reqServerConfigUpdate.StreamChunkSize)
		}
	}
	if configChanged {
		// Save the entire AppConfig; h.Config already holds the updated Server part.
		if err := config.Save(h.Config, h.Config.GetLoadedFromPath()); err != nil {
			h.configMutex.Unlock()
			log.Printf("API Error: UpdateServerConfigHandler - Failed to save updated server config: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to save server configuration")
			return
		}
	}
	// Snapshot the response while still holding the lock so a concurrent
	// update cannot be observed half-applied.
	currentServerConfigDTO := struct {
		Port            string `json:"port"`
		StreamChunkSize int    `json:"streamChunkSize"`
	}{
		Port:            h.Config.Server.Port,
		StreamChunkSize: h.Config.Server.StreamChunkSize,
	}
	h.configMutex.Unlock()
	respondWithJSON(w, http.StatusOK, currentServerConfigDTO)
}

// GetProberConfigHandler retrieves the direct probe configuration.
func (h *APIHandler) GetProberConfigHandler(w http.ResponseWriter, r *http.Request) {
	h.configMutex.RLock()
	proberConfigJSON := config.ConvertProberConfigToJSON(h.Config.Prober)
	h.configMutex.RUnlock()
	respondWithJSON(w, http.StatusOK, proberConfigJSON)
}

// UpdateProberConfigHandler updates the direct probe configuration.
func (h *APIHandler) UpdateProberConfigHandler(w http.ResponseWriter, r *http.Request) {
	var reqJSON config.ProberConfigJSON
	if err := json.NewDecoder(r.Body).Decode(&reqJSON); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()
	updatedProberConfig := config.ConvertJSONToProberConfig(reqJSON)
	h.configMutex.Lock()
	h.Config.Prober = updatedProberConfig
	configToSave := *h.Config
	h.configMutex.Unlock()
	if err := config.Save(&configToSave, configToSave.GetLoadedFromPath()); err != nil {
		log.Printf("API Error: Failed to save updated prober config: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to save prober configuration")
		return
	}
	log.Printf("API: Updated server default prober configuration.")
	respondWithJSON(w, http.StatusOK, config.ConvertProberConfigToJSON(updatedProberConfig))
}

// GetRemoteCheckConfigHandler retrieves the remote check configuration.
func (h *APIHandler) GetRemoteCheckConfigHandler(w http.ResponseWriter, r *http.Request) {
	h.configMutex.RLock()
	remoteCheckConfigJSON := config.ConvertRemoteCheckConfigToJSON(h.Config.RemoteCheck)
	h.configMutex.RUnlock()
	respondWithJSON(w, http.StatusOK, remoteCheckConfigJSON)
}

// UpdateRemoteCheckConfigHandler updates the remote check configuration.
func (h *APIHandler) UpdateRemoteCheckConfigHandler(w http.ResponseWriter, r *http.Request) {
	var reqJSON config.RemoteCheckConfigJSON
	if err := json.NewDecoder(r.Body).Decode(&reqJSON); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()
	updatedRemoteCheckConfig := config.ConvertJSONToRemoteCheckConfig(reqJSON)
	h.configMutex.Lock()
	h.Config.RemoteCheck = updatedRemoteCheckConfig
	configToSave := *h.Config
	h.configMutex.Unlock()
	if err := config.Save(&configToSave, configToSave.GetLoadedFromPath()); err != nil {
		log.Printf("API Error: Failed to save updated remote check config: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to save remote check configuration")
		return
	}
	log.Printf("API: Updated server default remote check configuration.")
	respondWithJSON(w, http.StatusOK, config.ConvertRemoteCheckConfigToJSON(updatedRemoteCheckConfig))
}

// GetResolverConfigHandler retrieves the DNS resolver configuration.
func (h *APIHandler) GetResolverConfigHandler(w http.ResponseWriter, r *http.Request) {
	h.configMutex.RLock()
	resolverConfigJSON := config.ConvertResolverConfigToJSON(h.Config.Resolver)
	h.configMutex.RUnlock()
	respondWithJSON(w, http.StatusOK, resolverConfigJSON)
}

// UpdateResolverConfigHandler updates the DNS resolver configuration.
func (h *APIHandler) UpdateResolverConfigHandler(w http.ResponseWriter, r *http.Request) {
	var reqJSON config.ResolverConfigJSON
	if err := json.NewDecoder(r.Body).Decode(&reqJSON); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()
	updatedResolverConfig := config.ConvertJSONToResolverConfig(reqJSON)
	h.configMutex.Lock()
	h.Config.Resolver = updatedResolverConfig
	configToSave := *h.Config
	h.configMutex.Unlock()
	if err := config.Save(&configToSave, configToSave.GetLoadedFromPath()); err != nil {
		log.Printf("API Error: Failed to save updated resolver config: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to save resolver configuration")
		return
	}
	log.Printf("API: Updated server default resolver configuration.")
	respondWithJSON(w, http.StatusOK, config.ConvertResolverConfigToJSON(updatedResolverConfig))
}

// GetLoggingConfigHandler retrieves the current logging configuration.
func (h *APIHandler) GetLoggingConfigHandler(w http.ResponseWriter, r *http.Request) {
	h.configMutex.RLock()
	loggingConfig := h.Config.Logging
	h.configMutex.RUnlock()
	respondWithJSON(w, http.StatusOK, loggingConfig)
}

// UpdateLoggingConfigHandler updates the logging configuration.
func (h *APIHandler) UpdateLoggingConfigHandler(w http.ResponseWriter, r *http.Request) {
	var reqLogging config.LoggingConfig
	if err := json.NewDecoder(r.Body).Decode(&reqLogging); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()
	h.configMutex.Lock()
	h.Config.Logging = reqLogging
	configToSave := *h.Config
	h.configMutex.Unlock()
	if err := config.Save(&configToSave, configToSave.GetLoadedFromPath()); err != nil {
		log.Printf("API Error: Failed to save updated Logging config: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to save Logging configuration")
		return
	}
	log.Printf("API: Updated server Logging configuration. New level: %s", reqLogging.Level)
	respondWithJSON(w, http.StatusOK, reqLogging)
}
