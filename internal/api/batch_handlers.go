// File: backend/internal/api/batch_handlers.go
package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/urlstatus/checkflow/backend/internal/batches"
	"github.com/urlstatus/checkflow/backend/internal/checker"
	"github.com/urlstatus/checkflow/backend/internal/export"
)

const maxUploadSize = 5 * 1024 * 1024 // 5 MB

// CreateBatchRequest is the expected JSON for creating a new batch.
type CreateBatchRequest struct {
	BatchName   string `json:"batchName"`
	Description string `json:"description,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// CreateBatchHandler creates a new batch run.
// POST /api/v1/batches
func (h *APIHandler) CreateBatchHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if strings.TrimSpace(req.BatchName) == "" {
		respondWithError(w, http.StatusBadRequest, "batchName is required")
		return
	}

	now := time.Now()
	batch := &batches.Batch{
		BatchID:     uuid.NewString(),
		BatchName:   strings.TrimSpace(req.BatchName),
		Description: req.Description,
		Notes:       req.Notes,
		Status:      batches.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.BatchStore.CreateBatch(batch); err != nil {
		log.Printf("API Error: CreateBatchHandler - Failed to create batch '%s': %v", batch.BatchName, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create batch: "+err.Error())
		return
	}
	h.BatchStore.LogEvent(batch.BatchID, batches.BatchEvent{
		Timestamp:   now,
		Action:      "Batch Created",
		Description: fmt.Sprintf("Batch '%s' created.", batch.BatchName),
	})

	log.Printf("API: Batch created: %s (ID: %s)", batch.BatchName, batch.BatchID)
	respondWithJSON(w, http.StatusCreated, batch)
}

// ListBatchesHandler lists batches, optionally filtered by ?status=.
// GET /api/v1/batches
func (h *APIHandler) ListBatchesHandler(w http.ResponseWriter, r *http.Request) {
	filters := make(map[string]string)
	if status := r.URL.Query().Get("status"); status != "" {
		filters["status"] = status
	}

	list, err := h.BatchStore.ListBatches(filters)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list batches: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// GetBatchHandler returns one batch by ID.
// GET /api/v1/batches/{batchId}
func (h *APIHandler) GetBatchHandler(w http.ResponseWriter, r *http.Request) {
	batchID := mux.Vars(r)["batchId"]
	batch, err := h.BatchStore.GetBatch(batchID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Batch not found: "+batchID)
		return
	}
	respondWithJSON(w, http.StatusOK, batch)
}

// DeleteBatchHandler deletes a batch and its items.
// DELETE /api/v1/batches/{batchId}
func (h *APIHandler) DeleteBatchHandler(w http.ResponseWriter, r *http.Request) {
	batchID := mux.Vars(r)["batchId"]
	if _, err := h.BatchStore.GetBatch(batchID); err != nil {
		respondWithError(w, http.StatusNotFound, "Batch not found: "+batchID)
		return
	}
	if err := h.BatchStore.DeleteBatch(batchID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to delete batch: "+err.Error())
		return
	}
	log.Printf("API: Batch deleted: %s", batchID)
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Batch deleted successfully", "batchId": batchID})
}

// UploadBatchURLsHandler adds URLs to a batch from an uploaded file
// (multipart field "file") or from a raw text body, one URL per line. Blank
// lines are skipped. Re-uploading a URL that is already in the batch replaces
// it in place.
// POST /api/v1/batches/{batchId}/urls
func (h *APIHandler) UploadBatchURLsHandler(w http.ResponseWriter, r *http.Request) {
	batchID := mux.Vars(r)["batchId"]
	batch, err := h.BatchStore.GetBatch(batchID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Batch not found: "+batchID)
		return
	}

	var (
		scanner  *bufio.Scanner
		filename string
	)
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			respondWithError(w, http.StatusBadRequest, "Failed to parse multipart form: "+err.Error())
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Missing 'file' in multipart form: "+err.Error())
			return
		}
		defer file.Close()
		filename = header.Filename
		scanner = bufio.NewScanner(file)
	} else {
		scanner = bufio.NewScanner(http.MaxBytesReader(w, r.Body, maxUploadSize))
		defer r.Body.Close()
	}

	now := time.Now()
	var items []*batches.BatchItem
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		items = append(items, &batches.BatchItem{
			URL:     line,
			Status:  batches.StatusPending,
			AddedAt: now,
		})
	}
	if err := scanner.Err(); err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read URL list: "+err.Error())
		return
	}
	if len(items) == 0 {
		respondWithError(w, http.StatusBadRequest, "No URLs found in upload")
		return
	}

	if err := h.BatchStore.AddBatchItems(batchID, items); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to add URLs: "+err.Error())
		return
	}

	allItems, err := h.BatchStore.GetBatchItems(batchID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to read back batch items: "+err.Error())
		return
	}
	batch.TotalURLs = len(allItems)
	batch.UpdatedAt = now
	batch.UploadHistory = append(batch.UploadHistory, batches.UploadEvent{
		Filename:   filename,
		URLCount:   len(items),
		UploadedAt: now,
	})
	if err := h.BatchStore.UpdateBatch(batch); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update batch: "+err.Error())
		return
	}
	h.BatchStore.LogEvent(batchID, batches.BatchEvent{
		Timestamp:   now,
		Action:      "URLs Uploaded",
		Description: fmt.Sprintf("%d URLs uploaded (batch now has %d).", len(items), batch.TotalURLs),
	})

	log.Printf("API: %d URLs uploaded to batch %s (total %d).", len(items), batchID, batch.TotalURLs)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "URLs uploaded successfully",
		"batchId":   batchID,
		"uploaded":  len(items),
		"totalUrls": batch.TotalURLs,
	})
}

// RunBatchHandler runs the two-tier check over every pending item in the
// batch, in upload order, synchronously. Items that already completed in a
// previous run keep their results.
// POST /api/v1/batches/{batchId}/run
func (h *APIHandler) RunBatchHandler(w http.ResponseWriter, r *http.Request) {
	batchID := mux.Vars(r)["batchId"]
	batch, err := h.BatchStore.GetBatch(batchID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Batch not found: "+batchID)
		return
	}
	if batch.Status == batches.StatusRunning {
		respondWithError(w, http.StatusConflict, "Batch is already running")
		return
	}

	items, err := h.BatchStore.GetBatchItems(batchID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to read batch items: "+err.Error())
		return
	}
	if len(items) == 0 {
		respondWithError(w, http.StatusBadRequest, "Batch has no URLs to check")
		return
	}

	batch.Status = batches.StatusRunning
	batch.UpdatedAt = time.Now()
	if err := h.BatchStore.UpdateBatch(batch); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update batch: "+err.Error())
		return
	}
	h.BatchStore.LogEvent(batchID, batches.BatchEvent{
		Timestamp:   time.Now(),
		Action:      "Run Started",
		Description: fmt.Sprintf("Checking %d URLs.", len(items)),
	})

	svc, _, _ := h.newCheckService()
	log.Printf("API: Batch %s run started over %d items.", batchID, len(items))

	processed := 0
	errored := 0
	for _, item := range items {
		if item.Status == batches.StatusCompleted && item.Result != nil {
			processed++
			continue
		}
		result := svc.CheckURL(r.Context(), item.URL, nil)
		item.Result = &result
		if result.Outcome == checker.OutcomeError {
			item.Status = batches.StatusError
			errored++
		} else {
			item.Status = batches.StatusCompleted
		}
		if err := h.BatchStore.UpdateBatchItem(batchID, item.URL, item); err != nil {
			log.Printf("API Error: RunBatchHandler - Failed to persist item %s in batch %s: %v", item.URL, batchID, err)
		}
		processed++

		batch.ProcessedURLs = processed
		batch.Progress = float64(processed) / float64(len(items)) * 100.0
		batch.UpdatedAt = time.Now()
		if err := h.BatchStore.UpdateBatch(batch); err != nil {
			log.Printf("API Error: RunBatchHandler - Failed to update progress for batch %s: %v", batchID, err)
		}
	}

	batch.Status = batches.StatusCompleted
	batch.ProcessedURLs = processed
	batch.Progress = 100.0
	batch.UpdatedAt = time.Now()
	if err := h.BatchStore.UpdateBatch(batch); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to finalize batch: "+err.Error())
		return
	}
	h.BatchStore.LogEvent(batchID, batches.BatchEvent{
		Timestamp:   time.Now(),
		Action:      "Run Completed",
		Description: fmt.Sprintf("%d URLs checked, %d errored.", processed, errored),
	})

	log.Printf("API: Batch %s run completed: %d checked, %d errored.", batchID, processed, errored)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"batchId":   batchID,
		"status":    batch.Status,
		"processed": processed,
		"errored":   errored,
	})
}

// GetBatchResultsHandler returns the batch's items with their results, in
// upload order.
// GET /api/v1/batches/{batchId}/results
func (h *APIHandler) GetBatchResultsHandler(w http.ResponseWriter, r *http.Request) {
	batchID := mux.Vars(r)["batchId"]
	if _, err := h.BatchStore.GetBatch(batchID); err != nil {
		respondWithError(w, http.StatusNotFound, "Batch not found: "+batchID)
		return
	}
	items, err := h.BatchStore.GetBatchItems(batchID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to read batch items: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"batchId": batchID,
		"items":   items,
	})
}

// ExportBatchHandler streams the batch's results as a CSV download. Items
// without a result yet are exported with their URL and empty columns.
// GET /api/v1/batches/{batchId}/export
func (h *APIHandler) ExportBatchHandler(w http.ResponseWriter, r *http.Request) {
	batchID := mux.Vars(r)["batchId"]
	if _, err := h.BatchStore.GetBatch(batchID); err != nil {
		respondWithError(w, http.StatusNotFound, "Batch not found: "+batchID)
		return
	}
	items, err := h.BatchStore.GetBatchItems(batchID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to read batch items: "+err.Error())
		return
	}

	results := make([]checker.CheckResult, 0, len(items))
	for _, item := range items {
		if item.Result != nil {
			results = append(results, *item.Result)
		} else {
			results = append(results, checker.CheckResult{URL: item.URL})
		}
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.DefaultFilename))
	w.WriteHeader(http.StatusOK)
	if err := export.WriteResults(w, results); err != nil {
		log.Printf("API Error: ExportBatchHandler - CSV write for batch %s failed: %v", batchID, err)
	}
}
