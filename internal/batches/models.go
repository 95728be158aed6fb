package batches

import (
	"time"

	"github.com/urlstatus/checkflow/backend/internal/checker"
)

// BatchStatus defines the possible statuses of a batch run or an item in it.
type BatchStatus string

const (
	StatusPending   BatchStatus = "pending"
	StatusRunning   BatchStatus = "running"
	StatusCompleted BatchStatus = "completed"
	StatusError     BatchStatus = "error"
)

// Batch is one named run over a list of URLs.
type Batch struct {
	BatchID       string        `json:"batchId"`
	BatchName     string        `json:"batchName"`
	Description   string        `json:"description,omitempty"`
	Status        BatchStatus   `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	Notes         string        `json:"notes,omitempty"`
	TotalURLs     int           `json:"totalUrls"`
	ProcessedURLs int           `json:"processedUrls"`
	Progress      float64       `json:"progress"` // 0.0 to 100.0
	History       []BatchEvent  `json:"history,omitempty"`
	UploadHistory []UploadEvent `json:"uploadHistory,omitempty"`
}

// BatchEvent records a significant event in a batch's lifecycle.
type BatchEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Action      string    `json:"action"`
	Description string    `json:"description,omitempty"`
}

// UploadEvent records a URL list upload into a batch.
type UploadEvent struct {
	Filename   string    `json:"filename,omitempty"`
	URLCount   int       `json:"urlCount"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// BatchItem is one URL in a batch. Result is set exactly once, when the
// item's check completes.
type BatchItem struct {
	URL     string               `json:"url"`
	Status  BatchStatus          `json:"status"`
	Result  *checker.CheckResult `json:"result,omitempty"`
	AddedAt time.Time            `json:"addedAt"`
}
