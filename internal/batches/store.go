package batches

// BatchStore defines the storage operations for batch runs. Item order is
// significant: implementations must return items in the order they were
// added, which is the order they are checked and exported in.
type BatchStore interface {
	CreateBatch(batch *Batch) error
	GetBatch(batchID string) (*Batch, error)
	UpdateBatch(batch *Batch) error
	DeleteBatch(batchID string) error

	// ListBatches returns batches matching the filters (currently only
	// "status" is recognized).
	ListBatches(filters map[string]string) ([]*Batch, error)

	AddBatchItems(batchID string, items []*BatchItem) error
	UpdateBatchItem(batchID string, itemURL string, item *BatchItem) error
	GetBatchItems(batchID string) ([]*BatchItem, error)

	// LogEvent appends an event to the batch's history.
	LogEvent(batchID string, event BatchEvent) error
}
