package memorystore

import (
	"fmt"
	"sync"
	"time"

	"github.com/urlstatus/checkflow/backend/internal/batches"
)

// InMemoryBatchStore provides an in-memory implementation of the BatchStore
// interface. Items are kept in insertion order; the index map gives O(1)
// lookup by URL for updates.
type InMemoryBatchStore struct {
	mu        sync.RWMutex
	batches   map[string]*batches.Batch
	items     map[string][]*batches.BatchItem
	itemIndex map[string]map[string]int // batchID -> URL -> position in items slice
}

func NewInMemoryBatchStore() *InMemoryBatchStore {
	return &InMemoryBatchStore{
		batches:   make(map[string]*batches.Batch),
		items:     make(map[string][]*batches.BatchItem),
		itemIndex: make(map[string]map[string]int),
	}
}

func (s *InMemoryBatchStore) CreateBatch(batch *batches.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.batches[batch.BatchID]; exists {
		return fmt.Errorf("batch with ID %s already exists", batch.BatchID)
	}
	if batch.History == nil {
		batch.History = []batches.BatchEvent{}
	}
	s.batches[batch.BatchID] = batch
	s.items[batch.BatchID] = []*batches.BatchItem{}
	s.itemIndex[batch.BatchID] = make(map[string]int)
	return nil
}

func (s *InMemoryBatchStore) GetBatch(batchID string) (*batches.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, exists := s.batches[batchID]
	if !exists {
		return nil, fmt.Errorf("batch with ID %s not found", batchID)
	}
	return batch, nil
}

func (s *InMemoryBatchStore) UpdateBatch(batch *batches.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.batches[batch.BatchID]; !exists {
		return fmt.Errorf("batch with ID %s not found for update", batch.BatchID)
	}
	s.batches[batch.BatchID] = batch
	return nil
}

func (s *InMemoryBatchStore) DeleteBatch(batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.batches[batchID]; !exists {
		return fmt.Errorf("batch with ID %s not found for delete", batchID)
	}
	delete(s.batches, batchID)
	delete(s.items, batchID)
	delete(s.itemIndex, batchID)
	return nil
}

func (s *InMemoryBatchStore) ListBatches(filters map[string]string) ([]*batches.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*batches.Batch{}
	for _, batch := range s.batches {
		if statusFilter, ok := filters["status"]; ok && string(batch.Status) != statusFilter {
			continue
		}
		result = append(result, batch)
	}
	return result, nil
}

func (s *InMemoryBatchStore) AddBatchItems(batchID string, newItems []*batches.BatchItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.batches[batchID]; !exists {
		return fmt.Errorf("batch with ID %s not found", batchID)
	}
	if s.itemIndex[batchID] == nil {
		s.itemIndex[batchID] = make(map[string]int)
	}
	for _, item := range newItems {
		if pos, seen := s.itemIndex[batchID][item.URL]; seen {
			s.items[batchID][pos] = item
			continue
		}
		s.itemIndex[batchID][item.URL] = len(s.items[batchID])
		s.items[batchID] = append(s.items[batchID], item)
	}
	return nil
}

func (s *InMemoryBatchStore) UpdateBatchItem(batchID string, itemURL string, item *batches.BatchItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.batches[batchID]; !exists {
		return fmt.Errorf("batch with ID %s not found", batchID)
	}
	index, indexExists := s.itemIndex[batchID]
	if !indexExists {
		return fmt.Errorf("item index not initialized for batch %s", batchID)
	}
	pos, itemExists := index[itemURL]
	if !itemExists {
		return fmt.Errorf("URL %s not found in batch %s", itemURL, batchID)
	}
	s.items[batchID][pos] = item
	return nil
}

func (s *InMemoryBatchStore) GetBatchItems(batchID string) ([]*batches.BatchItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.batches[batchID]; !exists {
		return nil, fmt.Errorf("batch with ID %s not found", batchID)
	}
	stored := s.items[batchID]
	result := make([]*batches.BatchItem, len(stored))
	copy(result, stored)
	return result, nil
}

func (s *InMemoryBatchStore) LogEvent(batchID string, event batches.BatchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, exists := s.batches[batchID]
	if !exists {
		return fmt.Errorf("batch with ID %s not found for event logging", batchID)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	batch.History = append(batch.History, event)
	return nil
}

// Ensure InMemoryBatchStore implements the BatchStore interface.
var _ batches.BatchStore = (*InMemoryBatchStore)(nil)
