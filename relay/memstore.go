package relay

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/derek2403/token2049/core"
)

// MemoryStore keeps notifications in process. It backs tests and
// single-process deployments without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]core.NotificationRecord
	seq     map[string]int
	next    int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]core.NotificationRecord),
		seq:     make(map[string]int),
	}
}

// Insert adds records atomically. An id that is already stored, or repeated
// within the batch, rejects the whole batch.
func (s *MemoryStore) Insert(_ context.Context, records []core.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if _, ok := s.records[rec.ID]; ok || seen[rec.ID] {
			return errors.Wrapf(core.ErrValidation, "notification %s already exists", rec.ID)
		}
		seen[rec.ID] = true
	}
	for _, rec := range records {
		s.records[rec.ID] = rec
		s.seq[rec.ID] = s.next
		s.next++
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*core.NotificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) Latest(ctx context.Context, recipient string) (*core.NotificationRecord, error) {
	pending, err := s.Pending(ctx, recipient)
	if err != nil || len(pending) == 0 {
		return nil, err
	}
	return &pending[len(pending)-1], nil
}

func (s *MemoryStore) Pending(_ context.Context, recipient string) ([]core.NotificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.NotificationRecord
	for _, rec := range s.records {
		if rec.To == recipient && rec.Status == core.NotificationPending {
			out = append(out, rec)
		}
	}
	// Insertion order breaks ties between records created in the same instant.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] < s.seq[out[j].ID]
	})
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	delete(s.seq, id)
	return true, nil
}
