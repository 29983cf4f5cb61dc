// Package chromem stores memories in an embedded chromem-go database.
package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/derek2403/token2049/memory"
)

// Store keeps one chromem collection per wallet.
type Store struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
	logger      *zap.Logger
}

// New creates an in-memory store.
func New(logger *zap.Logger) *Store {
	return newStore(chromem.NewDB(), logger)
}

// NewPersistent creates a store persisted under dir.
func NewPersistent(dir string, logger *zap.Logger) (*Store, error) {
	db, err := chromem.NewPersistentDB(dir, true)
	if err != nil {
		return nil, errors.Wrapf(err, "open chromem db at %s", dir)
	}
	return newStore(db, logger), nil
}

func newStore(db *chromem.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:          db,
		collections: make(map[string]*chromem.Collection),
		logger:      logger.Named("chromem"),
	}
}

func collectionName(owner string) string {
	if owner == "" {
		return "global"
	}
	return "wallet_" + strings.ToLower(owner)
}

func (s *Store) collection(owner string) (*chromem.Collection, error) {
	key := strings.ToLower(owner)
	s.mu.RLock()
	col, ok := s.collections[key]
	s.mu.RUnlock()
	if ok {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[key]; ok {
		return col, nil
	}

	// Embeddings are always supplied by the manager, so no embedding func.
	col, err := s.db.GetOrCreateCollection(collectionName(owner), nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create collection")
	}
	s.collections[key] = col
	return col, nil
}

// Store saves mem.
func (s *Store) Store(ctx context.Context, mem memory.Memory) error {
	if len(mem.Embedding()) == 0 {
		return errors.Errorf("memory %s has no embedding", mem.ID())
	}
	col, err := s.collection(mem.OwnerID())
	if err != nil {
		return err
	}

	content, metadata, err := serialize(mem)
	if err != nil {
		return err
	}
	err = col.AddDocument(ctx, chromem.Document{
		ID:        mem.ID(),
		Content:   content,
		Embedding: mem.Embedding(),
		Metadata:  metadata,
	})
	if err != nil {
		return errors.Wrap(err, "add document")
	}
	s.logger.Debug("stored memory", zap.String("id", mem.ID()), zap.String("owner", mem.OwnerID()))
	return nil
}

// Query returns owner's memories most similar to embedding.
func (s *Store) Query(ctx context.Context, owner string, embedding []float32, limit int, minSimilarity float32) ([]memory.Hit, error) {
	col, err := s.collection(owner)
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection.
	n := col.Count()
	if limit > n {
		limit = n
	}
	if limit <= 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, embedding, limit, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "chromem query")
	}

	var hits []memory.Hit
	for _, r := range results {
		if r.Similarity < minSimilarity {
			continue
		}
		mem, err := deserialize(r)
		if err != nil {
			s.logger.Warn("skipping unreadable memory", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		hits = append(hits, memory.Hit{Memory: mem, Similarity: r.Similarity})
	}
	return hits, nil
}

// Count returns the number of memories stored for owner.
func (s *Store) Count(_ context.Context, owner string) (int, error) {
	col, err := s.collection(owner)
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

// Delete removes a memory.
func (s *Store) Delete(ctx context.Context, owner, memoryID string) error {
	col, err := s.collection(owner)
	if err != nil {
		return err
	}
	if err := col.Delete(ctx, nil, nil, memoryID); err != nil {
		return errors.Wrapf(err, "delete memory %s", memoryID)
	}
	return nil
}

// Close is a no-op; persistent databases write through on every change.
func (s *Store) Close() error {
	return nil
}

const (
	metaType      = "type"
	metaOwner     = "owner_id"
	metaSession   = "session_id"
	metaCreatedAt = "created_at"
)

func serialize(mem memory.Memory) (string, map[string]string, error) {
	content, err := json.Marshal(mem.Content())
	if err != nil {
		return "", nil, errors.Wrap(err, "marshal content")
	}

	metadata := map[string]string{
		metaType:      mem.Type(),
		metaOwner:     mem.OwnerID(),
		metaSession:   mem.SessionID(),
		metaCreatedAt: mem.CreatedAt().UTC().Format(time.RFC3339),
	}
	for k, v := range mem.Metadata() {
		if str, ok := v.(string); ok {
			metadata[k] = str
		} else if b, err := json.Marshal(v); err == nil {
			metadata[k] = string(b)
		}
	}
	return string(content), metadata, nil
}

func deserialize(r chromem.Result) (memory.Memory, error) {
	switch t := r.Metadata[metaType]; t {
	case "action":
		var content struct {
			Action      string `json:"action"`
			Input       string `json:"input"`
			Observation string `json:"observation"`
			Success     bool   `json:"success"`
		}
		if err := json.Unmarshal([]byte(r.Content), &content); err != nil {
			return nil, errors.Wrap(err, "unmarshal content")
		}
		createdAt, _ := time.Parse(time.RFC3339, r.Metadata[metaCreatedAt])

		metadata := make(map[string]interface{})
		for k, v := range r.Metadata {
			switch k {
			case metaType, metaOwner, metaSession, metaCreatedAt:
			default:
				metadata[k] = v
			}
		}
		return memory.RestoreActionMemory(
			r.ID,
			r.Metadata[metaOwner],
			r.Metadata[metaSession],
			createdAt,
			r.Embedding,
			content.Action,
			content.Input,
			content.Observation,
			content.Success,
			metadata,
		), nil
	default:
		return nil, fmt.Errorf("unknown memory type %q", t)
	}
}
