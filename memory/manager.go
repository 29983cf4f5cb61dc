package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/derek2403/token2049/core"
)

// Config holds SimpleManager configuration.
type Config struct {
	// Enabled toggles memory on or off.
	Enabled bool

	// MinSimilarity is the lowest similarity a retrieved memory may have.
	MinSimilarity float32

	// Limit is the number of memories injected into the prompt.
	Limit int

	// MaxMemoriesPerOwner caps stored memories per wallet. New traces are
	// dropped once the cap is reached.
	MaxMemoriesPerOwner int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:             true,
		MinSimilarity:       0.3,
		Limit:               5,
		MaxMemoriesPerOwner: 1000,
	}
}

// SimpleManager embeds traces with an Embedder and keeps them in a Store.
type SimpleManager struct {
	store    Store
	embedder Embedder
	config   Config
	logger   *zap.Logger
}

// NewSimpleManager creates a manager. A nil logger disables logging.
func NewSimpleManager(store Store, embedder Embedder, config Config, logger *zap.Logger) *SimpleManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Limit <= 0 {
		config.Limit = DefaultConfig().Limit
	}
	return &SimpleManager{
		store:    store,
		embedder: embedder,
		config:   config,
		logger:   logger.Named("memory"),
	}
}

// Retrieve finds memories relevant to message and formats them.
func (m *SimpleManager) Retrieve(ctx context.Context, owner, message string) (string, error) {
	if !m.config.Enabled || strings.TrimSpace(message) == "" {
		return "", nil
	}

	embedding, err := m.embedder.Embed(ctx, message)
	if err != nil {
		return "", errors.Wrap(err, "embed query")
	}

	hits, err := m.store.Query(ctx, owner, embedding, m.config.Limit, m.config.MinSimilarity)
	if err != nil {
		return "", errors.Wrap(err, "query store")
	}

	m.logger.Debug("retrieved memories",
		zap.String("owner", owner),
		zap.Int("count", len(hits)),
		zap.String("query", truncate(message, 50)))
	if len(hits) == 0 {
		return "", nil
	}
	return m.format(hits, owner, message), nil
}

// RecordTraces embeds and stores the traces worth keeping. Individual
// failures are logged and skipped.
func (m *SimpleManager) RecordTraces(ctx context.Context, owner string, traces []*core.Trace) error {
	if !m.config.Enabled {
		return nil
	}

	storable := filterStorable(traces)
	if len(storable) == 0 {
		return nil
	}

	if m.config.MaxMemoriesPerOwner > 0 {
		n, err := m.store.Count(ctx, owner)
		if err != nil {
			return errors.Wrap(err, "count memories")
		}
		if n >= m.config.MaxMemoriesPerOwner {
			m.logger.Warn("memory cap reached, dropping traces",
				zap.String("owner", owner),
				zap.Int("cap", m.config.MaxMemoriesPerOwner))
			return nil
		}
	}

	for i, trace := range storable {
		mem := NewActionMemory(owner, trace)

		embedding, err := m.embedder.Embed(ctx, mem.EmbeddingText())
		if err != nil {
			m.logger.Warn("embed trace failed", zap.Int("index", i), zap.Error(err))
			continue
		}
		mem.SetEmbedding(embedding)

		if err := m.store.Store(ctx, mem); err != nil {
			m.logger.Warn("store trace failed", zap.Int("index", i), zap.Error(err))
			continue
		}
		m.logger.Debug("stored trace", zap.String("owner", owner), zap.String("action", trace.Action))
	}
	return nil
}

func (m *SimpleManager) format(hits []Hit, owner, query string) string {
	parts := []string{"=== RELEVANT PAST ACTIONS ===\n"}

	maxLength := 2000 / len(hits)
	if maxLength < 100 {
		maxLength = 100
	}
	for i, hit := range hits {
		formatted := hit.Memory.Format(FormatContext{
			Owner:     owner,
			Query:     query,
			MaxLength: maxLength,
		})
		parts = append(parts, fmt.Sprintf("%d. %s\n", i+1, formatted))
	}
	return strings.Join(parts, "\n")
}

// filterStorable keeps executed actions and drops traces that never
// reached the chain, such as cancellations.
func filterStorable(traces []*core.Trace) []*core.Trace {
	var out []*core.Trace
	for _, t := range traces {
		if t == nil || t.Metadata["status"] == "cancelled" {
			continue
		}
		out = append(out, t)
	}
	return out
}
