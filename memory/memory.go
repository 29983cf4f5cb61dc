package memory

import (
	"context"
	"time"

	"github.com/derek2403/token2049/core"
)

// Memory is a single remembered item.
type Memory interface {
	ID() string
	OwnerID() string   // Wallet address (empty = global memory)
	SessionID() string // Chat session the memory came from
	Type() string      // Memory type identifier, e.g. "action"

	Content() interface{}
	Metadata() map[string]interface{}
	CreatedAt() time.Time

	// Format renders the memory for prompt injection.
	Format(ctx FormatContext) string
	Embedding() []float32
	SetEmbedding([]float32)
}

// FormatContext bounds how a memory is rendered.
type FormatContext struct {
	Owner     string
	Query     string
	MaxLength int
}

// Manager is what the engine talks to. The engine decides when to retrieve
// and record; the Manager decides what.
type Manager interface {
	// Retrieve returns a prompt-ready block of memories relevant to
	// message, or "" when nothing relevant is stored.
	Retrieve(ctx context.Context, owner, message string) (string, error)

	// RecordTraces stores the traces worth remembering.
	RecordTraces(ctx context.Context, owner string, traces []*core.Trace) error
}

// Hit is a memory returned from a similarity query.
type Hit struct {
	Memory     Memory
	Similarity float32
}

// Store is the vector storage backend.
type Store interface {
	// Store saves a memory. Its embedding must already be set.
	Store(ctx context.Context, mem Memory) error

	// Query returns up to limit memories of owner with similarity of at
	// least minSimilarity, most similar first.
	Query(ctx context.Context, owner string, embedding []float32, limit int, minSimilarity float32) ([]Hit, error)

	// Count returns how many memories owner has.
	Count(ctx context.Context, owner string) (int, error)

	// Delete removes a memory permanently.
	Delete(ctx context.Context, owner, memoryID string) error

	Close() error
}

// Embedder converts text to vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
