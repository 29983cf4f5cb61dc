package memory_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/memory"
	"github.com/derek2403/token2049/memory/embedder/hashing"
	"github.com/derek2403/token2049/memory/store/chromem"
)

const (
	alice = "0xAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaa"
	bob   = "0xBBBBbbbbBBBBbbbbBBBBbbbbBBBBbbbbBBBBbbbb"
)

func newManager(t *testing.T, cfg memory.Config) (*memory.SimpleManager, *chromem.Store) {
	t.Helper()
	store := chromem.New(nil)
	return memory.NewSimpleManager(store, hashing.New(), cfg, nil), store
}

func trace(action, input, observation string, success bool) *core.Trace {
	return &core.Trace{
		SessionID:   "session1",
		Action:      action,
		ActionInput: json.RawMessage(input),
		Observation: observation,
		Success:     success,
		Metadata:    map[string]string{"confirmed": "true"},
	}
}

func TestRecordAndRetrieve(t *testing.T) {
	ctx := context.Background()
	cfg := memory.DefaultConfig()
	cfg.MinSimilarity = 0.1
	m, _ := newManager(t, cfg)

	require.NoError(t, m.RecordTraces(ctx, alice, []*core.Trace{
		trace("transfer_funds", `{"destinationAddress":"carol","amount":"10","tokenSymbol":"cUSD"}`,
			"Transfer completed successfully", true),
		trace("stake_celo", `{"amount":"5"}`, "insufficient funds for gas", false),
	}))

	formatted, err := m.Retrieve(ctx, alice, "send 10 cUSD to carol")
	require.NoError(t, err)
	assert.Contains(t, formatted, "RELEVANT PAST ACTIONS")
	assert.Contains(t, formatted, "[Success] transfer_funds")
}

func TestRetrieveIsNamespacedByWallet(t *testing.T) {
	ctx := context.Background()
	cfg := memory.DefaultConfig()
	cfg.MinSimilarity = 0
	m, _ := newManager(t, cfg)

	require.NoError(t, m.RecordTraces(ctx, alice, []*core.Trace{
		trace("transfer_funds", `{"amount":"1"}`, "ok", true),
	}))

	formatted, err := m.Retrieve(ctx, bob, "transfer funds")
	require.NoError(t, err)
	assert.Empty(t, formatted)

	formatted, err = m.Retrieve(ctx, strings.ToLower(alice), "transfer funds")
	require.NoError(t, err)
	assert.NotEmpty(t, formatted)
}

func TestFailedTraceCarriesPrevention(t *testing.T) {
	ctx := context.Background()
	cfg := memory.DefaultConfig()
	cfg.MinSimilarity = 0
	m, _ := newManager(t, cfg)

	tr := trace("stake_celo", `{"amount":"500"}`, "insufficient funds", false)
	tr.Metadata["prevention"] = "Check balance before staking"
	require.NoError(t, m.RecordTraces(ctx, alice, []*core.Trace{tr}))

	formatted, err := m.Retrieve(ctx, alice, "stake 500 CELO")
	require.NoError(t, err)
	assert.Contains(t, formatted, "[Failed] stake_celo")
	assert.Contains(t, formatted, "Prevention: Check balance before staking")
}

func TestCancelledTracesAreNotStored(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, memory.DefaultConfig())

	tr := trace("transfer_funds", `{}`, "Transfer cancelled", false)
	tr.Metadata["status"] = "cancelled"
	require.NoError(t, m.RecordTraces(ctx, alice, []*core.Trace{tr, nil}))

	n, err := store.Count(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryCap(t *testing.T) {
	ctx := context.Background()
	cfg := memory.DefaultConfig()
	cfg.MaxMemoriesPerOwner = 1
	m, store := newManager(t, cfg)

	require.NoError(t, m.RecordTraces(ctx, alice, []*core.Trace{trace("transfer_funds", `{}`, "ok", true)}))
	require.NoError(t, m.RecordTraces(ctx, alice, []*core.Trace{trace("stake_celo", `{}`, "ok", true)}))

	n, err := store.Count(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDisabled(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, memory.Config{Enabled: false})

	require.NoError(t, m.RecordTraces(ctx, alice, []*core.Trace{trace("transfer_funds", `{}`, "ok", true)}))
	n, err := store.Count(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, n)

	formatted, err := m.Retrieve(ctx, alice, "anything")
	require.NoError(t, err)
	assert.Empty(t, formatted)
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding service unavailable")
}
func (failingEmbedder) Dimensions() int { return 0 }

func TestRetrieveEmbedFailure(t *testing.T) {
	m := memory.NewSimpleManager(chromem.New(nil), failingEmbedder{}, memory.DefaultConfig(), nil)
	_, err := m.Retrieve(context.Background(), alice, "hello")
	assert.ErrorContains(t, err, "embed query")

	// Recording skips traces that cannot be embedded.
	assert.NoError(t, m.RecordTraces(context.Background(), alice, []*core.Trace{trace("transfer_funds", `{}`, "ok", true)}))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := chromem.New(nil)
	mem := memory.NewActionMemory(alice, trace("transfer_funds", `{}`, "ok", true))
	vec, _ := hashing.New().Embed(ctx, mem.EmbeddingText())
	mem.SetEmbedding(vec)
	require.NoError(t, store.Store(ctx, mem))

	hits, err := store.Query(ctx, alice, vec, 5, 0.9)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, mem.ID(), hits[0].Memory.ID())
	assert.Equal(t, "session1", hits[0].Memory.SessionID())

	require.NoError(t, store.Delete(ctx, alice, mem.ID()))
	n, err := store.Count(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPersistentStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := chromem.NewPersistent(dir, nil)
	require.NoError(t, err)
	m := memory.NewSimpleManager(store, hashing.New(), memory.Config{Enabled: true}, nil)
	require.NoError(t, m.RecordTraces(ctx, alice, []*core.Trace{trace("transfer_funds", `{"amount":"3"}`, "ok", true)}))

	reopened, err := chromem.NewPersistent(dir, nil)
	require.NoError(t, err)
	n, err := reopened.Count(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
