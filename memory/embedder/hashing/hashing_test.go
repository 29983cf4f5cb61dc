package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestEmbedIsDeterministicAndNormalized(t *testing.T) {
	e := New()
	a, err := e.Embed(context.Background(), "Transfer 10 cUSD to Alice")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "transfer 10 CUSD to alice")
	require.NoError(t, err)

	assert.Len(t, a, DefaultDimensions)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, math.Sqrt(cosine(a, a)), 1e-5)
}

func TestSharedWordsAreMoreSimilar(t *testing.T) {
	e := NewWithDimensions(256)
	ctx := context.Background()
	query, _ := e.Embed(ctx, "send cUSD to alice")
	near, _ := e.Embed(ctx, "transfer_funds alice cUSD 10")
	far, _ := e.Embed(ctx, "stake_celo 5 CELO")

	assert.Greater(t, cosine(query, near), cosine(query, far))
}

func TestEmptyText(t *testing.T) {
	v, err := New().Embed(context.Background(), "  ")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
}
