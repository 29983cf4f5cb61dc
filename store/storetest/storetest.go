// Package storetest holds the behaviour every store.Driver must satisfy.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/store"
)

const (
	Requester = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	Payer     = "0x742d35cc6634c0532925a3b844bc9e7595f0beb0"
	OtherPay  = "0x1111111111111111111111111111111111111111"
)

func record(id, to, amount string, created time.Time) core.NotificationRecord {
	return core.NotificationRecord{
		ID:          id,
		From:        Requester,
		FromName:    "Alice",
		To:          to,
		Amount:      amount,
		TokenSymbol: core.TokenCUSD,
		Description: "Dinner",
		Status:      core.NotificationPending,
		CreatedAt:   created,
	}
}

// Run exercises driver through store.Store. The driver must be migrated
// and empty.
func Run(t *testing.T, driver store.Driver) {
	t.Helper()
	s := store.New(driver)
	ctx := context.Background()
	base := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

	latest, err := s.Latest(ctx, Payer)
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, s.Insert(ctx, []core.NotificationRecord{
		record("n1", Payer, "10", base),
		record("n2", Payer, "5.25", base.Add(time.Second)),
		record("n3", OtherPay, "7", base.Add(2*time.Second)),
	}))
	// Same instant as n2: insertion order decides.
	require.NoError(t, s.Insert(ctx, []core.NotificationRecord{
		record("n4", Payer, "1", base.Add(time.Second)),
	}))

	got, err := s.Get(ctx, "n2")
	require.NoError(t, err)
	assert.Equal(t, "n2", got.ID)
	assert.Equal(t, Requester, got.From)
	assert.Equal(t, "Alice", got.FromName)
	assert.Equal(t, Payer, got.To)
	assert.Equal(t, "5.25", got.Amount)
	assert.Equal(t, core.TokenCUSD, got.TokenSymbol)
	assert.Equal(t, "Dinner", got.Description)
	assert.Equal(t, core.NotificationPending, got.Status)
	assert.True(t, base.Add(time.Second).Equal(got.CreatedAt))

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	latest, err = s.Latest(ctx, Payer)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "n4", latest.ID)

	pending, err := s.Pending(ctx, Payer)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1", "n2", "n4"}, ids(pending))

	deleted, err := s.Delete(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(ctx, "n1")
	require.NoError(t, err)
	assert.False(t, deleted)

	pending, err = s.Pending(ctx, Payer)
	require.NoError(t, err)
	assert.Equal(t, []string{"n2", "n4"}, ids(pending))

	pending, err = s.Pending(ctx, OtherPay)
	require.NoError(t, err)
	assert.Equal(t, []string{"n3"}, ids(pending))

	// A duplicate id rejects the whole batch and leaves the stored record alone.
	err = s.Insert(ctx, []core.NotificationRecord{
		record("n5", Payer, "2", base),
		record("n3", Payer, "9999", base),
	})
	assert.Error(t, err, "duplicate ids must be rejected")
	got, err = s.Get(ctx, "n3")
	require.NoError(t, err)
	assert.Equal(t, "7", got.Amount)
	assert.Equal(t, OtherPay, got.To)
	_, err = s.Get(ctx, "n5")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func ids(list []core.NotificationRecord) []string {
	out := make([]string, len(list))
	for i, rec := range list {
		out[i] = rec.ID
	}
	return out
}
