package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/derek2403/token2049/store/storetest"
)

func TestDriver(t *testing.T) {
	d, err := NewDB(filepath.Join(t.TempDir(), "notifications.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, d.Migrate(context.Background()))

	storetest.Run(t, d)
}

func TestMigrateIsIdempotent(t *testing.T) {
	d, err := NewDB(filepath.Join(t.TempDir(), "notifications.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	require.NoError(t, d.Migrate(context.Background()))
	require.NoError(t, d.Migrate(context.Background()))
}
