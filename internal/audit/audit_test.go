package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldbooks-dev/fieldbooks/internal/store"
)

func TestAppendAndList(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, Append(ctx, s.DB(), Entry{
		OccurredAt: ts,
		Actor:      "bookkeeper",
		Action:     "reclassify",
		Entity:     "account",
		EntityID:   "a1",
		Reason:     "2024 chart correction",
		Detail:     "expense -> asset",
	}))
	require.NoError(t, Append(ctx, s.DB(), Entry{
		Action:   "deactivate",
		Entity:   "account",
		EntityID: "a1",
	}))
	require.NoError(t, Append(ctx, s.DB(), Entry{
		Action:   "void",
		Entity:   "journal_entry",
		EntityID: "j1",
	}))

	entries, err := ListForEntity(ctx, s.DB(), "account", "a1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "reclassify", entries[0].Action)
	assert.Equal(t, ts, entries[0].OccurredAt)
	assert.Equal(t, "2024 chart correction", entries[0].Reason)
	assert.Equal(t, "deactivate", entries[1].Action)
	assert.False(t, entries[1].OccurredAt.IsZero(), "default timestamp applied")
}
