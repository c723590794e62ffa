package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-matcher/internal/common/errors"
	"course-matcher/internal/storage"
)

func setupTestAdapter(t *testing.T) *Adapter {
	adapter, err := NewAdapter(&Config{
		DatabasePath: filepath.Join(t.TempDir(), "course_matches.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })
	return adapter
}

func intPtr(v int) *int {
	return &v
}

func TestAdapter_CreateAndGet(t *testing.T) {
	adapter := setupTestAdapter(t)
	ctx := context.Background()

	record := &storage.MatchRecord{
		University1: "Uni A",
		University2: "Uni B",
		MatchResult: "Both cover algorithms. Similarity: 80",
		Score:       intPtr(80),
	}
	require.NoError(t, adapter.CreateMatch(ctx, record))
	assert.NotZero(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())

	got, err := adapter.GetMatch(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, "Uni A", got.University1)
	assert.Equal(t, "Uni B", got.University2)
	assert.Equal(t, record.MatchResult, got.MatchResult)
	require.NotNil(t, got.Score)
	assert.Equal(t, 80, *got.Score)
	assert.WithinDuration(t, record.CreatedAt, got.CreatedAt, time.Millisecond)

	t.Run("missing score stays nil", func(t *testing.T) {
		noScore := &storage.MatchRecord{University1: "Uni A", University2: "Uni C", MatchResult: "Different"}
		require.NoError(t, adapter.CreateMatch(ctx, noScore))

		got, err := adapter.GetMatch(ctx, noScore.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Score)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := adapter.GetMatch(ctx, 9999)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
	})
}

func TestAdapter_ListMatches(t *testing.T) {
	adapter := setupTestAdapter(t)
	ctx := context.Background()

	pairs := [][2]string{
		{"Uni A", "Uni B"},
		{"Uni A", "Uni C"},
		{"Uni D", "Uni B"},
		{"Uni A", "Uni B"},
	}
	for i, pair := range pairs {
		require.NoError(t, adapter.CreateMatch(ctx, &storage.MatchRecord{
			University1: pair[0],
			University2: pair[1],
			MatchResult: fmt.Sprintf("result %d", i),
		}))
	}

	tests := []struct {
		name   string
		filter storage.MatchFilter
		want   []string
	}{
		{"all newest first", storage.MatchFilter{}, []string{"result 3", "result 2", "result 1", "result 0"}},
		{"by first university", storage.MatchFilter{University1: "Uni A"}, []string{"result 3", "result 1", "result 0"}},
		{"by second university", storage.MatchFilter{University2: "Uni B"}, []string{"result 3", "result 2", "result 0"}},
		{"by pair", storage.MatchFilter{University1: "Uni A", University2: "Uni B"}, []string{"result 3", "result 0"}},
		{"limit", storage.MatchFilter{Limit: 2}, []string{"result 3", "result 2"}},
		{"offset", storage.MatchFilter{Limit: 2, Offset: 2}, []string{"result 1", "result 0"}},
		{"no match", storage.MatchFilter{University1: "Uni Z"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := adapter.ListMatches(ctx, tt.filter)
			require.NoError(t, err)

			got := make([]string, 0, len(records))
			for _, r := range records {
				got = append(got, r.MatchResult)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdapter_UpdateAndDelete(t *testing.T) {
	adapter := setupTestAdapter(t)
	ctx := context.Background()

	record := &storage.MatchRecord{University1: "Uni A", University2: "Uni B", MatchResult: "old"}
	require.NoError(t, adapter.CreateMatch(ctx, record))

	updated, err := adapter.UpdateMatchResult(ctx, record.ID, "new verdict", intPtr(65))
	require.NoError(t, err)
	assert.Equal(t, "new verdict", updated.MatchResult)
	require.NotNil(t, updated.Score)
	assert.Equal(t, 65, *updated.Score)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	_, err = adapter.UpdateMatchResult(ctx, 9999, "x", nil)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))

	require.NoError(t, adapter.DeleteMatch(ctx, record.ID))

	_, err = adapter.GetMatch(ctx, record.ID)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))

	err = adapter.DeleteMatch(ctx, record.ID)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}

func TestAdapter_Lifecycle(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		_, err := NewAdapter(&Config{})
		assert.Error(t, err)
	})

	t.Run("data survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "matches.db")
		ctx := context.Background()

		adapter, err := NewAdapter(&Config{DatabasePath: path})
		require.NoError(t, err)
		record := &storage.MatchRecord{University1: "Uni A", University2: "Uni B", MatchResult: "kept"}
		require.NoError(t, adapter.CreateMatch(ctx, record))
		require.NoError(t, adapter.Health(ctx))
		require.NoError(t, adapter.Close())

		reopened, err := NewAdapter(&Config{DatabasePath: path})
		require.NoError(t, err)
		defer reopened.Close()

		got, err := reopened.GetMatch(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, "kept", got.MatchResult)
	})

	t.Run("registered with storage registry", func(t *testing.T) {
		assert.True(t, storage.DefaultRegistry.IsRegistered("sqlite"))

		store, err := storage.Create("sqlite", storage.GenericConfig{
			"type": "sqlite",
			"dsn":  filepath.Join(t.TempDir(), "registry.db"),
		})
		require.NoError(t, err)
		defer store.Close()
		assert.NoError(t, store.Health(context.Background()))
	})
}
