package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-matcher/internal/common/errors"
	"course-matcher/internal/storage"
)

// setupTestAdapter connects to TEST_POSTGRES_URL and skips when it is unset
func setupTestAdapter(t *testing.T) *Adapter {
	url := os.Getenv("TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("TEST_POSTGRES_URL not set")
	}

	adapter, err := NewAdapter(&Config{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() {
		adapter.db.Exec("DELETE FROM course_matches WHERE university_1 LIKE 'test-%'")
		adapter.Close()
	})
	return adapter
}

func TestAdapter_CRUD(t *testing.T) {
	adapter := setupTestAdapter(t)
	ctx := context.Background()

	score := 70
	record := &storage.MatchRecord{
		University1: "test-uni-a",
		University2: "test-uni-b",
		MatchResult: "Similarity: 70",
		Score:       &score,
	}
	require.NoError(t, adapter.CreateMatch(ctx, record))
	assert.NotZero(t, record.ID)

	got, err := adapter.GetMatch(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "test-uni-a", got.University1)
	require.NotNil(t, got.Score)
	assert.Equal(t, 70, *got.Score)

	records, err := adapter.ListMatches(ctx, storage.MatchFilter{University1: "test-uni-a", University2: "test-uni-b"})
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, record.ID, records[0].ID)

	updated, err := adapter.UpdateMatchResult(ctx, record.ID, "revised", nil)
	require.NoError(t, err)
	assert.Equal(t, "revised", updated.MatchResult)
	assert.Nil(t, updated.Score)

	require.NoError(t, adapter.DeleteMatch(ctx, record.ID))
	_, err = adapter.GetMatch(ctx, record.ID)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))

	err = adapter.DeleteMatch(ctx, record.ID)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}
