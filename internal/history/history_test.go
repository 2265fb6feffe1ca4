package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arxplain/internal/db"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())
	return NewStore(database)
}

func TestRunLifecycle(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	id, err := store.StartRun(ctx, "transformer")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	run, err := store.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "transformer", run.Term)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Nil(t, run.FinishedAt)

	require.NoError(t, store.FinishRun(ctx, id, "A transformer is...", 7))

	run, err = store.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, run.Status)
	assert.Equal(t, "A transformer is...", run.Explanation)
	assert.Equal(t, 7, run.EventCount)
	require.NotNil(t, run.FinishedAt)
}

func TestFailRun(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	id, err := store.StartRun(ctx, "bert")
	require.NoError(t, err)
	require.NoError(t, store.FailRun(ctx, id, "upstream 529", 2))

	run, err := store.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusError, run.Status)
	assert.Equal(t, "upstream 529", run.Error)
}

func TestListRunsNewestFirst(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for _, term := range []string{"a", "b", "c"} {
		_, err := store.StartRun(ctx, term)
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetRunNotFound(t *testing.T) {
	store := newStore(t)
	_, err := store.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
