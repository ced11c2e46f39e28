package checkpoint

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "checkpoint.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestStore_LoadMissing(t *testing.T) {
	st := newTestStore(t)

	c, err := st.Load(context.Background(), "plumbers", "Austin, TX")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestStore_SaveAndLoad(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, Cursor{
		Keyword: "plumbers", Location: "Austin, TX", NextPage: 3, PageBound: 7, RunID: "run-1",
	}))

	c, err := st.Load(ctx, "plumbers", "Austin, TX")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 3, c.NextPage)
	assert.Equal(t, 7, c.PageBound)
	assert.False(t, c.Done)
	assert.Equal(t, "run-1", c.RunID)
	assert.False(t, c.UpdatedAt.IsZero())
}

func TestStore_SaveUpserts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, Cursor{Keyword: "plumbers", Location: "Austin, TX", NextPage: 2, PageBound: 4}))
	require.NoError(t, st.Save(ctx, Cursor{Keyword: "plumbers", Location: "Austin, TX", NextPage: 5, PageBound: 4, Done: true}))

	c, err := st.Load(ctx, "plumbers", "Austin, TX")
	require.NoError(t, err)
	assert.Equal(t, 5, c.NextPage)
	assert.True(t, c.Done)
}

func TestStore_Reset(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, Cursor{Keyword: "plumbers", Location: "Austin, TX", NextPage: 2}))
	require.NoError(t, st.Save(ctx, Cursor{Keyword: "plumbers", Location: "Dallas, TX", NextPage: 2}))
	require.NoError(t, st.Save(ctx, Cursor{Keyword: "roofers", Location: "Austin, TX", NextPage: 2}))

	n, err := st.Reset(ctx, "plumbers")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	c, err := st.Load(ctx, "roofers", "Austin, TX")
	require.NoError(t, err)
	assert.NotNil(t, c)
}
