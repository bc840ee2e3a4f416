package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestJSON_roundTripAcrossRestart(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "store.json")
	r := newJSONRepo(path, zaptest.NewLogger(t))

	_, err := r.Get(ctx, "token")
	require.ErrorIs(err, ErrNotFound)

	require.NoError(r.Set(ctx, "token", "abc"))
	require.NoError(r.Set(ctx, "user", `{"id":1}`))

	reopened := newJSONRepo(path, zaptest.NewLogger(t))
	v, err := reopened.Get(ctx, "token")
	require.NoError(err)
	assert.Equal("abc", v)

	require.NoError(reopened.Remove(ctx, "token"))
	require.NoError(reopened.Remove(ctx, "token"))

	again := newJSONRepo(path, zaptest.NewLogger(t))
	_, err = again.Get(ctx, "token")
	assert.ErrorIs(err, ErrNotFound)
	v, err = again.Get(ctx, "user")
	require.NoError(err)
	assert.Equal(`{"id":1}`, v)
}

func TestJSON_corruptFileStartsEmpty(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(os.WriteFile(path, []byte("{not json"), 0o600))

	r := newJSONRepo(path, zaptest.NewLogger(t))
	_, err := r.Get(context.Background(), "token")
	require.ErrorIs(err, ErrNotFound)

	require.NoError(r.Set(context.Background(), "token", "t"))
}

func TestJSON_failedWriteKeepsPreviousValue(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	dir := filepath.Join(t.TempDir(), "gone")
	require.NoError(os.Mkdir(dir, 0o700))
	r := newJSONRepo(filepath.Join(dir, "store.json"), zaptest.NewLogger(t))
	require.NoError(os.Remove(dir))

	require.Error(r.Set(ctx, "token", "t"))
	_, err := r.Get(ctx, "token")
	require.ErrorIs(err, ErrNotFound)
}

func TestMemory(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	r := NewMemory()
	require.NoError(r.Set(ctx, "k", "v"))
	v, err := r.Get(ctx, "k")
	require.NoError(err)
	require.Equal("v", v)
	require.NoError(r.Remove(ctx, "k"))
	_, err = r.Get(ctx, "k")
	require.ErrorIs(err, ErrNotFound)
}
