package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesOptions(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("s3cret")

	_, err := New(context.Background(), mr.Addr())
	assert.Error(t, err)

	client, err := New(context.Background(), mr.Addr(), WithPassword("s3cret"), WithDB(2))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.Equal(t, "v", mustGet(t, mr, 2, "k"))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, db int, key string) string {
	t.Helper()
	v, err := mr.DB(db).Get(key)
	require.NoError(t, err)
	return v
}
