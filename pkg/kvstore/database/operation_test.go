package database

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T) *DB {
	client, err := NewClient(&Config{
		Type:         "sqlite",
		Path:         filepath.Join(t.TempDir(), "drafts.sqlite3"),
		MaxIdleConns: 2,
		MaxOpenConns: 4,
	})
	assert.Nil(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestDB_SetGetRemove(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	err := client.Set(ctx, "draft:1:hello", `{"title":"hello"}`)
	assert.Nil(t, err)

	value, err := client.Get(ctx, "draft:1:hello")
	assert.Nil(t, err)
	assert.Equal(t, `{"title":"hello"}`, value)

	err = client.Remove(ctx, "draft:1:hello")
	assert.Nil(t, err)

	_, err = client.Get(ctx, "draft:1:hello")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestDB_SetUpserts(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	assert.Nil(t, client.Set(ctx, "draft:1:a", "first"))
	assert.Nil(t, client.Set(ctx, "draft:1:a", "second"))

	value, err := client.Get(ctx, "draft:1:a")
	assert.Nil(t, err)
	assert.Equal(t, "second", value)

	keys, err := client.Keys(ctx)
	assert.Nil(t, err)
	assert.Equal(t, []string{"draft:1:a"}, keys)
}

func TestDB_KeysOrdered(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	assert.Nil(t, client.Set(ctx, "draft:2:b", "y"))
	assert.Nil(t, client.Set(ctx, "draft:1:a", "x"))

	keys, err := client.Keys(ctx)
	assert.Nil(t, err)
	assert.Equal(t, []string{"draft:1:a", "draft:2:b"}, keys)
}
