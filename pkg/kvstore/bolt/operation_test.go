package bolt

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T) *Bolt {
	client, err := NewClient(&Config{
		Path:   filepath.Join(t.TempDir(), "drafts.bolt"),
		Bucket: "drafts",
	})
	assert.Nil(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestBolt_SetGetRemove(t *testing.T) {
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

func TestBolt_KeysSortedByBucketOrder(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	assert.Nil(t, client.Set(ctx, "draft:2:b", "y"))
	assert.Nil(t, client.Set(ctx, "draft:1:a", "x"))

	keys, err := client.Keys(ctx)
	assert.Nil(t, err)
	// bbolt 按字节序遍历
	// bbolt iterates in byte order
	assert.Equal(t, []string{"draft:1:a", "draft:2:b"}, keys)
}

func TestBolt_ValueSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drafts.bolt")
	ctx := context.Background()

	client, err := NewClient(&Config{Path: path, Bucket: "drafts"})
	assert.Nil(t, err)
	assert.Nil(t, client.Set(ctx, "draft:1:a", "persisted"))
	assert.Nil(t, client.Close())

	reopened, err := NewClient(&Config{Path: path, Bucket: "drafts"})
	assert.Nil(t, err)
	defer reopened.Close()

	value, err := reopened.Get(ctx, "draft:1:a")
	assert.Nil(t, err)
	assert.Equal(t, "persisted", value)
}
