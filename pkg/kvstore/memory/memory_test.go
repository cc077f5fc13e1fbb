package memory

import (
	"context"
	"io/fs"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestMemory_SetGetRemove(t *testing.T) {
	client, err := NewClient()
	assert.Nil(t, err)
	ctx := context.Background()

	assert.Nil(t, client.Set(ctx, "draft:1:a", "value"))

	got, err := client.Get(ctx, "draft:1:a")
	assert.Nil(t, err)
	assert.Equal(t, "value", got)

	assert.Nil(t, client.Remove(ctx, "draft:1:a"))

	_, err = client.Get(ctx, "draft:1:a")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Equal(t, 0, client.Len())
}

func TestMemory_KeysSorted(t *testing.T) {
	client, _ := NewClient()
	ctx := context.Background()

	assert.Nil(t, client.Set(ctx, "b", "2"))
	assert.Nil(t, client.Set(ctx, "a", "1"))

	keys, err := client.Keys(ctx)
	assert.Nil(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestMemory_ConcurrentSet(t *testing.T) {
	client, _ := NewClient()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = client.Set(ctx, "draft:1:hot", "v")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, client.Len())
}

func TestMemory_SetAfterCloseFails(t *testing.T) {
	client, _ := NewClient()
	assert.Nil(t, client.Close())

	err := client.Set(context.Background(), "draft:1:a", "v")
	assert.NotNil(t, err)
}
