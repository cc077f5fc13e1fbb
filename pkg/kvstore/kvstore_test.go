package kvstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/haierkeys/draft-sync-service/pkg/kvstore"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore/bolt"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore/local_fs"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore/memory"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNewClient_Memory(t *testing.T) {
	client, err := kvstore.NewClient(&kvstore.Config{Type: kvstore.Memory})
	assert.Nil(t, err)

	if _, ok := client.(*memory.Memory); !ok {
		t.Fatal("Client is not *memory.Memory")
	}
}

func TestNewClient_LocalFS(t *testing.T) {
	client, err := kvstore.NewClient(&kvstore.Config{
		Type:     kvstore.LocalFS,
		SavePath: t.TempDir(),
		Prefix:   "drafts",
	})
	assert.Nil(t, err)

	if _, ok := client.(*local_fs.LocalFS); !ok {
		t.Fatal("Client is not *local_fs.LocalFS")
	}
}

func TestNewClient_Bolt(t *testing.T) {
	client, err := kvstore.NewClient(&kvstore.Config{
		Type:   kvstore.Bolt,
		Path:   filepath.Join(t.TempDir(), "drafts.bolt"),
		Prefix: "drafts",
	})
	assert.Nil(t, err)
	defer client.Close()

	if _, ok := client.(*bolt.Bolt); !ok {
		t.Fatal("Client is not *bolt.Bolt")
	}
}

func TestNewClient_Invalid(t *testing.T) {
	_, err := kvstore.NewClient(&kvstore.Config{Type: "invalid"})
	assert.NotNil(t, err)

	_, err = kvstore.NewClient(nil)
	assert.NotNil(t, err)
}

// Get 未命中统一返回可用 errors.Is 匹配的 ErrNotExist
// every backend reports misses as ErrNotExist matchable with errors.Is
func TestErrNotExist_AcrossBackends(t *testing.T) {
	ctx := context.Background()

	stores := map[string]kvstore.Store{}

	mem, err := kvstore.NewClient(&kvstore.Config{Type: kvstore.Memory})
	assert.Nil(t, err)
	stores["memory"] = mem

	localFS, err := kvstore.NewClient(&kvstore.Config{
		Type:     kvstore.LocalFS,
		SavePath: t.TempDir(),
	})
	assert.Nil(t, err)
	stores["localfs"] = localFS

	boltStore, err := kvstore.NewClient(&kvstore.Config{
		Type: kvstore.Bolt,
		Path: filepath.Join(t.TempDir(), "drafts.bolt"),
	})
	assert.Nil(t, err)
	defer boltStore.Close()
	stores["bolt"] = boltStore

	for name, store := range stores {
		_, err := store.Get(ctx, "draft:1:absent")
		assert.True(t, errors.Is(err, kvstore.ErrNotExist), "backend %s", name)
	}
}
