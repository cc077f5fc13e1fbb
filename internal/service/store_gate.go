package service

import (
	"context"

	"github.com/haierkeys/draft-sync-service/pkg/kvstore"
	"github.com/haierkeys/draft-sync-service/pkg/writequeue"
)

// gatedStore routes store writes through the per-user write queue so one
// client's saves stay FIFO while different clients write in parallel.
// Reads bypass the queue.
// gatedStore 将存储写操作路由到按用户隔离的写队列，同一客户端的保存
// 保持 FIFO，不同客户端并行写入，读操作不经过队列。
type gatedStore struct {
	store  kvstore.Store
	writes *writequeue.Manager
}

// NewGatedStore wraps store with the write queue. Keys outside the draft
// namespace serialize on a shared queue under uid 0.
// NewGatedStore 用写队列包装存储，草稿命名空间之外的键统一走 uid 0 的共享队列
func NewGatedStore(store kvstore.Store, writes *writequeue.Manager) kvstore.Store {
	if writes == nil {
		return store
	}
	return &gatedStore{store: store, writes: writes}
}

func (g *gatedStore) Get(ctx context.Context, key string) (string, error) {
	return g.store.Get(ctx, key)
}

func (g *gatedStore) Set(ctx context.Context, key string, value string) error {
	uid, _, _ := SplitDraftKey(key)
	return g.writes.Execute(ctx, uid, func() error {
		return g.store.Set(ctx, key, value)
	})
}

func (g *gatedStore) Remove(ctx context.Context, key string) error {
	uid, _, _ := SplitDraftKey(key)
	return g.writes.Execute(ctx, uid, func() error {
		return g.store.Remove(ctx, key)
	})
}

func (g *gatedStore) Keys(ctx context.Context) ([]string, error) {
	return g.store.Keys(ctx)
}

func (g *gatedStore) Close() error {
	return g.store.Close()
}

var _ kvstore.Store = (*gatedStore)(nil)
