package autosave

import (
	"context"
	"testing"
	"time"

	"github.com/haierkeys/draft-sync-service/pkg/clockx"
	"github.com/haierkeys/draft-sync-service/pkg/timex"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) (*Manager, *failStore, *clockx.Fake) {
	t.Helper()
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	m := NewManager(nil, store, clock, zap.NewNop())
	return m, store, clock
}

func TestManagerAcquireCreatesOnce(t *testing.T) {
	m, _, _ := newTestManager(t)
	defer m.Shutdown(context.Background())

	a, err := m.Acquire(context.Background(), "draft:1:a")
	assert.NoError(t, err)
	b, err := m.Acquire(context.Background(), "draft:1:a")
	assert.NoError(t, err)

	// 同一键返回同一控制器实例
	assert.Same(t, a, b)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, int64(1), m.Stats().Sessions.Load())
}

func TestManagerAcquireLoadsStoredRecord(t *testing.T) {
	m, store, _ := newTestManager(t)
	defer m.Shutdown(context.Background())

	value, err := EncodeRecord(Record{Title: "kept", Content: "body", SavedAt: timex.Time(testStart)})
	assert.NoError(t, err)
	assert.NoError(t, store.Set(context.Background(), "draft:1:kept", value))

	c, err := m.Acquire(context.Background(), "draft:1:kept")
	assert.NoError(t, err)

	snap := c.Snapshot()
	assert.Equal(t, StatusSaved, snap.Status)
	assert.Equal(t, "kept", snap.Document.Title)
}

func TestManagerPeek(t *testing.T) {
	m, _, _ := newTestManager(t)
	defer m.Shutdown(context.Background())

	_, ok := m.Peek("draft:1:a")
	assert.False(t, ok)

	c, err := m.Acquire(context.Background(), "draft:1:a")
	assert.NoError(t, err)

	got, ok := m.Peek("draft:1:a")
	assert.True(t, ok)
	assert.Same(t, c, got)
}

func TestManagerDiscard(t *testing.T) {
	m, store, clock := newTestManager(t)
	defer m.Shutdown(context.Background())

	c, err := m.Acquire(context.Background(), "draft:1:a")
	assert.NoError(t, err)
	c.Edit(Document{Title: "A"})
	clock.Advance(DefaultDebounceInterval + DefaultFeedbackDelay)

	m.Discard("draft:1:a")

	_, ok := m.Peek("draft:1:a")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
	// 存储条目保留，Discard 只丢会话
	assert.Equal(t, 1, store.Len())
}

func TestManagerIdleCleanup(t *testing.T) {
	m, _, clock := newTestManager(t)
	defer m.Shutdown(context.Background())

	c, err := m.Acquire(context.Background(), "draft:1:a")
	assert.NoError(t, err)
	c.Edit(Document{Title: "A"})

	// 标记为早已闲置
	v, ok := m.sessions.Load("draft:1:a")
	assert.True(t, ok)
	v.(*session).lastUsed.Store(clock.Now().Add(-time.Hour).UnixNano())

	// 脏会话不回收
	assert.Equal(t, 0, m.CleanupIdle())
	assert.Equal(t, 1, m.Len())

	// 落盘后的干净会话被回收
	clock.Advance(DefaultDebounceInterval + DefaultFeedbackDelay)
	v.(*session).lastUsed.Store(clock.Now().Add(-time.Hour).UnixNano())
	assert.Equal(t, 1, m.CleanupIdle())
	assert.Equal(t, 0, m.Len())
}

func TestManagerShutdownFlushesDirty(t *testing.T) {
	m, store, _ := newTestManager(t)

	c, err := m.Acquire(context.Background(), "draft:1:a")
	assert.NoError(t, err)
	c.Edit(Document{Title: "pending", Content: "flush me"})

	assert.NoError(t, m.Shutdown(context.Background()))

	// 未保存内容在关闭时落盘
	value, err := store.Get(context.Background(), "draft:1:a")
	assert.NoError(t, err)
	record, err := DecodeRecord("draft:1:a", value)
	assert.NoError(t, err)
	assert.Equal(t, "pending", record.Title)
	assert.Equal(t, int64(1), m.Stats().Saves.Load())
	assert.Equal(t, 0, m.Len())

	// 幂等，且关闭后拒绝新会话
	assert.NoError(t, m.Shutdown(context.Background()))
	_, err = m.Acquire(context.Background(), "draft:1:b")
	assert.ErrorIs(t, err, ErrManagerClosed)
}

func TestManagerCloseAllSkipsFlush(t *testing.T) {
	m, store, _ := newTestManager(t)
	defer m.Shutdown(context.Background())

	c, err := m.Acquire(context.Background(), "draft:1:a")
	assert.NoError(t, err)
	c.Edit(Document{Title: "dropped"})

	m.CloseAll()

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, store.Len())
}

func TestManagerRange(t *testing.T) {
	m, _, _ := newTestManager(t)
	defer m.Shutdown(context.Background())

	for _, key := range []string{"draft:1:a", "draft:1:b", "draft:2:a"} {
		_, err := m.Acquire(context.Background(), key)
		assert.NoError(t, err)
	}

	seen := map[string]bool{}
	m.Range(func(c *Controller) bool {
		seen[c.Key()] = true
		return true
	})
	assert.Len(t, seen, 3)
}

func TestManagerCountsDebounceResets(t *testing.T) {
	m, _, clock := newTestManager(t)
	defer m.Shutdown(context.Background())

	c, err := m.Acquire(context.Background(), "draft:1:a")
	assert.NoError(t, err)

	c.Edit(Document{Title: "A"})
	c.Edit(Document{Title: "AB"})
	c.Edit(Document{Title: "ABC"})
	clock.Advance(DefaultDebounceInterval + DefaultFeedbackDelay)

	// 三次编辑重置两次防抖，只落一次盘
	assert.Equal(t, int64(2), m.Stats().DebounceResets.Load())
	assert.Equal(t, int64(1), m.Stats().Saves.Load())
}
