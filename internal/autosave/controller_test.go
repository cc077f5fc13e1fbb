package autosave

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haierkeys/draft-sync-service/pkg/clockx"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore/memory"
	"github.com/haierkeys/draft-sync-service/pkg/timex"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testKey = "draft:1:scratch"

var testStart = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

// failStore 包装内存后端，可按需让单个操作失败
type failStore struct {
	*memory.Memory
	failGet    bool
	failSet    bool
	failRemove bool
	setCalls   int
}

func (s *failStore) Get(ctx context.Context, key string) (string, error) {
	if s.failGet {
		return "", errors.New("backend unavailable")
	}
	return s.Memory.Get(ctx, key)
}

func (s *failStore) Set(ctx context.Context, key string, value string) error {
	s.setCalls++
	if s.failSet {
		return errors.New("quota exceeded")
	}
	return s.Memory.Set(ctx, key, value)
}

func (s *failStore) Remove(ctx context.Context, key string) error {
	if s.failRemove {
		return errors.New("backend unavailable")
	}
	return s.Memory.Remove(ctx, key)
}

func newFailStore(t *testing.T) *failStore {
	t.Helper()
	mem, err := memory.NewClient()
	assert.NoError(t, err)
	return &failStore{Memory: mem}
}

func newTestController(t *testing.T, store kvstore.Store, clock clockx.Clock) *Controller {
	t.Helper()
	return NewController(context.Background(), testKey, store, clock, zap.NewNop(), Config{})
}

func TestInitializeEmptyStore(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)

	c := newTestController(t, store, clock)

	snap := c.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.True(t, snap.Document.IsEmpty())
	assert.True(t, snap.LastSavedAt.IsZero())
	assert.Equal(t, 0, clock.PendingCount())
}

func TestStatusSequenceOnSave(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	status := c.Edit(Document{Title: "A"})
	assert.Equal(t, StatusUnsaved, status)

	// 防抖窗口结束，写入完成，saving 状态保持到反馈延迟结束
	clock.Advance(DefaultDebounceInterval)
	assert.Equal(t, StatusSaving, c.Snapshot().Status)

	clock.Advance(DefaultFeedbackDelay)
	snap := c.Snapshot()
	assert.Equal(t, StatusSaved, snap.Status)
	assert.Equal(t, 1, store.setCalls)

	value, err := store.Get(context.Background(), testKey)
	assert.NoError(t, err)
	record, err := DecodeRecord(testKey, value)
	assert.NoError(t, err)
	assert.Equal(t, "A", record.Title)
	assert.Equal(t, "", record.Content)
	assert.WithinDuration(t, testStart.Add(DefaultDebounceInterval), record.SavedAt.Time(), 0)
	assert.WithinDuration(t, record.SavedAt.Time(), snap.LastSavedAt.Time(), 0)
}

func TestEditBurstSingleWrite(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	// 连续编辑，间隔都小于防抖窗口
	c.Edit(Document{Title: "A"})
	clock.Advance(500 * time.Millisecond)
	c.Edit(Document{Title: "AB"})
	clock.Advance(500 * time.Millisecond)
	c.Edit(Document{Title: "ABC", Content: "body"})

	clock.Advance(DefaultDebounceInterval + DefaultFeedbackDelay)

	assert.Equal(t, 1, store.setCalls)
	assert.Equal(t, StatusSaved, c.Snapshot().Status)

	value, err := store.Get(context.Background(), testKey)
	assert.NoError(t, err)
	record, err := DecodeRecord(testKey, value)
	assert.NoError(t, err)
	assert.Equal(t, "ABC", record.Title)
	assert.Equal(t, "body", record.Content)
}

func TestEditBlankKeepsIdle(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	status := c.Edit(Document{Title: "  ", Content: "\n\t"})

	assert.Equal(t, StatusIdle, status)
	assert.Equal(t, 0, clock.PendingCount())

	clock.Advance(10 * DefaultDebounceInterval)
	assert.Equal(t, 0, store.setCalls)
	assert.Equal(t, StatusIdle, c.Snapshot().Status)
}

func TestEditEmptyCancelsPendingSave(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	c.Edit(Document{Title: "A"})
	assert.Equal(t, 1, clock.PendingCount())

	// 清空文档后被取代的内容不得再落盘
	c.Edit(Document{})
	assert.Equal(t, 0, clock.PendingCount())

	clock.Advance(10 * DefaultDebounceInterval)
	assert.Equal(t, 0, store.setCalls)
	assert.Equal(t, StatusUnsaved, c.Snapshot().Status)
	assert.True(t, c.Snapshot().Document.IsEmpty())
}

func TestCloseCancelsPendingSave(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	c.Edit(Document{Title: "A"})
	c.Close()

	clock.Advance(time.Minute)
	assert.Equal(t, 0, store.setCalls)
	assert.Equal(t, 0, clock.PendingCount())
}

func TestCloseIdempotent(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	c.Close()
	c.Close()

	assert.ErrorIs(t, c.Save(context.Background()), ErrClosed)
	assert.ErrorIs(t, c.Clear(context.Background()), ErrClosed)

	status := c.Edit(Document{Title: "A"})
	assert.Equal(t, StatusIdle, status)
	assert.Equal(t, 0, clock.PendingCount())
	assert.True(t, c.Snapshot().Document.IsEmpty())
}

func TestInitializeRoundTrip(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)

	a := newTestController(t, store, clock)
	a.Edit(Document{Title: "draft", Content: "hello world"})
	clock.Advance(DefaultDebounceInterval + DefaultFeedbackDelay)
	a.Close()

	b := newTestController(t, store, clock)
	snap := b.Snapshot()
	assert.Equal(t, StatusSaved, snap.Status)
	assert.Equal(t, Document{Title: "draft", Content: "hello world"}, snap.Document)
	assert.WithinDuration(t, testStart.Add(DefaultDebounceInterval), snap.LastSavedAt.Time(), 0)
}

func TestInitializeCorruptedRecord(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	assert.NoError(t, store.Set(context.Background(), testKey, "{not json"))
	store.setCalls = 0

	c := newTestController(t, store, clock)

	snap := c.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.True(t, snap.Document.IsEmpty())
	assert.True(t, snap.LastSavedAt.IsZero())
}

func TestInitializeReadFailure(t *testing.T) {
	store := newFailStore(t)
	store.failGet = true
	clock := clockx.NewFake(testStart)

	c := newTestController(t, store, clock)

	snap := c.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.True(t, snap.Document.IsEmpty())
}

func TestInitializeStoredEmptyDocument(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	value, err := EncodeRecord(Record{Title: "  ", Content: "", SavedAt: timex.Time(testStart)})
	assert.NoError(t, err)
	assert.NoError(t, store.Set(context.Background(), testKey, value))

	c := newTestController(t, store, clock)

	// 存储的空文档等同于没有已保存数据
	snap := c.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.True(t, snap.Document.IsEmpty())
	assert.True(t, snap.LastSavedAt.IsZero())
}

func TestWriteFailureSetsError(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	// 先成功保存一轮，记下时间戳
	c.Edit(Document{Title: "A"})
	clock.Advance(DefaultDebounceInterval + DefaultFeedbackDelay)
	before := c.Snapshot().LastSavedAt
	assert.False(t, before.IsZero())

	store.failSet = true
	c.Edit(Document{Title: "AB"})
	clock.Advance(DefaultDebounceInterval)

	snap := c.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.WithinDuration(t, before.Time(), snap.LastSavedAt.Time(), 0)

	// 不会自动重试
	calls := store.setCalls
	clock.Advance(10 * DefaultDebounceInterval)
	assert.Equal(t, calls, store.setCalls)
	assert.Equal(t, StatusError, c.Snapshot().Status)
}

func TestWriteFailureRecoveryByEdit(t *testing.T) {
	store := newFailStore(t)
	store.failSet = true
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	c.Edit(Document{Title: "A"})
	clock.Advance(DefaultDebounceInterval)
	assert.Equal(t, StatusError, c.Snapshot().Status)

	store.failSet = false
	c.Edit(Document{Title: "A fixed"})
	clock.Advance(DefaultDebounceInterval + DefaultFeedbackDelay)

	snap := c.Snapshot()
	assert.Equal(t, StatusSaved, snap.Status)

	value, err := store.Get(context.Background(), testKey)
	assert.NoError(t, err)
	record, err := DecodeRecord(testKey, value)
	assert.NoError(t, err)
	assert.Equal(t, "A fixed", record.Title)
}

func TestManualSave(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	c.Edit(Document{Title: "A", Content: "body"})
	assert.Equal(t, 1, clock.PendingCount())

	assert.NoError(t, c.Save(context.Background()))
	assert.Equal(t, 1, store.setCalls)
	assert.Equal(t, StatusSaving, c.Snapshot().Status)

	// 防抖定时器已被取消，只剩反馈定时器
	assert.Equal(t, 1, clock.PendingCount())

	clock.Advance(DefaultFeedbackDelay)
	snap := c.Snapshot()
	assert.Equal(t, StatusSaved, snap.Status)
	assert.WithinDuration(t, testStart, snap.LastSavedAt.Time(), 0)

	clock.Advance(DefaultDebounceInterval)
	assert.Equal(t, 1, store.setCalls)
}

func TestManualSaveEmptyNoop(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	assert.NoError(t, c.Save(context.Background()))
	assert.Equal(t, 0, store.setCalls)
	assert.Equal(t, StatusIdle, c.Snapshot().Status)
}

func TestManualSaveFailureReturnsError(t *testing.T) {
	store := newFailStore(t)
	store.failSet = true
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	c.Edit(Document{Title: "A"})
	err := c.Save(context.Background())

	assert.Error(t, err)
	var werr *StoreWriteError
	assert.ErrorAs(t, err, &werr)
	assert.Equal(t, testKey, werr.Key)
	assert.Equal(t, StatusError, c.Snapshot().Status)
}

func TestManualSaveWhileSaved(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	c.Edit(Document{Title: "A"})
	clock.Advance(DefaultDebounceInterval + DefaultFeedbackDelay)
	assert.Equal(t, StatusSaved, c.Snapshot().Status)

	// saved 状态下允许再次手动保存
	assert.NoError(t, c.Save(context.Background()))
	assert.Equal(t, 2, store.setCalls)

	clock.Advance(DefaultFeedbackDelay)
	snap := c.Snapshot()
	assert.Equal(t, StatusSaved, snap.Status)
	assert.WithinDuration(t, testStart.Add(DefaultDebounceInterval+DefaultFeedbackDelay), snap.LastSavedAt.Time(), 0)
}

func TestClearRemovesEntry(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	c.Edit(Document{Title: "A"})
	clock.Advance(DefaultDebounceInterval + DefaultFeedbackDelay)
	assert.Equal(t, 1, store.Len())

	assert.NoError(t, c.Clear(context.Background()))

	snap := c.Snapshot()
	assert.True(t, snap.Document.IsEmpty())
	assert.Equal(t, StatusIdle, snap.Status)
	assert.True(t, snap.LastSavedAt.IsZero())
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 0, clock.PendingCount())
}

func TestClearDuringDebounce(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	c.Edit(Document{Title: "A"})
	assert.NoError(t, c.Clear(context.Background()))

	clock.Advance(10 * DefaultDebounceInterval)
	assert.Equal(t, 0, store.setCalls)
	assert.Equal(t, StatusIdle, c.Snapshot().Status)
}

func TestClearRemoveFailureKeepsLocalReset(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	c.Edit(Document{Title: "A"})
	clock.Advance(DefaultDebounceInterval + DefaultFeedbackDelay)

	store.failRemove = true
	assert.NoError(t, c.Clear(context.Background()))

	// 删除失败只记录日志，本地状态照样重置
	snap := c.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.True(t, snap.Document.IsEmpty())
	assert.True(t, snap.LastSavedAt.IsZero())
	assert.Equal(t, 1, store.Len())
}

func TestEditDuringFeedbackWindow(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	c.Edit(Document{Title: "A"})
	clock.Advance(DefaultDebounceInterval)
	assert.Equal(t, StatusSaving, c.Snapshot().Status)

	// 反馈延迟结束前的新编辑立即回到 unsaved，不被旧的 saved 覆盖
	c.Edit(Document{Title: "AB"})
	assert.Equal(t, StatusUnsaved, c.Snapshot().Status)

	clock.Advance(DefaultFeedbackDelay)
	assert.Equal(t, StatusUnsaved, c.Snapshot().Status)

	clock.Advance(DefaultDebounceInterval)
	assert.Equal(t, 2, store.setCalls)
	assert.Equal(t, StatusSaved, c.Snapshot().Status)

	value, err := store.Get(context.Background(), testKey)
	assert.NoError(t, err)
	record, err := DecodeRecord(testKey, value)
	assert.NoError(t, err)
	assert.Equal(t, "AB", record.Title)
}

func TestRecordRoundTrip(t *testing.T) {
	record := Record{
		Title:   "标题 title",
		Content: "line1\nline2\t\"quoted\"",
		SavedAt: timex.Time(testStart),
	}

	value, err := EncodeRecord(record)
	assert.NoError(t, err)

	got, err := DecodeRecord(testKey, value)
	assert.NoError(t, err)
	assert.Equal(t, record.Title, got.Title)
	assert.Equal(t, record.Content, got.Content)
	assert.WithinDuration(t, record.SavedAt.Time(), got.SavedAt.Time(), 0)
}

func TestDecodeRecordError(t *testing.T) {
	_, err := DecodeRecord(testKey, "not a record")

	var derr *DecodeError
	assert.ErrorAs(t, err, &derr)
	assert.Equal(t, testKey, derr.Key)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestSnapshotKey(t *testing.T) {
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := newTestController(t, store, clock)

	assert.Equal(t, testKey, c.Key())
	assert.Equal(t, testKey, c.Snapshot().Key)
}
