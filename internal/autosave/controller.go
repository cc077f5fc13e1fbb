// Package autosave implements the debounced draft persistence controller.
// Edits replace the in-memory document immediately; writes to the key-value
// store are collapsed behind a debounce window so bursts of edits produce a
// single write holding the latest document.
// Package autosave 实现草稿防抖持久化控制器，编辑立即生效，
// 写入合并到防抖窗口结束后执行，一轮连续编辑只产生一次写入。
package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/haierkeys/draft-sync-service/pkg/clockx"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore"
	"github.com/haierkeys/draft-sync-service/pkg/logger"
	"github.com/haierkeys/draft-sync-service/pkg/timex"

	"go.uber.org/zap"
)

const (
	// DefaultDebounceInterval is the quiet period after the last edit
	// before a write is issued.
	// DefaultDebounceInterval 最后一次编辑后到触发写入的静默时长
	DefaultDebounceInterval = 2000 * time.Millisecond
	// DefaultFeedbackDelay is the minimum time the saving status stays
	// visible after a successful write.
	// DefaultFeedbackDelay 写入成功后 saving 状态至少保持的时长
	DefaultFeedbackDelay = 500 * time.Millisecond
)

// Config tunes a single controller. Zero values fall back to the defaults.
// Config 单个控制器的配置，零值回退到默认值
type Config struct {
	DebounceInterval time.Duration
	FeedbackDelay    time.Duration
	Stats            *Stats
	// OnStatus observes status transitions for the transport layer. Called
	// outside the state lock; the handler must not call back into the
	// controller.
	// OnStatus 供传输层观察状态变化，在锁外调用，回调内不得再调用控制器方法
	OnStatus func(key string, status SaveStatus, savedAt timex.Time)
}

func (c Config) withDefaults() Config {
	if c.DebounceInterval <= 0 {
		c.DebounceInterval = DefaultDebounceInterval
	}
	if c.FeedbackDelay <= 0 {
		c.FeedbackDelay = DefaultFeedbackDelay
	}
	return c
}

// Snapshot is a read-only view of the controller state for the transport
// layer.
// Snapshot 控制器状态的只读视图，供传输层展示
type Snapshot struct {
	Key         string
	Document    Document
	Status      SaveStatus
	LastSavedAt timex.Time
}

// Controller keeps one draft document synchronized to the store without
// writing on every edit. The reference contract is single-threaded; here
// transport goroutines and timer callbacks race, so state sits behind a
// mutex and a flight lock serializes store writes: at most one write is in
// flight per controller and writes are never reordered.
// Controller 将单个草稿同步到存储。状态由互斥锁保护，
// flight 锁串行化写入，同一控制器同时最多一个写入在途。
type Controller struct {
	key    string
	store  kvstore.Store
	clock  clockx.Clock
	logger *zap.Logger
	config Config

	mu       sync.Mutex
	doc      Document
	status   SaveStatus
	savedAt  timex.Time
	gen      uint64 // bumped by non-empty Edit and Clear, stale write outcomes are dropped
	clearGen uint64 // bumped by Clear only, stops a straggler write from resurrecting LastSavedAt
	closed   bool
	debounce clockx.Timer
	feedback clockx.Timer

	flight sync.Mutex // serializes store writes and the Clear remove
}

// NewController loads the stored record for key and returns a ready
// controller. A hit with a decodable non-empty document starts at
// StatusSaved with the stored timestamp; a miss, a corrupted record, an
// unreadable backend or an empty decoded document all start empty at
// StatusIdle. Load failures are logged and swallowed, the caller sees
// "no saved data" either way.
// NewController 读取存储记录并返回控制器。命中且可解码的非空文档
// 以 saved 状态启动；未命中、记录损坏、读取失败或解码出空文档
// 一律以空文档 idle 状态启动，失败仅记录日志。
func NewController(ctx context.Context, key string, store kvstore.Store, clock clockx.Clock, logger *zap.Logger, config Config) *Controller {
	if clock == nil {
		clock = clockx.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		key:    key,
		store:  store,
		clock:  clock,
		logger: logger,
		config: config.withDefaults(),
		status: StatusIdle,
	}
	c.load(ctx)
	return c
}

// load performs the startup read. Runs before the controller is shared, no
// locking needed.
func (c *Controller) load(ctx context.Context) {
	value, err := c.store.Get(ctx, c.key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotExist) {
			c.logger.Warn("draft record read failed, starting empty",
				zap.String(logger.FieldKey, c.key),
				zap.Error(err))
			c.config.Stats.recovered()
		}
		return
	}
	record, err := DecodeRecord(c.key, value)
	if err != nil {
		c.logger.Warn("draft record corrupted, starting empty",
			zap.String(logger.FieldKey, c.key),
			zap.Error(err))
		c.config.Stats.recovered()
		return
	}
	doc := record.Document()
	if doc.IsEmpty() {
		// A stored empty document counts as no saved data.
		// 存储的空文档视为无已保存数据
		return
	}
	c.doc = doc
	c.savedAt = record.SavedAt
	c.status = StatusSaved
}

// Edit replaces the document immediately. A non-empty document moves the
// status to StatusUnsaved and re-arms the debounce timer, cancelling any
// previously armed one: only the latest edit's timer may fire. An empty
// document leaves the status unchanged and cancels the pending debounce,
// an empty document must never be written.
// Edit 立即替换文档。非空文档置为 unsaved 并重置防抖定时器；
// 空文档不改变状态，仅取消待触发的防抖，空文档永不写入。
func (c *Controller) Edit(doc Document) SaveStatus {
	c.mu.Lock()
	if c.closed {
		status := c.status
		c.mu.Unlock()
		return status
	}
	c.doc = doc
	if doc.IsEmpty() {
		c.stopDebounceLocked()
		status := c.status
		c.mu.Unlock()
		return status
	}
	c.gen++
	c.status = StatusUnsaved
	if c.debounce != nil {
		c.config.Stats.debounceReset()
	}
	c.stopDebounceLocked()
	c.stopFeedbackLocked()
	gen := c.gen
	c.debounce = c.clock.AfterFunc(c.config.DebounceInterval, func() {
		c.fire(gen)
	})
	savedAt := c.savedAt
	c.mu.Unlock()
	c.notify(StatusUnsaved, savedAt)
	return StatusUnsaved
}

// fire runs when the debounce window elapses with no newer edit. The timer
// may have fired just as a newer edit stopped it, so everything is
// re-checked under the lock before the write starts.
// fire 在防抖窗口结束时执行，定时器可能与新的编辑竞争，
// 写入前在锁内重新校验。
func (c *Controller) fire(gen uint64) {
	c.flight.Lock()
	defer c.flight.Unlock()

	c.mu.Lock()
	if c.closed || c.gen != gen || c.status != StatusUnsaved || c.doc.IsEmpty() {
		c.mu.Unlock()
		return
	}
	c.status = StatusSaving
	doc := c.doc
	clearGen := c.clearGen
	savedAt := c.savedAt
	c.mu.Unlock()

	c.notify(StatusSaving, savedAt)
	c.persist(context.Background(), doc, gen, clearGen)
}

// Save cancels the pending debounce and runs the write path immediately.
// Allowed in any status; a no-op for an empty document. The write error, if
// any, is returned to the caller in addition to setting StatusError.
// Save 取消防抖并立即执行写入，任何状态下均可调用，
// 空文档为无操作，写入错误在置为 error 状态之外同时返回给调用方。
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.stopDebounceLocked()
	c.mu.Unlock()

	c.flight.Lock()
	defer c.flight.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	// An edit may have re-armed the debounce while this call waited for an
	// in-flight write. This save covers it.
	// 等待在途写入期间可能有新编辑重置了防抖，本次保存已覆盖它
	c.stopDebounceLocked()
	if c.doc.IsEmpty() {
		c.mu.Unlock()
		return nil
	}
	c.status = StatusSaving
	doc := c.doc
	gen := c.gen
	clearGen := c.clearGen
	savedAt := c.savedAt
	c.mu.Unlock()

	c.notify(StatusSaving, savedAt)
	return c.persist(ctx, doc, gen, clearGen)
}

// persist writes one record. Caller holds the flight lock, never the state
// lock. Outcomes are applied only if gen is still current: a superseded
// success still records LastSavedAt (the data is in the store), but never
// forces saved or error over a newer unsaved.
// persist 执行一次写入，调用方持有 flight 锁。结果仅在代数未变时生效：
// 被新编辑取代的成功写入仍记录保存时间，但不覆盖更新的 unsaved 状态。
func (c *Controller) persist(ctx context.Context, doc Document, gen uint64, clearGen uint64) error {
	now := timex.Time(c.clock.Now())
	value, err := EncodeRecord(Record{Title: doc.Title, Content: doc.Content, SavedAt: now})
	if err == nil {
		err = c.store.Set(ctx, c.key, value)
	}
	if err != nil {
		werr := &StoreWriteError{Key: c.key, Err: err}
		c.logger.Error("draft save failed",
			zap.String(logger.FieldKey, c.key),
			zap.Error(err))
		c.config.Stats.saveFailed()
		c.mu.Lock()
		entered := false
		if !c.closed && c.gen == gen {
			c.status = StatusError
			entered = true
		}
		savedAt := c.savedAt
		c.mu.Unlock()
		if entered {
			c.notify(StatusError, savedAt)
		}
		return werr
	}

	c.logger.Debug("draft saved",
		zap.String(logger.FieldKey, c.key),
		zap.Int("bytes", len(value)))
	c.config.Stats.saved()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clearGen == clearGen {
		c.savedAt = now
	}
	if c.closed || c.gen != gen {
		return nil
	}
	c.stopFeedbackLocked()
	c.feedback = c.clock.AfterFunc(c.config.FeedbackDelay, func() {
		c.mu.Lock()
		if c.closed || c.gen != gen || c.status != StatusSaving {
			c.mu.Unlock()
			return
		}
		c.status = StatusSaved
		savedAt := c.savedAt
		c.mu.Unlock()
		c.notify(StatusSaved, savedAt)
	})
	return nil
}

// Clear cancels both timers, resets to an empty idle document and removes
// the store entry. A remove failure is logged only, the local reset stands.
// Clear 取消全部定时器，本地重置为空文档 idle 状态并删除存储条目，
// 删除失败仅记录日志，本地重置不受影响。
func (c *Controller) Clear(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.stopDebounceLocked()
	c.stopFeedbackLocked()
	c.doc = Document{}
	c.status = StatusIdle
	c.savedAt = timex.Time{}
	c.gen++
	c.clearGen++
	c.mu.Unlock()

	c.notify(StatusIdle, timex.Time{})

	// Behind the flight lock so the remove lands after any in-flight write.
	// 持 flight 锁执行删除，保证排在任何在途写入之后
	c.flight.Lock()
	err := c.store.Remove(ctx, c.key)
	c.flight.Unlock()
	if err != nil && !errors.Is(err, kvstore.ErrNotExist) {
		rerr := &StoreRemoveError{Key: c.key, Err: err}
		c.logger.Warn("draft remove failed",
			zap.String(logger.FieldKey, c.key),
			zap.Error(rerr.Err))
	}
	return nil
}

// Close cancels both timers and marks the controller closed. After Close no
// write is ever issued even if a debounce window elapses; an already
// dispatched write completes on its own. Idempotent.
// Close 取消全部定时器并标记关闭，此后不再发起写入，
// 已在途的写入自行完成。可重复调用。
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopDebounceLocked()
	c.stopFeedbackLocked()
}

// Key returns the storage key the controller owns.
func (c *Controller) Key() string {
	return c.key
}

// Snapshot returns the current state for display.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Key:         c.key,
		Document:    c.doc,
		Status:      c.status,
		LastSavedAt: c.savedAt,
	}
}

func (c *Controller) notify(status SaveStatus, savedAt timex.Time) {
	if c.config.OnStatus != nil {
		c.config.OnStatus(c.key, status, savedAt)
	}
}

func (c *Controller) stopDebounceLocked() {
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
}

func (c *Controller) stopFeedbackLocked() {
	if c.feedback != nil {
		c.feedback.Stop()
		c.feedback = nil
	}
}
