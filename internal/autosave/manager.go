package autosave

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haierkeys/draft-sync-service/pkg/clockx"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore"
	"github.com/haierkeys/draft-sync-service/pkg/logger"
	"github.com/haierkeys/draft-sync-service/pkg/timex"

	"go.uber.org/zap"
)

// ManagerConfig 会话管理器配置
type ManagerConfig struct {
	// DebounceInterval debounce window applied to every controller
	// DebounceInterval 每个控制器的防抖窗口
	DebounceInterval time.Duration
	// FeedbackDelay minimum visible saving duration per controller
	// FeedbackDelay 每个控制器 saving 状态的最短可见时长
	FeedbackDelay time.Duration
	// IdleTimeout idle duration after which a clean session is closed
	// IdleTimeout 干净会话空闲多久后被回收
	IdleTimeout time.Duration
	// FlushTimeout bound for the final flush during shutdown
	// FlushTimeout 关闭时最终落盘的时间上限
	FlushTimeout time.Duration
	// OnStatus is handed to every controller, see autosave.Config
	// OnStatus 传递给每个控制器，见 autosave.Config
	OnStatus func(key string, status SaveStatus, savedAt timex.Time)
}

// DefaultManagerConfig returns the default configuration.
// DefaultManagerConfig 返回默认配置
func DefaultManagerConfig() *ManagerConfig {
	return &ManagerConfig{
		DebounceInterval: DefaultDebounceInterval,
		FeedbackDelay:    DefaultFeedbackDelay,
		IdleTimeout:      30 * time.Minute,
		FlushTimeout:     10 * time.Second,
	}
}

// Stats aggregates counters across all sessions for the metrics endpoints.
// Stats 汇总所有会话的计数，供指标接口读取
type Stats struct {
	Sessions       atomic.Int64 // sessions opened since start
	Saves          atomic.Int64 // successful store writes
	SaveErrors     atomic.Int64 // failed store writes
	Recovered      atomic.Int64 // corrupted or unreadable records recovered at load
	DebounceResets atomic.Int64 // armed debounce timers superseded by a newer edit
}

func (s *Stats) sessionOpened() {
	if s == nil {
		return
	}
	s.Sessions.Add(1)
}

func (s *Stats) saved() {
	if s == nil {
		return
	}
	s.Saves.Add(1)
}

func (s *Stats) saveFailed() {
	if s == nil {
		return
	}
	s.SaveErrors.Add(1)
}

func (s *Stats) recovered() {
	if s == nil {
		return
	}
	s.Recovered.Add(1)
}

func (s *Stats) debounceReset() {
	if s == nil {
		return
	}
	s.DebounceResets.Add(1)
}

// session wraps one controller with its last-touch time.
// session 封装单个控制器及其最近使用时间
type session struct {
	controller *Controller
	lastUsed   atomic.Int64 // UnixNano
	closed     atomic.Bool
}

// Manager owns one controller per draft key and creates them lazily on
// first use. Idle sessions are reaped by CleanupIdle, which the scheduler
// invokes on a fixed cadence.
// Manager 按草稿键管理控制器，首次使用时懒加载创建。
// 空闲会话由 CleanupIdle 回收，调度器按固定节奏调用。
type Manager struct {
	config *ManagerConfig
	store  kvstore.Store
	clock  clockx.Clock
	logger *zap.Logger
	stats  *Stats

	sessions sync.Map // key string -> *session

	mu     sync.RWMutex
	closed bool
}

// NewManager creates a session manager.
// NewManager 创建会话管理器
func NewManager(config *ManagerConfig, store kvstore.Store, clock clockx.Clock, logger *zap.Logger) *Manager {
	if config == nil {
		config = DefaultManagerConfig()
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = DefaultDebounceInterval
	}
	if config.FeedbackDelay <= 0 {
		config.FeedbackDelay = DefaultFeedbackDelay
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 30 * time.Minute
	}
	if clock == nil {
		clock = clockx.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		config: config,
		store:  store,
		clock:  clock,
		logger: logger,
		stats:  &Stats{},
	}
}

// Acquire returns the controller for key, creating and loading it on first
// use. Concurrent first calls for the same key race on creation; the loser
// is closed and every caller gets the same controller.
// Acquire 获取指定键的控制器，首次使用时创建并加载。
// 并发创建时竞争失败的一方被关闭，所有调用方拿到同一实例。
func (m *Manager) Acquire(ctx context.Context, key string) (*Controller, error) {
	if v, ok := m.sessions.Load(key); ok {
		s := v.(*session)
		if !s.closed.Load() {
			s.lastUsed.Store(m.clock.Now().UnixNano())
			return s.controller, nil
		}
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrManagerClosed
	}
	m.mu.RUnlock()

	s := &session{
		controller: NewController(ctx, key, m.store, m.clock, m.logger, Config{
			DebounceInterval: m.config.DebounceInterval,
			FeedbackDelay:    m.config.FeedbackDelay,
			Stats:            m.stats,
			OnStatus:         m.config.OnStatus,
		}),
	}
	s.lastUsed.Store(m.clock.Now().UnixNano())

	actual, loaded := m.sessions.LoadOrStore(key, s)
	if loaded {
		existing := actual.(*session)
		if !existing.closed.Load() {
			s.controller.Close()
			existing.lastUsed.Store(m.clock.Now().UnixNano())
			return existing.controller, nil
		}
		// Existing session already closed, replace it.
		// 已有会话已关闭，替换之
		m.sessions.Store(key, s)
	}

	m.stats.sessionOpened()
	m.logger.Debug("draft session opened",
		zap.String(logger.FieldKey, key))

	return s.controller, nil
}

// Peek returns the live controller for key without creating one.
// Peek 获取已存在的控制器，不会创建新会话
func (m *Manager) Peek(key string) (*Controller, bool) {
	v, ok := m.sessions.Load(key)
	if !ok {
		return nil, false
	}
	s := v.(*session)
	if s.closed.Load() {
		return nil, false
	}
	s.lastUsed.Store(m.clock.Now().UnixNano())
	return s.controller, true
}

// Discard closes the session for key and forgets it. The store entry is
// untouched, clearing is the controller's job.
// Discard 关闭并移除指定键的会话，不动存储条目
func (m *Manager) Discard(key string) {
	v, ok := m.sessions.LoadAndDelete(key)
	if !ok {
		return
	}
	s := v.(*session)
	s.closed.Store(true)
	s.controller.Close()
	m.logger.Debug("draft session discarded",
		zap.String(logger.FieldKey, key))
}

// Range calls fn for every live controller until fn returns false.
func (m *Manager) Range(fn func(c *Controller) bool) {
	m.sessions.Range(func(_, value any) bool {
		s := value.(*session)
		if s.closed.Load() {
			return true
		}
		return fn(s.controller)
	})
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	n := 0
	m.sessions.Range(func(_, value any) bool {
		if !value.(*session).closed.Load() {
			n++
		}
		return true
	})
	return n
}

// Stats returns the shared counters.
func (m *Manager) Stats() *Stats {
	return m.stats
}

// CleanupIdle performs one sweep and returns how many sessions it closed.
// Dirty sessions are kept until a later sweep finds them clean, closing
// them would drop a pending save.
// CleanupIdle 执行一次清理并返回关闭的会话数。
// 脏会话留到之后的轮次，避免丢弃待保存内容
func (m *Manager) CleanupIdle() int {
	now := m.clock.Now().UnixNano()
	idle := m.config.IdleTimeout.Nanoseconds()

	closed := 0
	m.sessions.Range(func(key, value any) bool {
		s := value.(*session)
		elapsed := now - s.lastUsed.Load()
		if elapsed <= idle || s.closed.Load() {
			return true
		}
		snap := s.controller.Snapshot()
		if snap.Status == StatusUnsaved || snap.Status == StatusSaving {
			return true
		}
		s.closed.Store(true)
		s.controller.Close()
		m.sessions.Delete(key)
		closed++
		m.logger.Debug("idle draft session closed",
			zap.String(logger.FieldKey, key.(string)),
			zap.Duration("idle", time.Duration(elapsed)))
		return true
	})
	return closed
}

// IdleTimeout reports the configured idle window so callers can derive a
// sweep cadence from it.
// IdleTimeout 返回配置的空闲窗口，调用方据此推导清理节奏
func (m *Manager) IdleTimeout() time.Duration {
	return m.config.IdleTimeout
}

// CloseAll closes every session without flushing.
// CloseAll 关闭全部会话，不做落盘
func (m *Manager) CloseAll() {
	m.sessions.Range(func(key, value any) bool {
		s := value.(*session)
		s.closed.Store(true)
		s.controller.Close()
		m.sessions.Delete(key)
		return true
	})
}

// Shutdown flushes every dirty session with a final manual save, bounded by
// ctx (or FlushTimeout when ctx carries no deadline), then closes all
// sessions. Safe to call more than once.
// Shutdown 先对脏会话做最终保存（受 ctx 或 FlushTimeout 限制），
// 然后关闭全部会话。可重复调用。
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.logger.Info("draft session manager shutting down")

	if _, ok := ctx.Deadline(); !ok && m.config.FlushTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.FlushTimeout)
		defer cancel()
	}

	var flushed, failed int
	m.sessions.Range(func(key, value any) bool {
		s := value.(*session)
		if ctx.Err() == nil && !s.closed.Load() {
			if snap := s.controller.Snapshot(); snap.Status == StatusUnsaved {
				if err := s.controller.Save(ctx); err != nil {
					failed++
					m.logger.Error("draft flush failed",
						zap.String(logger.FieldKey, key.(string)),
						zap.Error(err))
				} else {
					flushed++
				}
			}
		}
		s.closed.Store(true)
		s.controller.Close()
		m.sessions.Delete(key)
		return true
	})

	m.logger.Info("draft session manager shutdown completed",
		zap.Int("flushed", flushed),
		zap.Int("failed", failed))

	return ctx.Err()
}
