// Package writequeue serializes draft store writes per namespace.
// Writes of one workspace run in FIFO order on a dedicated worker, so
// locking backends (SQLite "database is locked") and remote backends
// (WebDAV, OSS) never see interleaved writes from the same workspace,
// while different workspaces keep writing in parallel.
// Package writequeue 按命名空间串行化草稿存储写入
// 同一工作区的写操作在专属 worker 上按 FIFO 执行，锁型后端（SQLite
// "database is locked"）和远程后端（WebDAV、OSS）不会出现同一工作区的
// 交错写入，不同工作区之间仍然并行
package writequeue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrWriteQueueFull 命名空间队列已满时返回
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed 管理器已关闭时返回
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout 等待写入结果超时时返回
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config write queue configuration
// Config 写队列配置
type Config struct {
	// QueueCapacity 每个命名空间的队列容量，默认 100
	QueueCapacity int
	// WriteTimeout 等待单次写入完成的上限，默认 30 秒
	WriteTimeout time.Duration
	// IdleTimeout 空闲队列回收阈值，默认 10 分钟
	IdleTimeout time.Duration
}

// DefaultConfig returns default configuration
// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

// writeOp 一次排队的写操作，result 缓冲为 1，worker 投递结果不会阻塞
type writeOp struct {
	ctx    context.Context
	fn     func() error
	result chan error
}

// nsQueue 单个命名空间的写队列，worker 随首次写入懒启动
type nsQueue struct {
	uid      int64
	ch       chan writeOp
	lastUsed atomic.Int64
	closed   atomic.Bool
	workerWg sync.WaitGroup

	// 通知 worker 停止
	stopCh chan struct{}
}

// Manager owns every namespace queue and the idle reaper.
// Manager 持有全部命名空间队列和空闲回收协程
type Manager struct {
	config Config
	logger *zap.Logger

	queues sync.Map // map[int64]*nsQueue

	// 累计计数，dropped 为队列满被拒绝的写入
	executedCount atomic.Int64
	droppedCount  atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool

	cleanupWg   sync.WaitGroup
	cleanupDone chan struct{}
}

// New creates the write queue manager.
// nil cfg or logger fall back to defaults and a nop logger.
// New 创建写队列管理器，cfg 或 logger 为 nil 时回退到默认配置与空日志器
func New(cfg *Config, logger *zap.Logger) *Manager {
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}

	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 100
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 10 * time.Minute
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		config:      *cfg,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}

	m.cleanupWg.Add(1)
	go m.cleanupIdleQueues()

	m.logger.Info("write queue manager started",
		zap.Int("queueCapacity", cfg.QueueCapacity),
		zap.Duration("writeTimeout", cfg.WriteTimeout),
		zap.Duration("idleTimeout", cfg.IdleTimeout))

	return m
}

// Execute runs one store write through the namespace queue and waits for
// its result. Same-namespace writes execute in submission order, different
// namespaces run in parallel. A full queue rejects instead of blocking,
// callers surface that as a save error.
// Execute 将一次存储写入提交到命名空间队列并等待结果
// 同一命名空间按提交顺序执行，不同命名空间并行
// 队列满时直接拒绝而不是阻塞，由调用方作为保存错误上报
func (m *Manager) Execute(ctx context.Context, uid int64, fn func() error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrWriteQueueClosed
	}
	m.mu.RUnlock()

	queue := m.getOrCreateQueue(uid)
	if queue == nil {
		return ErrWriteQueueClosed
	}

	result := make(chan error, 1)
	op := writeOp{
		ctx:    ctx,
		fn:     fn,
		result: result,
	}

	select {
	case queue.ch <- op:
	default:
		m.droppedCount.Add(1)
		return ErrWriteQueueFull
	}

	// 请求自带的截止时间优先于全局写超时
	timeout := m.config.WriteTimeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining < timeout {
			timeout = remaining
		}
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return ErrWriteTimeout
	case <-m.ctx.Done():
		return ErrWriteQueueClosed
	}
}

// getOrCreateQueue 获取或懒创建命名空间队列
// 被空闲回收关停的旧队列在这里替换为新队列
func (m *Manager) getOrCreateQueue(uid int64) *nsQueue {
	if v, ok := m.queues.Load(uid); ok {
		queue := v.(*nsQueue)
		if !queue.closed.Load() {
			queue.lastUsed.Store(time.Now().UnixNano())
			return queue
		}
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil
	}
	m.mu.RUnlock()

	queue := &nsQueue{
		uid:    uid,
		ch:     make(chan writeOp, m.config.QueueCapacity),
		stopCh: make(chan struct{}),
	}
	queue.lastUsed.Store(time.Now().UnixNano())

	actual, loaded := m.queues.LoadOrStore(uid, queue)
	if loaded {
		close(queue.stopCh)
		existing := actual.(*nsQueue)
		if !existing.closed.Load() {
			existing.lastUsed.Store(time.Now().UnixNano())
			return existing
		}
		// 旧队列已被回收，换上新队列
		m.queues.Store(uid, queue)
	}

	queue.workerWg.Add(1)
	go m.worker(queue)

	m.logger.Debug("created write queue for namespace",
		zap.Int64("uid", uid),
		zap.Int("capacity", m.config.QueueCapacity))

	return queue
}

// worker 串行消费单个命名空间的写队列
// 收到停止信号后先排空积压再退出，排队中的保存不会丢
func (m *Manager) worker(queue *nsQueue) {
	defer queue.workerWg.Done()
	defer func() {
		queue.closed.Store(true)
		m.logger.Debug("write queue worker stopped",
			zap.Int64("uid", queue.uid))
	}()

	for {
		select {
		case <-m.ctx.Done():
			m.drainQueue(queue)
			return
		case <-queue.stopCh:
			m.drainQueue(queue)
			return
		case op, ok := <-queue.ch:
			if !ok {
				return
			}
			m.executeOp(queue, op)
		}
	}
}

// executeOp 执行单个写操作并投递结果
func (m *Manager) executeOp(queue *nsQueue, op writeOp) {
	queue.lastUsed.Store(time.Now().UnixNano())

	// 调用方已放弃的操作不再执行
	select {
	case <-op.ctx.Done():
		op.result <- op.ctx.Err()
		return
	default:
	}

	err := op.fn()
	m.executedCount.Add(1)

	select {
	case op.result <- err:
	default:
	}
}

// drainQueue 排空队列中尚未执行的写操作
func (m *Manager) drainQueue(queue *nsQueue) {
	for {
		select {
		case op, ok := <-queue.ch:
			if !ok {
				return
			}
			m.executeOp(queue, op)
		default:
			return
		}
	}
}

// cleanupIdleQueues 周期回收空闲队列，周期取空闲阈值的一半
func (m *Manager) cleanupIdleQueues() {
	defer m.cleanupWg.Done()

	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.cleanupDone:
			return
		case <-ticker.C:
			m.doCleanup()
		}
	}
}

// doCleanup 扫描并关停超过空闲阈值且已排空的队列
func (m *Manager) doCleanup() {
	now := time.Now().UnixNano()
	idleThreshold := m.config.IdleTimeout.Nanoseconds()

	m.queues.Range(func(key, value interface{}) bool {
		uid := key.(int64)
		queue := value.(*nsQueue)

		lastUsed := queue.lastUsed.Load()
		if now-lastUsed > idleThreshold {
			if len(queue.ch) == 0 && !queue.closed.Load() {
				m.logger.Debug("cleaning up idle write queue",
					zap.Int64("uid", uid),
					zap.Duration("idleTime", time.Duration(now-lastUsed)))

				queue.closed.Store(true)
				close(queue.stopCh)

				m.queues.Delete(uid)
			}
		}
		return true
	})
}

// Shutdown stops every queue and waits for queued writes to finish.
// ctx bounds the wait.
// Shutdown 停止全部队列并等待排队中的写入完成，ctx 控制等待上限
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.logger.Info("write queue manager shutting down")

	close(m.cleanupDone)

	done := make(chan struct{})
	go func() {
		// 先通知全部队列停止
		m.queues.Range(func(key, value interface{}) bool {
			queue := value.(*nsQueue)
			if !queue.closed.Load() {
				queue.closed.Store(true)
				select {
				case <-queue.stopCh:
				default:
					close(queue.stopCh)
				}
			}
			return true
		})

		// 再逐个等待 worker 排空退出
		m.queues.Range(func(key, value interface{}) bool {
			queue := value.(*nsQueue)
			queue.workerWg.Wait()
			return true
		})

		m.cleanupWg.Wait()

		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("write queue manager shutdown completed")
		m.cancel()
		return nil
	case <-ctx.Done():
		m.logger.Warn("write queue manager shutdown timeout, forcing cancellation")
		m.cancel()
		return ctx.Err()
	}
}

// QueueCount returns current active queue count
// QueueCount 返回当前活跃队列数量
func (m *Manager) QueueCount() int {
	count := 0
	m.queues.Range(func(key, value interface{}) bool {
		queue := value.(*nsQueue)
		if !queue.closed.Load() {
			count++
		}
		return true
	})
	return count
}

// QueuedCount returns the number of writes waiting in one namespace queue
// QueuedCount 返回指定命名空间队列中等待的写入数
func (m *Manager) QueuedCount(uid int64) int {
	if v, ok := m.queues.Load(uid); ok {
		queue := v.(*nsQueue)
		return len(queue.ch)
	}
	return 0
}

// IsClosed returns if manager is closed
// IsClosed 返回管理器是否已关闭
func (m *Manager) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// Metrics write queue manager metrics
// Metrics 写队列管理器指标
type Metrics struct {
	QueueCapacity int
	ActiveQueues  int
	// 累计值，进程启动后单调递增
	ExecutedCount int64
	DroppedCount  int64
	IsClosed      bool
}

// GetMetrics gets current metrics
// GetMetrics 获取当前指标
func (m *Manager) GetMetrics() Metrics {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()

	return Metrics{
		QueueCapacity: m.config.QueueCapacity,
		ActiveQueues:  m.QueueCount(),
		ExecutedCount: m.executedCount.Load(),
		DroppedCount:  m.droppedCount.Load(),
		IsClosed:      closed,
	}
}
