// Package workerpool caps the number of goroutines used for websocket status
// pushes. A save transition fans out to every device on the account, and
// without a bound a burst of saves against slow connections would grow
// goroutines without limit. Pushes are fire-and-forget, so a full queue drops
// the task instead of blocking the save path.
// Package workerpool 限制状态推送使用的 goroutine 数量。
// 保存状态要扇出到账号下所有设备，不设上限时保存高峰叠加慢连接
// 会让 goroutine 无限增长。推送允许丢弃，队列满直接丢，不阻塞保存路径。
package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrWorkerPoolFull 任务队列已满
	ErrWorkerPoolFull = errors.New("worker pool queue is full")
	// ErrWorkerPoolClosed Worker Pool 已关闭
	ErrWorkerPoolClosed = errors.New("worker pool is closed")
	// ErrTaskCancelled 任务入队后、执行前被取消
	ErrTaskCancelled = errors.New("task was cancelled")
)

// Config Worker Pool 配置
type Config struct {
	// MaxWorkers 并发 worker 数量，默认 100
	MaxWorkers int
	// QueueSize 任务队列长度，默认 1000
	QueueSize int
	// WarningPercent 队列占用告警阈值，默认 0.8
	WarningPercent float64
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxWorkers:     100,
		QueueSize:      1000,
		WarningPercent: 0.8,
	}
}

// task 入队的推送任务，done 为 nil 表示调用方不等结果
type task struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// Pool 固定 worker 数量的任务池
type Pool struct {
	config Config
	logger *zap.Logger

	taskCh   chan task
	workerWg sync.WaitGroup

	activeCount atomic.Int64

	// 累计计数，dropped 记录队列满被拒绝的任务
	submittedCount atomic.Int64
	completedCount atomic.Int64
	droppedCount   atomic.Int64

	// 告警只在占用越过阈值时记一次，回落后重置
	warned atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	// mu 保护 closed；enqueue 在读锁内入队，Shutdown 先取写锁再关通道，
	// 保证不会向已关闭的通道发送
	mu     sync.RWMutex
	closed bool
}

// New 创建 Worker Pool 并启动全部 worker
// cfg 为 nil 或字段非法时用默认值补齐，logger 为 nil 时不记日志
func New(cfg *Config, logger *zap.Logger) *Pool {
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}

	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 100
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.WarningPercent <= 0 || cfg.WarningPercent > 1 {
		cfg.WarningPercent = 0.8
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		config: *cfg,
		logger: logger,
		taskCh: make(chan task, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < cfg.MaxWorkers; i++ {
		p.workerWg.Add(1)
		go p.worker()
	}

	p.logger.Info("worker pool started",
		zap.Int("maxWorkers", cfg.MaxWorkers),
		zap.Int("queueSize", cfg.QueueSize),
		zap.Float64("warningPercent", cfg.WarningPercent))

	return p
}

func (p *Pool) worker() {
	defer p.workerWg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-p.taskCh:
			if !ok {
				return
			}
			p.run(t)
		}
	}
}

// run 执行单个任务，入队后才被取消的任务不再执行
func (p *Pool) run(t task) {
	p.activeCount.Add(1)
	defer func() {
		p.activeCount.Add(-1)
		p.completedCount.Add(1)
	}()

	var err error
	select {
	case <-t.ctx.Done():
		err = ErrTaskCancelled
	default:
		err = t.fn(t.ctx)
	}

	if t.done != nil {
		// 容量为 1 且只发一次，不会阻塞
		t.done <- err
	}
}

// enqueue 在读锁内尝试入队，队列满立即拒绝
func (p *Pool) enqueue(t task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrWorkerPoolClosed
	}

	select {
	case p.taskCh <- t:
		p.submittedCount.Add(1)
		p.checkQueuePressure()
		return nil
	default:
		p.droppedCount.Add(1)
		return ErrWorkerPoolFull
	}
}

// checkQueuePressure 队列占用越过阈值时告警一次，回落到阈值一半以下后重置
func (p *Pool) checkQueuePressure() {
	threshold := int(float64(p.config.QueueSize) * p.config.WarningPercent)
	if threshold <= 0 {
		return
	}

	depth := len(p.taskCh)
	if depth >= threshold {
		if p.warned.CompareAndSwap(false, true) {
			p.logger.Warn("worker pool queue under pressure",
				zap.Int("queued", depth),
				zap.Int("capacity", p.config.QueueSize))
		}
		return
	}
	if depth < threshold/2 {
		p.warned.Store(false)
	}
}

// Submit 提交任务并等待执行结果
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	done := make(chan error, 1)
	if err := p.enqueue(task{ctx: ctx, fn: fn, done: done}); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrWorkerPoolClosed
	}
}

// SubmitAsync 提交任务但不等待结果，状态推送走这里
func (p *Pool) SubmitAsync(ctx context.Context, fn func(context.Context) error) error {
	return p.enqueue(task{ctx: ctx, fn: fn})
}

// ActiveCount 返回当前正在执行的任务数
func (p *Pool) ActiveCount() int64 {
	return p.activeCount.Load()
}

// QueuedCount 返回当前队列中等待的任务数
func (p *Pool) QueuedCount() int {
	return len(p.taskCh)
}

// IsClosed 返回 Worker Pool 是否已关闭
func (p *Pool) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Shutdown 关闭 Worker Pool 并等待队内任务跑完
// ctx 到期时取消剩余任务并返回 ctx 的错误
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.taskCh)
	p.mu.Unlock()

	p.logger.Info("worker pool shutting down",
		zap.Int64("activeCount", p.activeCount.Load()))

	done := make(chan struct{})
	go func() {
		p.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool shutdown completed")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("worker pool shutdown timeout, forcing cancellation")
		return ctx.Err()
	}
}

// Metrics Worker Pool 运行指标
type Metrics struct {
	MaxWorkers    int
	ActiveCount   int64
	QueuedCount   int
	QueueCapacity int
	// 累计值，进程启动后单调递增
	SubmittedCount int64
	CompletedCount int64
	DroppedCount   int64
	IsClosed       bool
}

// GetMetrics 获取当前指标
func (p *Pool) GetMetrics() Metrics {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()

	return Metrics{
		MaxWorkers:     p.config.MaxWorkers,
		ActiveCount:    p.activeCount.Load(),
		QueuedCount:    len(p.taskCh),
		QueueCapacity:  p.config.QueueSize,
		SubmittedCount: p.submittedCount.Load(),
		CompletedCount: p.completedCount.Load(),
		DroppedCount:   p.droppedCount.Load(),
		IsClosed:       closed,
	}
}
