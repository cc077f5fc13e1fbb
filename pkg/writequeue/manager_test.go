package writequeue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteRunsWrite(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	ran := false
	err := m.Execute(context.Background(), 1, func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestExecuteSameUserIsFIFO(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	// 并发提交同一用户的写操作，顺序必须与提交完成的顺序一致
	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			// 错开提交时间，使提交顺序可预测
			time.Sleep(time.Duration(i*20) * time.Millisecond)
			_ = m.Execute(context.Background(), 42, func() error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()
	}
	close(start)
	wg.Wait()

	require.Len(t, order, 10)
	for i, v := range order {
		assert.Equal(t, i, v, "writes of one user must execute in FIFO order")
	}
}

func TestExecuteDifferentUsersRunConcurrently(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	// 用户 1 的写操作阻塞时，用户 2 的写操作不受影响
	blockerStarted := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), 1, func() error {
			close(blockerStarted)
			<-release
			return nil
		})
	}()
	<-blockerStarted

	done := make(chan error, 1)
	go func() {
		done <- m.Execute(context.Background(), 2, func() error { return nil })
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("write of another user blocked by unrelated queue")
	}
	close(release)
}

func TestExecuteQueueFull(t *testing.T) {
	m := New(&Config{QueueCapacity: 1, WriteTimeout: 5 * time.Second}, nil)
	defer m.Shutdown(context.Background())

	blockerStarted := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), 1, func() error {
			close(blockerStarted)
			<-release
			return nil
		})
	}()
	<-blockerStarted

	// 占满容量为 1 的队列
	go func() {
		_ = m.Execute(context.Background(), 1, func() error { return nil })
	}()
	time.Sleep(100 * time.Millisecond)

	err := m.Execute(context.Background(), 1, func() error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueFull)
	close(release)
}

func TestExecuteContextCancelled(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	blockerStarted := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), 1, func() error {
			close(blockerStarted)
			<-release
			return nil
		})
	}()
	<-blockerStarted

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Execute(ctx, 1, func() error { return nil })
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled write did not return")
	}
	close(release)
}

func TestExecuteAfterShutdown(t *testing.T) {
	m := New(nil, nil)
	require.NoError(t, m.Shutdown(context.Background()))

	err := m.Execute(context.Background(), 1, func() error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueClosed)
	assert.True(t, m.IsClosed())
}

func TestShutdownDrainsQueuedWrites(t *testing.T) {
	m := New(nil, nil)

	var mu sync.Mutex
	ran := 0

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Execute(context.Background(), 7, func() error {
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				ran++
				mu.Unlock()
				return nil
			})
		}()
	}
	// 等待写操作入队
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, ran, "queued writes must complete before shutdown returns")
}

func TestGetMetrics(t *testing.T) {
	m := New(&Config{QueueCapacity: 8}, nil)
	defer m.Shutdown(context.Background())

	_ = m.Execute(context.Background(), 1, func() error { return nil })
	_ = m.Execute(context.Background(), 2, func() error { return nil })

	metrics := m.GetMetrics()
	assert.Equal(t, 8, metrics.QueueCapacity)
	assert.Equal(t, 2, metrics.ActiveQueues)
	assert.Equal(t, int64(2), metrics.ExecutedCount)
	assert.Equal(t, int64(0), metrics.DroppedCount)
	assert.False(t, metrics.IsClosed)
	assert.Equal(t, 0, m.QueuedCount(1))
}
