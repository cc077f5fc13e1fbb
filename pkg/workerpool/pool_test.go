package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestSubmitRunsTask(t *testing.T) {
	p := New(nil, nil)
	defer p.Shutdown(context.Background())

	var ran atomic.Bool
	err := p.Submit(context.Background(), func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !ran.Load() {
		t.Error("task did not run")
	}
}

func TestSubmitReturnsTaskError(t *testing.T) {
	p := New(nil, nil)
	defer p.Shutdown(context.Background())

	wantErr := errors.New("task failed")
	err := p.Submit(context.Background(), func(ctx context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Submit() error = %v, want %v", err, wantErr)
	}
}

func TestSubmitAsyncEventuallyRuns(t *testing.T) {
	p := New(nil, nil)
	defer p.Shutdown(context.Background())

	var ran atomic.Bool
	if err := p.SubmitAsync(context.Background(), func(ctx context.Context) error {
		ran.Store(true)
		return nil
	}); err != nil {
		t.Fatalf("SubmitAsync() error = %v", err)
	}

	waitUntil(t, ran.Load)
}

func TestSubmitAfterShutdown(t *testing.T) {
	p := New(nil, nil)
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	err := p.Submit(context.Background(), func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrWorkerPoolClosed) {
		t.Errorf("Submit() error = %v, want ErrWorkerPoolClosed", err)
	}
	if err := p.SubmitAsync(context.Background(), func(ctx context.Context) error { return nil }); !errors.Is(err, ErrWorkerPoolClosed) {
		t.Errorf("SubmitAsync() error = %v, want ErrWorkerPoolClosed", err)
	}
}

func TestQueueFull(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 1}, nil)
	defer p.Shutdown(context.Background())

	release := make(chan struct{})

	// 占住唯一的 worker
	if err := p.SubmitAsync(context.Background(), func(ctx context.Context) error {
		<-release
		return nil
	}); err != nil {
		t.Fatalf("SubmitAsync() error = %v", err)
	}
	waitUntil(t, func() bool { return p.ActiveCount() == 1 })

	// 占住唯一的队列槽位
	if err := p.SubmitAsync(context.Background(), func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("SubmitAsync() error = %v", err)
	}

	// 队列已满
	err := p.SubmitAsync(context.Background(), func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrWorkerPoolFull) {
		t.Errorf("SubmitAsync() error = %v, want ErrWorkerPoolFull", err)
	}

	m := p.GetMetrics()
	if m.SubmittedCount != 2 {
		t.Errorf("SubmittedCount = %d, want 2", m.SubmittedCount)
	}
	if m.DroppedCount != 1 {
		t.Errorf("DroppedCount = %d, want 1", m.DroppedCount)
	}

	close(release)
}

func TestShutdownWaitsForQueuedTasks(t *testing.T) {
	p := New(&Config{MaxWorkers: 2, QueueSize: 10}, nil)

	var completed atomic.Int32
	for i := 0; i < 5; i++ {
		if err := p.SubmitAsync(context.Background(), func(ctx context.Context) error {
			time.Sleep(20 * time.Millisecond)
			completed.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("SubmitAsync() error = %v", err)
		}
	}

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if got := completed.Load(); got != 5 {
		t.Errorf("completed = %d, want 5", got)
	}
	if !p.IsClosed() {
		t.Error("IsClosed() = false after Shutdown")
	}

	m := p.GetMetrics()
	if m.CompletedCount != 5 {
		t.Errorf("CompletedCount = %d, want 5", m.CompletedCount)
	}
}

func TestGetMetrics(t *testing.T) {
	p := New(&Config{MaxWorkers: 3, QueueSize: 7}, nil)
	defer p.Shutdown(context.Background())

	m := p.GetMetrics()
	if m.MaxWorkers != 3 {
		t.Errorf("MaxWorkers = %d, want 3", m.MaxWorkers)
	}
	if m.QueueCapacity != 7 {
		t.Errorf("QueueCapacity = %d, want 7", m.QueueCapacity)
	}
	if m.IsClosed {
		t.Error("IsClosed = true for running pool")
	}
}
