// Package clockx 抽象定时能力，便于在测试中使用假时钟
// Package clockx abstracts timers so tests can drive time deterministically
package clockx

import "time"

// Timer 可取消的定时器句柄
// Timer is a cancellable timer handle
type Timer interface {
	// Stop 取消定时器，返回是否在触发前取消成功
	// Stop cancels the timer and reports whether it was still pending
	Stop() bool
}

// Clock 提供当前时间与延迟回调
// Clock provides wall time and delayed callbacks
type Clock interface {
	Now() time.Time
	// AfterFunc 在 d 之后于独立 goroutine 中执行 fn
	// AfterFunc runs fn after d on its own goroutine
	AfterFunc(d time.Duration, fn func()) Timer
}

type systemClock struct{}

type systemTimer struct {
	t *time.Timer
}

// System returns the runtime-backed Clock
// System 返回真实时钟
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return &systemTimer{t: time.AfterFunc(d, fn)}
}

func (s *systemTimer) Stop() bool {
	return s.t.Stop()
}
