// Package safe_close 管理一组后台协程的统一退出
// 每个协程通过 Attach 注册，收到关闭信号后结束并上报 done
package safe_close

import (
	"sync"
)

type SafeClose struct {
	closeOnce   sync.Once
	closeSignal chan struct{}
	wg          sync.WaitGroup

	m   sync.Mutex
	err error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{
		closeSignal: make(chan struct{}),
	}
}

// Attach 注册一个受管协程
// f 必须监听 closeSignal，并在退出前调用 done
func (s *SafeClose) Attach(f func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var doneOnce sync.Once
	done := func() {
		doneOnce.Do(s.wg.Done)
	}
	go f(done, s.closeSignal)
}

// SendCloseSignal 发出关闭信号，只有首次调用的 err 会被记录
func (s *SafeClose) SendCloseSignal(err error) {
	s.closeOnce.Do(func() {
		s.m.Lock()
		s.err = err
		s.m.Unlock()
		close(s.closeSignal)
	})
}

// CloseSignal 返回关闭信号通道，供只读监听
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.closeSignal
}

// WaitClosed 阻塞到所有受管协程退出，返回首个关闭原因
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.m.Lock()
	defer s.m.Unlock()
	return s.err
}
