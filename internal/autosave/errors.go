package autosave

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by operations on a controller after Close.
	// ErrClosed 控制器已关闭后再调用操作时返回
	ErrClosed = errors.New("autosave: controller closed")
	// ErrManagerClosed is returned by Acquire after the manager shut down.
	// ErrManagerClosed 管理器关闭后再获取会话时返回
	ErrManagerClosed = errors.New("autosave: manager closed")
)

// DecodeError reports a malformed stored record. It is recovered locally,
// the controller starts empty and the caller sees "no saved data".
// DecodeError 存储记录损坏，本地降级为无数据启动
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode draft record %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StoreWriteError reports a failed set. It surfaces as StatusError and is
// never retried automatically.
// StoreWriteError 写入失败，表现为 error 状态，不自动重试
type StoreWriteError struct {
	Key string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("write draft record %q: %v", e.Key, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

// StoreRemoveError reports a failed remove during Clear. It is logged only,
// the local reset stands.
// StoreRemoveError 清除时删除存储条目失败，仅记录日志，本地重置不受影响
type StoreRemoveError struct {
	Key string
	Err error
}

func (e *StoreRemoveError) Error() string {
	return fmt.Sprintf("remove draft record %q: %v", e.Key, e.Err)
}

func (e *StoreRemoveError) Unwrap() error {
	return e.Err
}
