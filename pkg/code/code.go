package code

import (
	"fmt"
	"net/http"
)

// Code is a registered response code with a bilingual message and optional
// payload fields chained on per response.
// Code 已注册的响应码，携带双语消息和按需链式附加的负载字段
type Code struct {
	// 状态码
	code int
	// 成功或失败
	status bool
	// 双语消息
	Lang lang
	// 数据
	data     interface{}
	haveData bool
	// 草稿键
	key     string
	haveKey bool
	// 错误详细信息
	details     []string
	haveDetails bool
	// 附加上下文
	context     string
	haveContext bool
}

var errCodes = map[int]string{}
var sussCodes = map[int]string{}

// NewError registers an error code. Duplicate codes panic at init time.
// NewError 注册错误码，重复注册在启动时直接 panic
func NewError(code int, l lang) *Code {
	if _, ok := errCodes[code]; ok {
		panic(fmt.Sprintf("错误码 %d 已经存在，请更换一个", code))
	}
	errCodes[code] = l.GetMessage()
	return &Code{code: code, status: false, Lang: l}
}

// NewSuss registers a success code.
// NewSuss 注册成功码
func NewSuss(code int, l lang) *Code {
	if _, ok := sussCodes[code]; ok {
		panic(fmt.Sprintf("成功码 %d 已经存在，请更换一个", code))
	}
	sussCodes[code] = l.GetMessage()
	return &Code{code: code, status: true, Lang: l}
}

// Clone returns a fresh copy without any attached payload, the registered
// codes are shared package values and must not be mutated concurrently.
// Clone 返回不带负载的副本，注册的码是包级共享值，不能并发修改
func (e *Code) Clone() *Code {
	return &Code{
		code:   e.code,
		status: e.status,
		Lang:   e.Lang,
	}
}

// Reset drops every attached payload field.
// Reset 清空附加的负载字段
func (e *Code) Reset() *Code {
	e.data = nil
	e.haveData = false
	e.key = ""
	e.haveKey = false
	e.details = []string{}
	e.haveDetails = false
	e.context = ""
	e.haveContext = false
	return e
}

func (e *Code) Error() string {
	return e.Msg()
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Status() bool {
	return e.status
}

func (e *Code) Msg() string {
	return e.Lang.GetMessage()
}

func (e *Code) Details() []string {
	return e.details
}

func (e *Code) Data() interface{} {
	return e.data
}

// Key returns the draft key a response is scoped to.
// Key 返回响应关联的草稿键
func (e *Code) Key() string {
	return e.key
}

func (e *Code) Context() string {
	return e.context
}

func (e *Code) HaveData() bool {
	return e.haveData
}

func (e *Code) HaveKey() bool {
	return e.haveKey
}

func (e *Code) HaveDetails() bool {
	return e.haveDetails
}

func (e *Code) HaveContext() bool {
	return e.haveContext
}

func (e *Code) WithData(data interface{}) *Code {
	e.haveData = true
	e.data = data
	return e
}

// WithKey scopes the response to one draft key.
// WithKey 将响应关联到指定草稿键
func (e *Code) WithKey(key string) *Code {
	e.haveKey = true
	e.key = key
	return e
}

func (e *Code) WithDetails(details ...string) *Code {
	e.haveDetails = true
	e.details = append([]string{}, details...)
	return e
}

func (e *Code) WithContext(context string) *Code {
	e.haveContext = true
	e.context = context
	return e
}

// StatusCode HTTP 层固定返回 200，业务结果看 code 字段
func (e *Code) StatusCode() int {
	return http.StatusOK
}
