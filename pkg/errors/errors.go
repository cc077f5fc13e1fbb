// Package errors renders the JSON envelope the REST API writes when a request
// fails. Services raise *code.Code values internally; whatever error reaches a
// handler gets translated here, with the request trace id attached so a client
// report can be matched to server logs. Causes stay in the logs, the envelope
// never leaks them.
// Package errors 是 REST 接口的错误出口。服务层内部统一抛 *code.Code，
// 到达 handler 的错误在这里翻译成带 traceId 的 JSON 错误响应，
// 底层原因只进日志，不随响应外流
package errors

import (
	"errors"
	"net/http"
	"time"

	"github.com/haierkeys/draft-sync-service/internal/middleware"
	"github.com/haierkeys/draft-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// AppError 错误响应体，字段与成功响应的 code/message 对齐
type AppError struct {
	Code      int       `json:"code"`
	Message   string    `json:"message"`
	Details   []string  `json:"details,omitempty"`
	TraceID   string    `json:"traceId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	return e.Message
}

// ErrorResponse 将任意错误写成 JSON 错误响应
// 已注册的 *code.Code（包括被 fmt.Errorf 包装过的）按原码返回，
// 其余一律折叠为内部错误
func ErrorResponse(c *gin.Context, err error) {
	traceID := middleware.GetTraceIDFromGin(c)

	var codeErr *code.Code
	if errors.As(err, &codeErr) {
		c.JSON(http.StatusOK, &AppError{
			Code:      codeErr.Code(),
			Message:   codeErr.Msg(),
			Details:   codeErr.Details(),
			TraceID:   traceID,
			Timestamp: time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, &AppError{
		Code:      code.ErrorServerInternal.Code(),
		Message:   code.ErrorServerInternal.Msg(),
		TraceID:   traceID,
		Timestamp: time.Now(),
	})
}
