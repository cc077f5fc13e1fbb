// Package websocket_router 提供 WebSocket 路由处理器
package websocket_router

import (
	"context"
	"errors"
	"strings"

	"github.com/haierkeys/draft-sync-service/internal/app"
	pkgapp "github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/code"
	"github.com/haierkeys/draft-sync-service/pkg/logger"
	"go.uber.org/zap"
)

// WSHandler WebSocket 基础 Handler 结构体，封装 App Container
// 所有 WebSocket Handler 都应该嵌入此结构体以获得依赖注入能力
type WSHandler struct {
	App *app.App
}

// NewWSHandler 创建 WebSocket 基础 Handler 实例
func NewWSHandler(a *app.App) *WSHandler {
	return &WSHandler{App: a}
}

// wsTraceID 取客户端上保存的 Trace ID
// 连接关闭后 HTTP context 可能已失效，所以不从那里取
func wsTraceID(c *pkgapp.WebsocketClient) string {
	if c == nil {
		return ""
	}
	return c.TraceID
}

// logError 记录错误日志，包含 Trace ID
func (h *WSHandler) logError(c *pkgapp.WebsocketClient, method string, err error) {
	// 连接关闭引起的错误在 context 已取消时降级为 debug
	if isNetworkClosedError(err) && c != nil && c.Context().Err() != nil {
		h.logDebug(c, method, zap.Error(err))
		return
	}

	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String(logger.FieldTraceID, wsTraceID(c)),
	)
}

// logDebug 记录调试日志，包含 Trace ID
func (h *WSHandler) logDebug(c *pkgapp.WebsocketClient, method string, fields ...zap.Field) {
	h.App.Logger().Debug(method, append([]zap.Field{zap.String(logger.FieldTraceID, wsTraceID(c))}, fields...)...)
}

// logInfo 记录信息日志，包含 Trace ID
func (h *WSHandler) logInfo(c *pkgapp.WebsocketClient, method string, fields ...zap.Field) {
	h.App.Logger().Info(method, append([]zap.Field{zap.String(logger.FieldTraceID, wsTraceID(c))}, fields...)...)
}

// respondError 统一错误响应方法
// 记录错误日志并发送包含 Details 的错误响应给客户端
func (h *WSHandler) respondError(c *pkgapp.WebsocketClient, codeErr *code.Code, err error, method string) {
	h.logError(c, method, err)
	c.ToResponse(codeErr.WithDetails(err.Error()))
}

// respondErrorWithData 带数据的统一错误响应方法
// 记录错误日志并发送包含 Details 和 Data 的错误响应给客户端
func (h *WSHandler) respondErrorWithData(c *pkgapp.WebsocketClient, codeErr *code.Code, err error, data interface{}, method string) {
	h.logError(c, method, err)
	c.ToResponse(codeErr.WithDetails(err.Error()).WithData(data))
}

// respondServiceError 业务层错误响应方法
// 业务层直接返回 *code.Code，原样下发；其余错误统一按内部错误返回
func (h *WSHandler) respondServiceError(c *pkgapp.WebsocketClient, err error, method string, action ...string) {
	h.logError(c, method, err)

	var codeErr *code.Code
	if errors.As(err, &codeErr) {
		c.ToResponse(codeErr, action...)
		return
	}
	c.ToResponse(code.ErrorServerInternal.WithDetails(err.Error()), action...)
}

// isNetworkClosedError 检查是否为网络关闭相关的错误
func isNetworkClosedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "broken pipe")
}
