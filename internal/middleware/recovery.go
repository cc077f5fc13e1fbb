package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryWithLogger 捕获 handler panic，记录现场并返回统一的内部错误响应
// 所有 panic 形态（error、字符串、其它值）都会落日志
func RecoveryWithLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				var errorMsg string
				var errField zap.Field
				switch v := r.(type) {
				case error:
					errorMsg = v.Error()
					errField = zap.Error(v)
				case string:
					errorMsg = v
					errField = zap.String("panic_value", v)
				default:
					errorMsg = fmt.Sprintf("%v", v)
					errField = zap.String("panic_value", errorMsg)
				}

				logger.Error("Recovered from panic",
					zap.Int("status", c.Writer.Status()),
					zap.String("router", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("query", c.Request.URL.RawQuery),
					zap.String("ip", c.ClientIP()),
					zap.String("user-agent", c.Request.UserAgent()),
					zap.String("request", c.Request.PostForm.Encode()),
					zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()),
					errField,
					zap.String("stack", string(debug.Stack())),
				)

				app.NewResponse(c).ToResponse(code.ErrorServerInternal.WithDetails(errorMsg))
			}
		}()

		c.Next()
	}
}
