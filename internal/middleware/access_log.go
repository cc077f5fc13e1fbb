package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessLogWithLogger 记录每个 HTTP 请求的访问日志
// websocket 升级请求也会经过这里，其日志在连接关闭时写出
func AccessLogWithLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		url := path
		if q := c.Request.URL.RawQuery; q != "" {
			url += "?" + q
		}

		startTime := time.Now()
		c.Next()

		logger.Info(path,
			zap.String("method", c.Request.Method),
			zap.String("url", url),
			zap.Int("status", c.Writer.Status()),
			zap.String("trace_id", GetTraceIDFromGin(c)),
			zap.String("start-time", startTime.Format("2006-01-02 15:04:05")),
			zap.Duration("time-cost", time.Since(startTime)),
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
			zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()),
		)
	}
}
