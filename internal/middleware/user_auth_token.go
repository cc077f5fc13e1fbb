package middleware

import (
	"github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// UserAuthTokenWithConfig 会话 Token 认证中间件（使用注入的密钥）
// authorization 与 token 两种携带方式都接受，
// websocket 升级请求没法自定义请求头，编辑器端用 query 传
func UserAuthTokenWithConfig(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := app.NewResponse(c)

		token := tokenFromRequest(c, "authorization", "token")
		if token == "" {
			response.ToResponse(code.ErrorNotUserAuthToken)
			c.Abort()
			return
		}

		if err := app.SetTokenToContextWithKey(c, token, secretKey); err != nil {
			response.ToResponse(code.ErrorInvalidUserAuthToken)
			c.Abort()
			return
		}

		c.Next()
	}
}
