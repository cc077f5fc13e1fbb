/**
  @author: haierkeys
  @since: 2022/9/14
  @desc:
**/

package middleware

import (
	"github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// SimpleAuthTokenWithConfig 管理接口的固定 Token 认证
// 未配置 Token 时直接放行，适合纯内网部署
func SimpleAuthTokenWithConfig(authToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authToken == "" {
			c.Next()
			return
		}

		if tokenFromRequest(c, "authorization") != authToken {
			app.NewResponse(c).ToResponse(code.ErrorInvalidAuthToken)
			c.Abort()
			return
		}
		c.Next()
	}
}
