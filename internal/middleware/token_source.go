package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// tokenFromRequest 依次按名称从 query 与请求头取鉴权值
// query 区分大小写，全小写与首字母大写都接受，请求头本身不分大小写
func tokenFromRequest(c *gin.Context, names ...string) string {
	for _, name := range names {
		if s, exist := c.GetQuery(name); exist && s != "" {
			return s
		}
		if title := strings.ToUpper(name[:1]) + name[1:]; title != name {
			if s, exist := c.GetQuery(title); exist && s != "" {
				return s
			}
		}
		if s := c.GetHeader(name); s != "" {
			return s
		}
	}
	return ""
}
