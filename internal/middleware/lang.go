package middleware

import (
	"strings"

	"github.com/haierkeys/draft-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// LangWithTranslator 按请求选择响应语言，query 优先于请求头
// 语言同时作用于参数校验翻译器与 code 包的消息文本
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string

		if s, exist := c.GetQuery("lang"); exist {
			lang = s
		} else if s = c.GetHeader("lang"); len(s) != 0 {
			lang = s
		}

		lang = strings.ToLower(strings.ReplaceAll(lang, "-", "_"))

		trans, found := uni.GetTranslator(lang)
		if !found {
			trans, _ = uni.GetTranslator("en")
		}
		c.Set("trans", trans)

		// 不支持的语言在 code 包内部回退到英文
		code.SetGlobalDefaultLang(lang)

		c.Next()
	}
}
