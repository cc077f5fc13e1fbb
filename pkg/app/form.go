package app

import (
	"strings"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	val "github.com/go-playground/validator/v10"
)

// ValidError 单个字段的校验错误
type ValidError struct {
	Key     string
	Message string
}

type ValidErrors []*ValidError

func (v *ValidError) Error() string {
	return v.Message
}

func (v ValidErrors) Error() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) Errors() []string {
	var errs []string
	for _, err := range v {
		errs = append(errs, err.Error())
	}
	return errs
}

// ErrorsToString 合并全部错误消息，用于错误响应的 Details
func (v ValidErrors) ErrorsToString() string {
	return strings.Join(v.Errors(), ",")
}

// MapsToString 返回字段名到错误消息的映射，用于错误响应的 Data
func (v ValidErrors) MapsToString() map[string]string {
	maps := make(map[string]string, len(v))
	for _, err := range v {
		maps[err.Key] = err.Message
	}
	return maps
}

// ValidatorInterface 统一 gin binding 验证器的获取入口
type ValidatorInterface interface {
	ValidateStruct(obj any) error
	Engine() any
}

// BindAndValid 绑定请求参数并做结构体校验，校验错误按请求语言翻译
// BindAndValid binds request params and validates the struct, translating
// failures into the request language.
func BindAndValid(c *gin.Context, v interface{}) (bool, ValidErrors) {
	var errs ValidErrors
	err := c.ShouldBind(v)
	if err != nil {
		tv := c.Value("trans")
		trans, ok := tv.(ut.Translator)
		verrs, vok := err.(val.ValidationErrors)
		if !vok || !ok {
			errs = append(errs, &ValidError{
				Key:     "body",
				Message: err.Error(),
			})
			return false, errs
		}

		for key, value := range verrs.Translate(trans) {
			errs = append(errs, &ValidError{
				Key:     key,
				Message: value,
			})
		}
		return false, errs
	}

	return true, nil
}
