// Package validator 提供 gin binding 的自定义验证器与草稿域校验标签
package validator

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// CustomValidator 实现 gin 的 binding.StructValidator
type CustomValidator struct {
	once     sync.Once
	Validate *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

// ValidateStruct 只对结构体执行校验，其他类型直接放行
func (v *CustomValidator) ValidateStruct(obj any) error {
	if kindOfData(obj) == reflect.Struct {
		v.lazyinit()
		if err := v.Validate.Struct(obj); err != nil {
			return err
		}
	}
	return nil
}

func (v *CustomValidator) Engine() any {
	v.lazyinit()
	return v.Validate
}

func (v *CustomValidator) lazyinit() {
	v.once.Do(func() {
		v.Validate = validator.New()
		v.Validate.SetTagName("binding")
	})
}

func kindOfData(data any) reflect.Kind {
	value := reflect.ValueOf(data)
	valueType := value.Kind()
	if valueType == reflect.Ptr {
		valueType = value.Elem().Kind()
	}
	return valueType
}

// RegisterCustom 注册草稿域的自定义校验标签
// 必须在 binding.Validator 初始化之后调用
func RegisterCustom() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("draftkey", validDraftKey)
}

var draftKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._/-]*$`)

// validDraftKey 校验草稿键片段，拒绝空白与路径穿越
func validDraftKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	if key == "" || len(key) > 256 {
		return false
	}
	if strings.Contains(key, "..") {
		return false
	}
	return draftKeyPattern.MatchString(key)
}
