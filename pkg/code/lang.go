package code

import (
	"errors"
	"fmt"
	"reflect"
)

// lang holds one message per supported language. Adding a language is adding
// a field, the lookup below walks the struct by field name.
// lang 按语言存放消息文本，新增语言即新增字段，查找按字段名反射进行
type lang struct {
	en    string // English // 英文
	zh_cn string // Chinese // 中文
}

// 默认语言
var lng = "en"

const FALLBACK_LNG = "en"

// GetMessage returns the message for the active language, falling back to
// the default language and then to a placeholder.
// GetMessage 返回当前语言的消息，缺失时回退到默认语言，再缺失给占位文本
func (l lang) GetMessage() string {
	if lng == "" {
		lng = FALLBACK_LNG
	}
	val := reflect.ValueOf(l)
	field := val.FieldByName(lng)
	if field.IsValid() && field.String() != "" {
		return field.String()
	}
	fallbackField := val.FieldByName(FALLBACK_LNG)
	if fallbackField.IsValid() && fallbackField.String() != "" {
		return fallbackField.String()
	}
	return fmt.Sprintf("No message available for language: %s", lng)
}

// GetSupportedLanguages lists every language the lang type carries.
// GetSupportedLanguages 列出 lang 类型支持的全部语言
func GetSupportedLanguages() []string {
	var languages []string
	typ := reflect.TypeOf(lang{})
	for i := 0; i < typ.NumField(); i++ {
		languages = append(languages, typ.Field(i).Name)
	}
	return languages
}

// SetGlobalDefaultLang switches the process-wide response language.
// SetGlobalDefaultLang 切换进程级响应语言
func SetGlobalDefaultLang(language string) error {
	for _, supported := range GetSupportedLanguages() {
		if language == supported {
			lng = language
			return nil
		}
	}
	lng = FALLBACK_LNG
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

// GetGlobalDefaultLang 返回当前进程级响应语言
func GetGlobalDefaultLang() string {
	return lng
}
