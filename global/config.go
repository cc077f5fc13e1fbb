package global

import (
	"github.com/haierkeys/draft-sync-service/pkg/validator"
)

// AppSettings 是 pkg 层读取的运行时开关，启动时从应用配置装载
type AppSettings struct {
	IsReturnSuccess bool
	DefaultLang     string
}

type config struct {
	App AppSettings
}

// Config 保存进程级运行开关，完整配置见 internal/app.AppConfig
var Config = &config{
	App: AppSettings{
		IsReturnSuccess: true,
		DefaultLang:     "en",
	},
}

// Validator 由启动流程注入，WebSocket 消息校验依赖它
var Validator *validator.CustomValidator
