// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/draft-sync-service/internal/autosave"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore"
	"github.com/haierkeys/draft-sync-service/pkg/util"
	"github.com/haierkeys/draft-sync-service/pkg/workerpool"
	"github.com/haierkeys/draft-sync-service/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File     string         `yaml:"-"` // 配置文件路径，不序列化
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	App      AppSettings    `yaml:"app"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Store    kvstore.Config `yaml:"store"`
	Security SecurityConfig `yaml:"security"`
	Tracer   TracerConfig   `yaml:"tracer"`
	Backup   BackupConfig   `yaml:"backup"`
	Ngrok    NgrokConfig    `yaml:"ngrok"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File 日志文件路径，默认为 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9000"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址
	PrivateHttpListen string `yaml:"private-http-listen" default:":9001"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	// AuthTokenKey 会话 Token 的签名密钥，留空则首次启动时自动生成
	AuthTokenKey string `yaml:"auth-token-key"`
	// TokenExpiry Token 过期时间，支持格式：7d（天）、24h（小时）、30m（分钟）
	TokenExpiry string `yaml:"token-expiry" default:"365d"`
	// SessionSecretHash 会话接入密钥的 bcrypt 哈希，留空则首次启动时自动生成
	SessionSecretHash string `yaml:"session-secret-hash"`
	// PrivateAuthToken 私有管理接口的访问令牌，留空则不鉴权
	PrivateAuthToken string `yaml:"private-auth-token"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultPageSize 默认页面大小
	DefaultPageSize int `yaml:"default-page-size" default:"10"`
	// MaxPageSize 最大页面大小
	MaxPageSize int `yaml:"max-page-size" default:"100"`
	// DefaultContextTimeout 默认上下文超时时间（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
	// DefaultLang 默认响应语言
	DefaultLang string `yaml:"default-lang" default:"en"`
	// IsReturnSuccess 成功响应是否返回完整消息体
	IsReturnSuccess bool `yaml:"is-return-success" default:"false"`
	// CheckVersion 是否启动新版本检查任务
	CheckVersion bool `yaml:"check-version" default:"true"`
	// AllowedClients 允许接入的编辑器客户端，空表示不限制
	AllowedClients []string `yaml:"allowed-clients"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"100"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"1000"`

	// Write Queue 配置
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"100"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"30s"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`
}

// AutosaveConfig 自动保存配置
type AutosaveConfig struct {
	// DebounceInterval 最后一次编辑后到触发写入的静默时长
	DebounceInterval string `yaml:"debounce-interval" default:"2s"`
	// FeedbackDelay 写入成功后 saving 状态至少保持的时长
	FeedbackDelay string `yaml:"feedback-delay" default:"500ms"`
	// SessionIdleTimeout 干净草稿会话空闲多久后被回收
	SessionIdleTimeout string `yaml:"session-idle-timeout" default:"30m"`
	// ShutdownFlushTimeout 关闭时等待未保存草稿落盘的时间上限
	ShutdownFlushTimeout string `yaml:"shutdown-flush-timeout" default:"10s"`
	// MaxDocumentSize 单个草稿内容大小上限
	MaxDocumentSize string `yaml:"max-document-size" default:"1MB"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称，默认 X-Trace-ID
	Header string `yaml:"header" default:"X-Trace-ID"`
}

// BackupConfig 草稿备份配置
type BackupConfig struct {
	// Enabled 是否启用定时备份
	Enabled bool `yaml:"enabled" default:"false"`
	// Cron 备份调度表达式
	Cron string `yaml:"cron" default:"0 3 * * *"`
	// Dir 备份文件输出目录
	Dir string `yaml:"dir" default:"storage/backup"`
	// Retention 备份保留时长，过期的备份会被清理
	Retention string `yaml:"retention" default:"7d"`
	// GitEnabled 是否将导出的草稿提交到 git 仓库
	GitEnabled bool `yaml:"git-enabled" default:"false"`
	// GitRemote 远端仓库地址，留空则仅本地提交
	GitRemote string `yaml:"git-remote"`
	// GitUsername 推送远端时的用户名
	GitUsername string `yaml:"git-username"`
	// GitPassword 推送远端时的密码或访问令牌
	GitPassword string `yaml:"git-password"`
}

// NgrokConfig 内网穿透配置
type NgrokConfig struct {
	// Enabled 是否通过 ngrok 暴露服务
	Enabled bool `yaml:"enabled" default:"false"`
	// AuthToken ngrok 授权令牌
	AuthToken string `yaml:"auth-token"`
	// Domain 自定义域名，留空则使用随机域名
	Domain string `yaml:"domain"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	err = yaml.Unmarshal(file, c)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	// defaults.Set 只有在字段为该类型的零值时才会填充
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}

	return cfg
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.App.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueueCapacity
	}
	if c.App.WriteQueueTimeout != "" {
		if timeout, err := util.ParseDuration(c.App.WriteQueueTimeout); err == nil {
			cfg.WriteTimeout = timeout
		}
	}
	if c.App.WriteQueueIdleTime != "" {
		if idleTime, err := util.ParseDuration(c.App.WriteQueueIdleTime); err == nil {
			cfg.IdleTimeout = idleTime
		}
	}

	return cfg
}

// GetAutosaveConfig 获取自动保存管理器配置
func (c *AppConfig) GetAutosaveConfig() *autosave.ManagerConfig {
	cfg := autosave.DefaultManagerConfig()

	if c.Autosave.DebounceInterval != "" {
		if d, err := util.ParseDuration(c.Autosave.DebounceInterval); err == nil {
			cfg.DebounceInterval = d
		}
	}
	if c.Autosave.FeedbackDelay != "" {
		if d, err := util.ParseDuration(c.Autosave.FeedbackDelay); err == nil {
			cfg.FeedbackDelay = d
		}
	}
	if c.Autosave.SessionIdleTimeout != "" {
		if d, err := util.ParseDuration(c.Autosave.SessionIdleTimeout); err == nil {
			cfg.IdleTimeout = d
		}
	}
	if c.Autosave.ShutdownFlushTimeout != "" {
		if d, err := util.ParseDuration(c.Autosave.ShutdownFlushTimeout); err == nil {
			cfg.FlushTimeout = d
		}
	}

	return cfg
}

// GetMaxDocumentSize 获取单个草稿内容大小上限（字节）
func (c *AppConfig) GetMaxDocumentSize() int64 {
	return util.ParseSize(c.Autosave.MaxDocumentSize, 1024*1024)
}

// GetTokenExpiry 获取 Token 过期时间
func (c *AppConfig) GetTokenExpiry() time.Duration {
	if expiry, err := util.ParseDuration(c.Security.TokenExpiry); err == nil {
		return expiry
	}
	return 365 * 24 * time.Hour // 理论上不会走到这里，因为有默认值
}

// GetBackupRetention 获取备份保留时长
func (c *AppConfig) GetBackupRetention() time.Duration {
	if retention, err := util.ParseDuration(c.Backup.Retention); err == nil {
		return retention
	}
	return 7 * 24 * time.Hour
}

// GetStoreConfig 获取存储配置，注入运行模式
func (c *AppConfig) GetStoreConfig() *kvstore.Config {
	cfg := c.Store
	cfg.RunMode = c.Server.RunMode
	return &cfg
}
