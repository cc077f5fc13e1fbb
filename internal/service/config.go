// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

import "time"

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	Session SessionServiceConfig // Session related config // 会话相关配置
	Draft   DraftServiceConfig   // Draft related config // 草稿相关配置
	Backup  BackupServiceConfig  // Backup related config // 备份相关配置
}

// SessionServiceConfig session service configuration
// SessionServiceConfig 会话服务配置
type SessionServiceConfig struct {
	// SecretHash bcrypt hash the access secret is checked against
	// SecretHash 接入密钥校验所用的 bcrypt 哈希
	SecretHash string
	// TokenExpiry lifetime of issued session tokens
	// TokenExpiry 签发的会话凭证有效期
	TokenExpiry time.Duration
	// AllowedClients editor clients allowed to open sessions, empty means any
	// AllowedClients 允许接入的编辑器客户端，空表示不限制
	AllowedClients []string
}

// DraftServiceConfig draft service configuration
// DraftServiceConfig 草稿服务配置
type DraftServiceConfig struct {
	// MaxDocumentSize upper bound in bytes for title plus content
	// MaxDocumentSize 标题与正文合计的字节上限
	MaxDocumentSize int64
}

// BackupServiceConfig backup service configuration
// BackupServiceConfig 备份服务配置
type BackupServiceConfig struct {
	// Enabled whether scheduled backups run at all
	// Enabled 是否启用定时备份
	Enabled bool
	// Cron five-field schedule expression for exports
	// Cron 导出调度的五段 cron 表达式
	Cron string
	// Dir directory archives and the git mirror live under
	// Dir 归档文件与 git 镜像所在目录
	Dir string
	// Retention how long archives are kept before cleanup
	// Retention 归档保留时长，过期清理
	Retention time.Duration
	// GitEnabled whether exports are committed to a git mirror
	// GitEnabled 是否将导出内容提交到 git 镜像
	GitEnabled bool
	// GitRemote remote URL to push to, empty keeps commits local
	// GitRemote 推送的远端地址，留空则仅本地提交
	GitRemote string
	// GitUsername username for remote pushes
	// GitUsername 推送远端时的用户名
	GitUsername string
	// GitPassword password or access token for remote pushes
	// GitPassword 推送远端时的密码或访问令牌
	GitPassword string
}
