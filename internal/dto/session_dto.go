package dto

import "github.com/haierkeys/draft-sync-service/pkg/timex"

// SessionCreateRequest Request parameters for exchanging the access secret
// for a session token
// SessionCreateRequest 用接入密钥换取会话凭证的请求参数
type SessionCreateRequest struct {
	Secret    string `json:"secret" form:"secret" binding:"required"`                     // Instance access secret // 实例接入密钥
	Client    string `json:"client" form:"client" binding:"required"`                     // Client name, e.g. "obsidian" // 客户端名称
	Workspace string `json:"workspace" form:"workspace" binding:"required,draftkey"`      // Workspace identity, drafts are namespaced by it // 工作区标识，草稿按其隔离
	Version   string `json:"version" form:"version" example:"1.2.0"`                      // Client version for upgrade hints // 客户端版本，用于升级提示
}

// SessionDTO Session token response
// SessionDTO 会话凭证响应对象
type SessionDTO struct {
	UID       int64      `json:"uid"`       // Namespace id derived from the workspace // 由工作区派生的命名空间 ID
	Token     string     `json:"token"`     // JWT session token // JWT 会话凭证
	ExpiredAt timex.Time `json:"expiredAt"` // Token expiry time // 凭证过期时间
}
