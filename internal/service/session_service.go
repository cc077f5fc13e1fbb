// Package service 实现业务逻辑层
package service

import (
	"context"
	"time"

	"github.com/haierkeys/draft-sync-service/internal/dto"
	"github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/code"
	"github.com/haierkeys/draft-sync-service/pkg/logger"
	"github.com/haierkeys/draft-sync-service/pkg/timex"
	"github.com/haierkeys/draft-sync-service/pkg/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SessionService 定义会话业务服务接口
type SessionService interface {
	// Create 校验接入密钥并签发会话凭证
	Create(ctx context.Context, params *dto.SessionCreateRequest, clientIP string) (*dto.SessionDTO, error)

	// ParseToken 解析会话凭证，供 WebSocket 授权回调使用
	ParseToken(token string) (*app.SessionEntity, error)
}

// sessionService 实现 SessionService 接口
type sessionService struct {
	tokenManager app.TokenManager
	logger       *zap.Logger
	config       *ServiceConfig
	sf           *singleflight.Group
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(tokenManager app.TokenManager, logger *zap.Logger, config *ServiceConfig) SessionService {
	return &sessionService{
		tokenManager: tokenManager,
		logger:       logger,
		config:       config,
		sf:           &singleflight.Group{},
	}
}

// WorkspaceUID derives the stable namespace id for a workspace identity.
// The same workspace always maps to the same uid, so every device editing it
// shares one draft namespace and one broadcast group.
// WorkspaceUID 从工作区标识派生稳定的命名空间 ID，
// 同一工作区在任何设备上得到同一 uid，共享草稿命名空间和广播组。
func WorkspaceUID(workspace string) int64 {
	uid := util.EncodeHash32Int(workspace)
	if uid < 0 {
		uid = -uid
	}
	if uid == 0 {
		uid = 1
	}
	return uid
}

// Create 校验接入密钥并签发会话凭证
func (s *sessionService) Create(ctx context.Context, params *dto.SessionCreateRequest, clientIP string) (*dto.SessionDTO, error) {
	if s.config == nil || s.config.Session.SecretHash == "" {
		return nil, code.ErrorPasswordNotValid
	}
	if !util.CheckPasswordHash(s.config.Session.SecretHash, params.Secret) {
		return nil, code.ErrorPasswordNotValid
	}

	if len(s.config.Session.AllowedClients) > 0 && !util.InSlice(s.config.Session.AllowedClients, params.Client) {
		return nil, code.ErrorClientNotAllowed.WithDetails(params.Client)
	}

	// 同一工作区同一客户端的并发换取合并为一次签发
	result, err, _ := s.sf.Do(params.Workspace+"|"+params.Client, func() (interface{}, error) {
		uid := WorkspaceUID(params.Workspace)

		token, err := s.tokenManager.Generate(uid, params.Client, clientIP)
		if err != nil {
			return nil, code.ErrorTokenGenerate.WithDetails(err.Error())
		}

		s.logger.Info("session token issued",
			zap.Int64(logger.FieldUID, uid),
			zap.String("client", params.Client),
			zap.String("clientVersion", params.Version))

		return &dto.SessionDTO{
			UID:       uid,
			Token:     token,
			ExpiredAt: timex.Time(time.Now().Add(s.config.Session.TokenExpiry)),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*dto.SessionDTO), nil
}

// ParseToken 解析会话凭证
func (s *sessionService) ParseToken(token string) (*app.SessionEntity, error) {
	return s.tokenManager.Parse(token)
}

// 确保 sessionService 实现了 SessionService 接口
var _ SessionService = (*sessionService)(nil)
