package api_router

import (
	"github.com/gin-gonic/gin"
	"github.com/haierkeys/draft-sync-service/internal/app"
	"github.com/haierkeys/draft-sync-service/internal/dto"
	pkgapp "github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/code"
	apperrors "github.com/haierkeys/draft-sync-service/pkg/errors"
	"go.uber.org/zap"
)

// SessionHandler session API router handler
// SessionHandler 会话 API 路由处理器
// Uses App Container to inject dependencies
// 使用 App Container 注入依赖
type SessionHandler struct {
	*Handler
}

// NewSessionHandler creates SessionHandler instance
// NewSessionHandler 创建 SessionHandler 实例
func NewSessionHandler(a *app.App) *SessionHandler {
	return &SessionHandler{
		Handler: NewHandler(a),
	}
}

// Create exchanges the access secret for a session token
// @Summary Create session
// @Description Exchange the instance access secret for a JWT session token scoped to a workspace.
// @Description 用实例接入密钥换取绑定工作区的 JWT 会话凭证。
// @Tags Session
// @Accept json
// @Produce json
// @Param params body dto.SessionCreateRequest true "Session Parameters"
// @Success 200 {object} pkgapp.Res{data=dto.SessionDTO} "Success"
// @Failure 400 {object} pkgapp.Res "Invalid Parameters / Invalid Secret"
// @Router /api/session [post]
func (h *SessionHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.SessionCreateRequest{}

	// Parameter binding and validation
	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("SessionHandler.Create.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// Get request context and client IP
	// 获取请求上下文和客户端 IP
	ctx := c.Request.Context()
	clientIP := c.ClientIP()

	sessionDTO, err := h.App.SessionService.Create(ctx, params, clientIP)
	if err != nil {
		h.logError(ctx, "SessionHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(sessionDTO))
}
