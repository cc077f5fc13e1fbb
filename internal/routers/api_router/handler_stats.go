package api_router

import (
	"github.com/gin-gonic/gin"
	"github.com/haierkeys/draft-sync-service/internal/app"
	pkgapp "github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/code"
	apperrors "github.com/haierkeys/draft-sync-service/pkg/errors"
)

// StatsHandler 服务状态 API 路由处理器
// 使用 App Container 注入依赖
type StatsHandler struct {
	*Handler
}

// NewStatsHandler 创建 StatsHandler 实例
func NewStatsHandler(a *app.App, wss *pkgapp.WebsocketServer) *StatsHandler {
	return &StatsHandler{
		Handler: NewHandlerWithWSS(a, wss),
	}
}

// Stats 采集服务运行状态
// @Summary 获取服务运行状态
// @Description 返回进程、主机、会话池、写队列与存储的运行指标
// @Tags 管理
// @Security PrivateAuthToken
// @Param Authorization header string true "管理 Token"
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.StatsDTO} "成功"
// @Router /api/admin/stats [get]
func (h *StatsHandler) Stats(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	stats, err := h.App.StatsService.Collect(ctx, h.WSS.ClientCount())
	if err != nil {
		h.logError(ctx, "StatsHandler.Stats", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(stats))
}
