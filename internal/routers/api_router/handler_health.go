package api_router

import (
	"errors"
	"time"

	"github.com/haierkeys/draft-sync-service/internal/app"
	pkgapp "github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/code"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore"

	"github.com/gin-gonic/gin"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string  `json:"status"`  // "healthy" 或 "unhealthy"
	Version string  `json:"version"` // 服务版本号
	Uptime  float64 `json:"uptime"`  // 运行时间（秒）
	Store   string  `json:"store"`   // "connected" 或 "error"
}

// Check 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态，包括持久化存储连通性
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	response := HealthResponse{
		Status:  "healthy",
		Version: h.App.Version().Version,
		Uptime:  time.Since(h.App.StartTime()).Seconds(),
		Store:   "connected",
	}

	// 用一个不存在的键探测存储，ErrNotExist 说明驱动可达
	_, err := h.App.Store.Get(c.Request.Context(), "health:probe")
	if err != nil && !errors.Is(err, kvstore.ErrNotExist) {
		response.Status = "unhealthy"
		response.Store = "error"
		pkgapp.NewResponse(c).ToResponse(code.Failed.WithData(response))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(response))
}
