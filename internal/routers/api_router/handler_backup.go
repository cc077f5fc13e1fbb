package api_router

import (
	"github.com/gin-gonic/gin"
	"github.com/haierkeys/draft-sync-service/internal/app"
	pkgapp "github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/code"
	apperrors "github.com/haierkeys/draft-sync-service/pkg/errors"
)

// BackupHandler 备份 API 路由处理器
// 使用 App Container 注入依赖
type BackupHandler struct {
	*Handler
}

// NewBackupHandler 创建 BackupHandler 实例
func NewBackupHandler(a *app.App) *BackupHandler {
	return &BackupHandler{
		Handler: NewHandler(a),
	}
}

// Run 立即执行一次备份
// @Summary 触发备份
// @Description 立即执行一次归档备份，配置了 Git 镜像时一并推送
// @Tags 管理
// @Security PrivateAuthToken
// @Param Authorization header string true "管理 Token"
// @Produce json
// @Success 200 {object} pkgapp.Res "成功"
// @Failure 400 {object} pkgapp.Res "备份未启用 / 任务执行中"
// @Router /api/admin/backup/run [post]
func (h *BackupHandler) Run(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	if err := h.App.BackupService.Run(ctx); err != nil {
		h.logError(ctx, "BackupHandler.Run", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success)
}
