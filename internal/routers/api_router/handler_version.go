package api_router

import (
	"github.com/gin-gonic/gin"
	"github.com/haierkeys/draft-sync-service/internal/app"
	"github.com/haierkeys/draft-sync-service/internal/dto"
	pkgapp "github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/code"
)

// VersionHandler version info API router handler
// VersionHandler 版本信息 API 路由处理器
// Uses App Container to inject dependencies
// 使用 App Container 注入依赖
type VersionHandler struct {
	*Handler
}

// NewVersionHandler creates VersionHandler instance
// NewVersionHandler 创建 VersionHandler 实例
func NewVersionHandler(a *app.App) *VersionHandler {
	return &VersionHandler{
		Handler: NewHandler(a),
	}
}

// ServerVersion retrieves server version information
// @Summary Get server version info
// @Description Get current server software version, Git tag, build time and upgrade hints.
// @Description Pass the client's own version to also receive client upgrade hints.
// @Tags System
// @Produce json
// @Param params query dto.VersionGetRequest false "Version Parameters"
// @Success 200 {object} pkgapp.Res{data=dto.VersionDTO} "Success"
// @Router /api/version [get]
func (h *VersionHandler) ServerVersion(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionGetRequest{}

	// Version is optional, a bind failure just means no upgrade hints
	// 版本参数可选，绑定失败仅意味着不返回升级提示
	_ = c.ShouldBind(params)

	versionInfo := h.App.Version()
	checkInfo := h.App.CheckVersion(params.Version)
	response.ToResponse(code.Success.WithData(dto.VersionDTO{
		Version:              versionInfo.Version,
		GitTag:               versionInfo.GitTag,
		BuildTime:            versionInfo.BuildTime,
		VersionIsNew:         checkInfo.VersionIsNew,
		VersionNewName:       checkInfo.VersionNewName,
		VersionNewLink:       checkInfo.VersionNewLink,
		ClientVersionIsNew:   checkInfo.ClientVersionIsNew,
		ClientVersionNewName: checkInfo.ClientVersionNewName,
		ClientVersionNewLink: checkInfo.ClientVersionNewLink,
	}))
}
