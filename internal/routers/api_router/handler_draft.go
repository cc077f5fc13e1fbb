package api_router

import (
	"github.com/gin-gonic/gin"
	"github.com/haierkeys/draft-sync-service/internal/app"
	"github.com/haierkeys/draft-sync-service/internal/autosave"
	"github.com/haierkeys/draft-sync-service/internal/dto"
	pkgapp "github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/code"
	apperrors "github.com/haierkeys/draft-sync-service/pkg/errors"
	"go.uber.org/zap"
)

// DraftHandler 草稿 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type DraftHandler struct {
	*Handler
}

// NewDraftHandler 创建 DraftHandler 实例
func NewDraftHandler(a *app.App, wss *pkgapp.WebsocketServer) *DraftHandler {
	return &DraftHandler{
		Handler: NewHandlerWithWSS(a, wss),
	}
}

// Edit 编辑草稿（防抖路径）
// @Summary 编辑草稿
// @Description 整体替换草稿标题与正文，重置防抖窗口，到期后自动落盘
// @Tags 草稿
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.DraftEditRequest true "编辑参数"
// @Success 200 {object} pkgapp.Res{data=dto.DraftStatusDTO} "成功"
// @Router /api/draft [put]
func (h *DraftHandler) Edit(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.DraftEditRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("DraftHandler.Edit.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("DraftHandler.Edit err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	status, err := h.App.DraftService.Edit(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "DraftHandler.Edit", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	// 把最新文档推送给同账号的其他设备
	h.WSS.BroadcastToUser(uid, code.Success.WithData(&dto.DraftDTO{
		Slug:        params.Slug,
		Title:       params.Title,
		Content:     params.Content,
		Status:      status.Status,
		LastSavedAt: status.LastSavedAt,
		Size:        int64(len(params.Title) + len(params.Content)),
	}), dto.DraftModifySync)

	response.ToResponse(code.Success.WithData(status))
}

// Save 立即保存草稿
// @Summary 保存草稿
// @Description 跳过防抖窗口立即落盘，请求携带文档时先作为编辑生效再保存
// @Tags 草稿
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.DraftSaveRequest true "保存参数"
// @Success 200 {object} pkgapp.Res{data=dto.DraftDTO} "成功"
// @Router /api/draft/save [post]
func (h *DraftHandler) Save(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.DraftSaveRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("DraftHandler.Save.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("DraftHandler.Save err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	draft, err := h.App.DraftService.Save(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "DraftHandler.Save", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	h.WSS.BroadcastToUser(uid, code.Success.WithData(draft), dto.DraftModifySync)

	response.ToResponse(code.Success.WithData(draft))
}

// Clear 清除草稿
// @Summary 清除草稿
// @Description 丢弃内存中的文档并删除已落盘的记录
// @Tags 草稿
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param params query dto.DraftClearRequest true "清除参数"
// @Success 200 {object} pkgapp.Res "成功"
// @Router /api/draft [delete]
func (h *DraftHandler) Clear(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.DraftClearRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("DraftHandler.Clear.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("DraftHandler.Clear err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	if err := h.App.DraftService.Clear(ctx, uid, params); err != nil {
		h.logError(ctx, "DraftHandler.Clear", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	h.WSS.BroadcastToUser(uid, code.Success.WithData(&dto.DraftStatusDTO{
		Slug:   params.Slug,
		Status: autosave.StatusIdle.String(),
		Empty:  true,
	}), dto.DraftClearSync)

	response.ToResponse(code.Success)
}

// Get 获取单个草稿
// @Summary 获取草稿详情
// @Description 优先返回内存中的实时文档，不存在时回退到已落盘的记录
// @Tags 草稿
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param params query dto.DraftGetRequest true "获取参数"
// @Success 200 {object} pkgapp.Res{data=dto.DraftDTO} "成功"
// @Router /api/draft [get]
func (h *DraftHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.DraftGetRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("DraftHandler.Get.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("DraftHandler.Get err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	draft, err := h.App.DraftService.Get(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "DraftHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(draft))
}

// Status 查询保存状态
// @Summary 查询草稿保存状态
// @Description 返回草稿当前的保存状态与最近一次保存时间，不含正文
// @Tags 草稿
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param params query dto.DraftStatusRequest true "查询参数"
// @Success 200 {object} pkgapp.Res{data=dto.DraftStatusDTO} "成功"
// @Router /api/draft/status [get]
func (h *DraftHandler) Status(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.DraftStatusRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("DraftHandler.Status.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("DraftHandler.Status err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	status, err := h.App.DraftService.Status(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "DraftHandler.Status", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(status))
}

// Diff 对比落盘记录与实时文档
// @Summary 查询草稿差异
// @Description 返回已落盘记录到当前内存文档的行级差异
// @Tags 草稿
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param params query dto.DraftDiffRequest true "查询参数"
// @Success 200 {object} pkgapp.Res{data=dto.DraftDiffDTO} "成功"
// @Router /api/draft/diff [get]
func (h *DraftHandler) Diff(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.DraftDiffRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("DraftHandler.Diff.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("DraftHandler.Diff err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	diff, err := h.App.DraftService.Diff(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "DraftHandler.Diff", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(diff))
}

// List 获取草稿列表
// @Summary 获取草稿列表
// @Description 分页获取当前命名空间下的草稿，支持按标识前缀过滤，不含正文
// @Tags 草稿
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param params query dto.DraftListRequest true "查询参数"
// @Success 200 {object} pkgapp.Res{data=[]dto.DraftNoContentDTO} "成功"
// @Router /api/drafts [get]
func (h *DraftHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.DraftListRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("DraftHandler.List.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("DraftHandler.List err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	pager := &pkgapp.Pager{
		Page:     pkgapp.GetPage(c),
		PageSize: pkgapp.GetPageSize(c),
	}

	drafts, count, err := h.App.DraftService.List(ctx, uid, params, pager)
	if err != nil {
		h.logError(ctx, "DraftHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, drafts, count)
}
