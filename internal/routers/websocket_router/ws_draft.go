package websocket_router

import (
	"fmt"
	"time"

	"github.com/haierkeys/draft-sync-service/internal/app"
	"github.com/haierkeys/draft-sync-service/internal/autosave"
	"github.com/haierkeys/draft-sync-service/internal/dto"
	"github.com/haierkeys/draft-sync-service/internal/service"
	pkgapp "github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/code"
	"github.com/haierkeys/draft-sync-service/pkg/logger"

	"go.uber.org/zap"
)

// DraftWSHandler WebSocket draft handler
// DraftWSHandler WebSocket 草稿处理器
// Uses App Container to inject dependencies
// 使用 App Container 注入依赖
type DraftWSHandler struct {
	*WSHandler
}

// NewDraftWSHandler creates DraftWSHandler instance
// NewDraftWSHandler 创建 DraftWSHandler 实例
func NewDraftWSHandler(a *app.App) *DraftWSHandler {
	return &DraftWSHandler{
		WSHandler: NewWSHandler(a),
	}
}

// DraftEdit 处理草稿编辑消息
// 整体替换文档并重置防抖窗口，同时把最新内容推给同账号其他连接
func (h *DraftWSHandler) DraftEdit(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.DraftEditRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		h.respondErrorWithData(c, code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), errs, errs.MapsToString(), "websocket_router.draft.DraftEdit.BindAndValid")
		return
	}

	ctx := c.Context()
	uid := c.Session.UID

	status, err := h.App.DraftService.Edit(ctx, uid, params)
	if err != nil {
		h.respondServiceError(c, err, "websocket_router.draft.DraftEdit.Edit", dto.DraftEdit)
		return
	}

	c.ToResponse(code.Success.WithData(status), dto.DraftEdit)
	c.BroadcastResponse(code.Success.WithData(
		&dto.DraftDTO{
			Slug:        params.Slug,
			Title:       params.Title,
			Content:     params.Content,
			Status:      status.Status,
			LastSavedAt: status.LastSavedAt,
			Size:        int64(len(params.Title) + len(params.Content)),
		},
	), true, dto.DraftModifySync)
}

// DraftSave 处理立即保存消息
// 同一连接上同键保存未应答前直接返回，避免重复落盘
func (h *DraftWSHandler) DraftSave(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.DraftSaveRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		h.respondErrorWithData(c, code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), errs, errs.MapsToString(), "websocket_router.draft.DraftSave.BindAndValid")
		return
	}

	ctx := c.Context()
	uid := c.Session.UID
	key := service.DraftKey(uid, params.Slug)

	c.PendingSavesMu.Lock()
	if _, exists := c.PendingSaves[key]; exists {
		c.PendingSavesMu.Unlock()
		h.logInfo(c, "websocket_router.draft.DraftSave.Pending", zap.String(logger.FieldSlug, params.Slug))
		c.ToResponse(code.SuccessNoUpdate, dto.DraftSave)
		return
	}
	c.PendingSaves[key] = pkgapp.PendingSaveEntry{CreatedAt: time.Now()}
	c.PendingSavesMu.Unlock()
	defer func() {
		c.PendingSavesMu.Lock()
		delete(c.PendingSaves, key)
		c.PendingSavesMu.Unlock()
	}()

	draft, err := h.App.DraftService.Save(ctx, uid, params)
	if err != nil {
		h.respondServiceError(c, err, "websocket_router.draft.DraftSave.Save", dto.DraftSave)
		return
	}

	c.ToResponse(code.Success.WithData(draft), dto.DraftSave)
	c.BroadcastResponse(code.Success.WithData(draft), true, dto.DraftModifySync)
}

// DraftClear 处理清除草稿消息
// 丢弃内存文档并删除落盘记录，同账号其他连接收到清除通知
func (h *DraftWSHandler) DraftClear(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.DraftClearRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		h.respondErrorWithData(c, code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), errs, errs.MapsToString(), "websocket_router.draft.DraftClear.BindAndValid")
		return
	}

	ctx := c.Context()
	uid := c.Session.UID

	if err := h.App.DraftService.Clear(ctx, uid, params); err != nil {
		h.respondServiceError(c, err, "websocket_router.draft.DraftClear.Clear", dto.DraftClear)
		return
	}

	c.ToResponse(code.SuccessDelete, dto.DraftClear)
	c.BroadcastResponse(code.Success.WithData(
		&dto.DraftStatusDTO{
			Slug:   params.Slug,
			Status: autosave.StatusIdle.String(),
			Empty:  true,
		},
	), true, dto.DraftClearSync)
}

// DraftGet 处理获取草稿快照消息
// 同一连接上相同 slug 的并发读取用 SF 合并
func (h *DraftWSHandler) DraftGet(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.DraftGetRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		h.respondErrorWithData(c, code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), errs, errs.MapsToString(), "websocket_router.draft.DraftGet.BindAndValid")
		return
	}

	ctx := c.Context()
	uid := c.Session.UID

	result, err, _ := c.SF.Do("DraftGet:"+params.Slug, func() (any, error) {
		return h.App.DraftService.Get(ctx, uid, params)
	})
	if err != nil {
		h.respondServiceError(c, err, "websocket_router.draft.DraftGet.Get", dto.DraftGet)
		return
	}

	draft, ok := result.(*dto.DraftDTO)
	if !ok {
		h.respondError(c, code.ErrorDraftGetFailed, fmt.Errorf("unexpected result type %T", result), "websocket_router.draft.DraftGet.Assert")
		return
	}

	c.ToResponse(code.Success.WithData(draft), dto.DraftGet)
}

// DraftStatus 处理保存状态查询消息
func (h *DraftWSHandler) DraftStatus(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.DraftStatusRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		h.respondErrorWithData(c, code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), errs, errs.MapsToString(), "websocket_router.draft.DraftStatus.BindAndValid")
		return
	}

	ctx := c.Context()
	uid := c.Session.UID

	status, err := h.App.DraftService.Status(ctx, uid, params)
	if err != nil {
		h.respondServiceError(c, err, "websocket_router.draft.DraftStatus.Status", dto.DraftStatus)
		return
	}

	c.ToResponse(code.Success.WithData(status), dto.DraftStatus)
}
