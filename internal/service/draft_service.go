// Package service 实现业务逻辑层
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/haierkeys/draft-sync-service/internal/autosave"
	"github.com/haierkeys/draft-sync-service/internal/dto"
	"github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/code"
	"github.com/haierkeys/draft-sync-service/pkg/diff"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore"
	"github.com/haierkeys/draft-sync-service/pkg/logger"

	"go.uber.org/zap"
)

// DraftService 定义草稿业务服务接口
type DraftService interface {
	// Edit 防抖编辑，整体替换当前文档并重置防抖窗口
	Edit(ctx context.Context, uid int64, params *dto.DraftEditRequest) (*dto.DraftStatusDTO, error)

	// Save 手动保存，请求携带非空文档时先作为编辑生效
	Save(ctx context.Context, uid int64, params *dto.DraftSaveRequest) (*dto.DraftDTO, error)

	// Clear 重置草稿并删除存储条目
	Clear(ctx context.Context, uid int64, params *dto.DraftClearRequest) error

	// Get 获取单个草稿，优先返回活跃会话中的文档
	Get(ctx context.Context, uid int64, params *dto.DraftGetRequest) (*dto.DraftDTO, error)

	// Status 查询保存状态，不会创建会话
	Status(ctx context.Context, uid int64, params *dto.DraftStatusRequest) (*dto.DraftStatusDTO, error)

	// List 分页列出已落盘的草稿
	List(ctx context.Context, uid int64, params *dto.DraftListRequest, pager *app.Pager) ([]*dto.DraftNoContentDTO, int, error)

	// Diff 对比已落盘记录与当前文档
	Diff(ctx context.Context, uid int64, params *dto.DraftDiffRequest) (*dto.DraftDiffDTO, error)
}

// draftService 实现 DraftService 接口
type draftService struct {
	manager *autosave.Manager
	store   kvstore.Store
	logger  *zap.Logger
	config  *ServiceConfig
}

// NewDraftService 创建 DraftService 实例
func NewDraftService(manager *autosave.Manager, store kvstore.Store, logger *zap.Logger, config *ServiceConfig) DraftService {
	return &draftService{
		manager: manager,
		store:   store,
		logger:  logger,
		config:  config,
	}
}

// snapshotToDTO 将控制器快照转换为完整 DTO
func snapshotToDTO(slug string, snap autosave.Snapshot) *dto.DraftDTO {
	return &dto.DraftDTO{
		Slug:        slug,
		Title:       snap.Document.Title,
		Content:     snap.Document.Content,
		Status:      snap.Status.String(),
		LastSavedAt: snap.LastSavedAt,
		Size:        int64(len(snap.Document.Content)),
	}
}

// snapshotToStatusDTO 将控制器快照转换为状态 DTO
func snapshotToStatusDTO(slug string, snap autosave.Snapshot) *dto.DraftStatusDTO {
	return &dto.DraftStatusDTO{
		Slug:        slug,
		Status:      snap.Status.String(),
		LastSavedAt: snap.LastSavedAt,
		Empty:       snap.Document.IsEmpty(),
	}
}

// acquire 获取草稿会话控制器，管理器已关闭时返回会话关闭错误
func (s *draftService) acquire(ctx context.Context, uid int64, slug string) (*autosave.Controller, error) {
	ctrl, err := s.manager.Acquire(ctx, DraftKey(uid, slug))
	if err != nil {
		return nil, code.ErrorSessionClosed
	}
	return ctrl, nil
}

// checkSize 校验文档大小上限
func (s *draftService) checkSize(doc autosave.Document) error {
	if s.config == nil || s.config.Draft.MaxDocumentSize <= 0 {
		return nil
	}
	size := int64(len(doc.Title)) + int64(len(doc.Content))
	if size > s.config.Draft.MaxDocumentSize {
		return code.ErrorDraftTooLarge.WithDetails(
			fmt.Sprintf("document is %d bytes, limit is %d", size, s.config.Draft.MaxDocumentSize))
	}
	return nil
}

// Edit 防抖编辑
func (s *draftService) Edit(ctx context.Context, uid int64, params *dto.DraftEditRequest) (*dto.DraftStatusDTO, error) {
	doc := autosave.Document{Title: params.Title, Content: params.Content}
	if err := s.checkSize(doc); err != nil {
		return nil, err
	}

	ctrl, err := s.acquire(ctx, uid, params.Slug)
	if err != nil {
		return nil, err
	}

	ctrl.Edit(doc)
	return snapshotToStatusDTO(params.Slug, ctrl.Snapshot()), nil
}

// Save 手动保存
func (s *draftService) Save(ctx context.Context, uid int64, params *dto.DraftSaveRequest) (*dto.DraftDTO, error) {
	doc := autosave.Document{Title: params.Title, Content: params.Content}
	if err := s.checkSize(doc); err != nil {
		return nil, err
	}

	ctrl, err := s.acquire(ctx, uid, params.Slug)
	if err != nil {
		return nil, err
	}

	// 请求携带的文档先生效，保存因此覆盖客户端最新内容
	if !doc.IsEmpty() {
		ctrl.Edit(doc)
	}

	if err := ctrl.Save(ctx); err != nil {
		if errors.Is(err, autosave.ErrClosed) {
			return nil, code.ErrorSessionClosed
		}
		var werr *autosave.StoreWriteError
		if errors.As(err, &werr) {
			return nil, code.ErrorDraftStoreWrite.WithDetails(werr.Err.Error())
		}
		return nil, code.ErrorDraftSaveFailed.WithDetails(err.Error())
	}

	return snapshotToDTO(params.Slug, ctrl.Snapshot()), nil
}

// Clear 重置草稿并删除存储条目
func (s *draftService) Clear(ctx context.Context, uid int64, params *dto.DraftClearRequest) error {
	ctrl, err := s.acquire(ctx, uid, params.Slug)
	if err != nil {
		return err
	}

	if err := ctrl.Clear(ctx); err != nil {
		if errors.Is(err, autosave.ErrClosed) {
			return code.ErrorSessionClosed
		}
		return code.ErrorDraftClearFailed.WithDetails(err.Error())
	}
	return nil
}

// Get 获取单个草稿
// 活跃会话的文档优先于落盘记录，两者都没有时报告不存在
func (s *draftService) Get(ctx context.Context, uid int64, params *dto.DraftGetRequest) (*dto.DraftDTO, error) {
	key := DraftKey(uid, params.Slug)

	if ctrl, ok := s.manager.Peek(key); ok {
		return snapshotToDTO(params.Slug, ctrl.Snapshot()), nil
	}

	record, found, err := s.readRecord(ctx, key)
	if err != nil {
		return nil, code.ErrorDraftGetFailed.WithDetails(err.Error())
	}
	if !found {
		return nil, code.ErrorDraftNotFound
	}

	return &dto.DraftDTO{
		Slug:        params.Slug,
		Title:       record.Title,
		Content:     record.Content,
		Status:      autosave.StatusSaved.String(),
		LastSavedAt: record.SavedAt,
		Size:        int64(len(record.Content)),
	}, nil
}

// Status 查询保存状态
// 无会话时从落盘记录推导：有记录视为 saved，没有视为 idle 空文档
func (s *draftService) Status(ctx context.Context, uid int64, params *dto.DraftStatusRequest) (*dto.DraftStatusDTO, error) {
	key := DraftKey(uid, params.Slug)

	if ctrl, ok := s.manager.Peek(key); ok {
		return snapshotToStatusDTO(params.Slug, ctrl.Snapshot()), nil
	}

	record, found, err := s.readRecord(ctx, key)
	if err != nil {
		return nil, code.ErrorDraftGetFailed.WithDetails(err.Error())
	}
	if !found {
		return &dto.DraftStatusDTO{
			Slug:   params.Slug,
			Status: autosave.StatusIdle.String(),
			Empty:  true,
		}, nil
	}

	return &dto.DraftStatusDTO{
		Slug:        params.Slug,
		Status:      autosave.StatusSaved.String(),
		LastSavedAt: record.SavedAt,
		Empty:       false,
	}, nil
}

// List 分页列出已落盘的草稿
// 仅列出存储中的记录，未保存过的活跃草稿不在其中
func (s *draftService) List(ctx context.Context, uid int64, params *dto.DraftListRequest, pager *app.Pager) ([]*dto.DraftNoContentDTO, int, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return nil, 0, code.ErrorDraftListFailed.WithDetails(err.Error())
	}

	prefix := DraftKeyPrefix(uid)
	var slugs []string
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		slug := key[len(prefix):]
		if params.Prefix != "" && !strings.HasPrefix(slug, params.Prefix) {
			continue
		}
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	total := len(slugs)
	offset := app.GetPageOffset(pager.Page, pager.PageSize)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + pager.PageSize
	if end > total {
		end = total
	}

	var results []*dto.DraftNoContentDTO
	for _, slug := range slugs[offset:end] {
		record, found, err := s.readRecord(ctx, DraftKey(uid, slug))
		if err != nil || !found {
			// 并发删除或损坏的记录从列表中跳过
			continue
		}
		results = append(results, &dto.DraftNoContentDTO{
			Slug:        slug,
			Title:       record.Title,
			LastSavedAt: record.SavedAt,
			Size:        int64(len(record.Content)),
		})
	}

	return results, total, nil
}

// Diff 对比已落盘记录与当前文档
func (s *draftService) Diff(ctx context.Context, uid int64, params *dto.DraftDiffRequest) (*dto.DraftDiffDTO, error) {
	key := DraftKey(uid, params.Slug)

	record, found, err := s.readRecord(ctx, key)
	if err != nil {
		return nil, code.ErrorDraftDiffFailed.WithDetails(err.Error())
	}

	persisted := ""
	if found {
		persisted = record.Content
	}

	live := persisted
	if ctrl, ok := s.manager.Peek(key); ok {
		live = ctrl.Snapshot().Document.Content
	} else if !found {
		// 既无会话也无记录，没有可对比的内容
		return nil, code.ErrorDraftNotFound
	}

	result := diff.Compare(persisted, live)
	return &dto.DraftDiffDTO{
		Slug:       params.Slug,
		HasChanges: result.HasChanges,
		Added:      result.Added,
		Removed:    result.Removed,
		Unified:    result.Unified(),
	}, nil
}

// readRecord 读取并解码单条落盘记录
// 未命中、记录损坏或解码出空文档都视为不存在，与控制器加载语义一致
func (s *draftService) readRecord(ctx context.Context, key string) (autosave.Record, bool, error) {
	value, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotExist) {
			return autosave.Record{}, false, nil
		}
		return autosave.Record{}, false, err
	}
	record, err := autosave.DecodeRecord(key, value)
	if err != nil {
		s.logger.Warn("stored draft record corrupted",
			zap.String(logger.FieldKey, key),
			zap.Error(err))
		return autosave.Record{}, false, nil
	}
	if record.Document().IsEmpty() {
		return autosave.Record{}, false, nil
	}
	return record, true, nil
}

// 确保 draftService 实现了 DraftService 接口
var _ DraftService = (*draftService)(nil)
