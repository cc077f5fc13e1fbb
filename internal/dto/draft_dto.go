// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import (
	"github.com/haierkeys/draft-sync-service/pkg/timex"
)

// DraftDTO Draft data transfer object
// DraftDTO 草稿数据传输对象
type DraftDTO struct {
	Slug        string     `json:"slug" form:"slug"`       // Draft identifier within the session namespace // 会话命名空间内的草稿标识
	Title       string     `json:"title" form:"title"`     // Draft title // 草稿标题
	Content     string     `json:"content" form:"content"` // Draft body // 草稿正文
	Status      string     `json:"status"`                 // Save status: idle/unsaved/saving/saved/error // 保存状态
	LastSavedAt timex.Time `json:"lastSavedAt"`            // Last successful persist time, zero means never saved // 最近一次保存成功时间，零值表示从未保存
	Size        int64      `json:"size"`                   // Body size in bytes // 正文字节数
}

// DraftNoContentDTO Draft DTO without body, used by list responses
// DraftNoContentDTO 不含正文的草稿 DTO，列表接口使用
type DraftNoContentDTO struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	LastSavedAt timex.Time `json:"lastSavedAt"`
	Size        int64      `json:"size"`
}

// DraftEditRequest Request parameters for the debounced edit path
// DraftEditRequest 防抖编辑请求参数
type DraftEditRequest struct {
	Slug    string `json:"slug" form:"slug" binding:"required,draftkey"` // Draft identifier // 草稿标识
	Title   string `json:"title" form:"title"`                           // New title, replaces the old one wholesale // 新标题，整体替换
	Content string `json:"content" form:"content"`                       // New body, replaces the old one wholesale // 新正文，整体替换
}

// DraftSaveRequest Request parameters for a manual save.
// A non-empty document in the request is applied as an edit before saving,
// so a REST client can flush its latest text in one round trip.
// DraftSaveRequest 手动保存请求参数。
// 请求中携带非空文档时先作为编辑生效再保存，REST 客户端一次往返即可落盘最新内容。
type DraftSaveRequest struct {
	Slug    string `json:"slug" form:"slug" binding:"required,draftkey"`
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}

// DraftGetRequest Request parameters for fetching a single draft
// DraftGetRequest 获取单个草稿的请求参数
type DraftGetRequest struct {
	Slug string `json:"slug" form:"slug" binding:"required,draftkey"`
}

// DraftClearRequest Request parameters for clearing a draft
// DraftClearRequest 清除草稿的请求参数
type DraftClearRequest struct {
	Slug string `json:"slug" form:"slug" binding:"required,draftkey"`
}

// DraftStatusRequest Request parameters for polling save status
// DraftStatusRequest 查询保存状态的请求参数
type DraftStatusRequest struct {
	Slug string `json:"slug" form:"slug" binding:"required,draftkey"`
}

// DraftStatusDTO Save status view without the document body
// DraftStatusDTO 不含正文的保存状态视图
type DraftStatusDTO struct {
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	LastSavedAt timex.Time `json:"lastSavedAt"`
	Empty       bool       `json:"empty"` // Whether the live document is empty // 当前文档是否为空
}

// DraftListRequest Request parameters for the paginated draft listing
// DraftListRequest 草稿分页列表请求参数
type DraftListRequest struct {
	Prefix string `json:"prefix" form:"prefix"` // Optional slug prefix filter // 可选的标识前缀过滤
}

// DraftDiffRequest Request parameters for diffing the persisted record
// against the live document
// DraftDiffRequest 对比已落盘记录与当前文档的请求参数
type DraftDiffRequest struct {
	Slug string `json:"slug" form:"slug" binding:"required,draftkey"`
}

// DraftDiffDTO Line diff of the persisted record against the live document
// DraftDiffDTO 已落盘记录到当前文档的行级差异
type DraftDiffDTO struct {
	Slug       string `json:"slug"`
	HasChanges bool   `json:"hasChanges"` // False when store and memory agree // 存储与内存一致时为 false
	Added      int    `json:"added"`      // Lines only in the live document // 仅存在于当前文档的行数
	Removed    int    `json:"removed"`    // Lines only in the persisted record // 仅存在于落盘记录的行数
	Unified    string `json:"unified"`    // Unified-style rendering // unified 风格文本
}
