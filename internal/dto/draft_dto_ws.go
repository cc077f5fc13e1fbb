package dto

import (
	"github.com/haierkeys/draft-sync-service/pkg/timex"
)

// WebSocketAction WebSocket text message type
// WebSocket 文本消息类型
type WebSocketAction = string

const (
	// Client requests
	// 客户端请求

	// DraftEdit replaces the document and arms the debounce window
	// DraftEdit 替换文档并重置防抖窗口
	DraftEdit WebSocketAction = "DraftEdit"
	// DraftSave flushes the current document immediately
	// DraftSave 立即落盘当前文档
	DraftSave WebSocketAction = "DraftSave"
	// DraftClear discards the draft locally and in the store
	// DraftClear 清除本地与存储中的草稿
	DraftClear WebSocketAction = "DraftClear"
	// DraftGet fetches the full draft snapshot
	// DraftGet 获取完整草稿快照
	DraftGet WebSocketAction = "DraftGet"
	// DraftStatus polls the save status without the body
	// DraftStatus 查询保存状态，不含正文
	DraftStatus WebSocketAction = "DraftStatus"

	// Server pushes
	// 服务端推送

	// DraftStatusSync pushed to every connection of the uid on a status
	// transition
	// DraftStatusSync 状态变化时推送给该 uid 的全部连接
	DraftStatusSync WebSocketAction = "DraftStatusSync"
	// DraftModifySync pushed to sibling connections when another device
	// edits the draft
	// DraftModifySync 其他设备编辑草稿时推送给同 uid 的其余连接
	DraftModifySync WebSocketAction = "DraftModifySync"
	// DraftClearSync pushed to sibling connections when another device
	// clears the draft
	// DraftClearSync 其他设备清除草稿时推送给同 uid 的其余连接
	DraftClearSync WebSocketAction = "DraftClearSync"
)

// DraftStatusSyncDTO Payload of a DraftStatusSync push
// DraftStatusSyncDTO DraftStatusSync 推送负载
type DraftStatusSyncDTO struct {
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	LastSavedAt timex.Time `json:"lastSavedAt"`
}
