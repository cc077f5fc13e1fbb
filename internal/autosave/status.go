package autosave

// SaveStatus 定义草稿持久化状态
type SaveStatus string

const (
	// StatusIdle no content yet, nothing pending
	// StatusIdle 尚无内容，也没有待保存的修改
	StatusIdle SaveStatus = "idle"
	// StatusUnsaved edited, save pending behind the debounce window
	// StatusUnsaved 已编辑，等待防抖窗口结束后保存
	StatusUnsaved SaveStatus = "unsaved"
	// StatusSaving persistence in flight
	// StatusSaving 正在写入存储
	StatusSaving SaveStatus = "saving"
	// StatusSaved persistence confirmed
	// StatusSaved 已确认保存成功
	StatusSaved SaveStatus = "saved"
	// StatusError persistence failed, waiting for a new edit or manual save
	// StatusError 保存失败，等待新的编辑或手动保存
	StatusError SaveStatus = "error"
)

func (s SaveStatus) String() string {
	return string(s)
}
