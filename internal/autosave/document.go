package autosave

import (
	"strings"

	"github.com/haierkeys/draft-sync-service/pkg/timex"

	"github.com/bytedance/sonic"
)

// Document 草稿文档，每次编辑整体替换，不做局部修改
type Document struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}

// IsEmpty reports whether both fields are blank after trimming.
// An empty document is never persisted.
// IsEmpty 判断标题和正文去除空白后是否都为空，空文档不会被持久化
func (d Document) IsEmpty() bool {
	return strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Content) == ""
}

// Record is the serialized form written to the key-value store.
// SavedAt uses RFC 3339 so stored values stay sortable as text.
// Record 写入键值存储的序列化结构，SavedAt 使用 RFC 3339 文本格式
type Record struct {
	Title   string     `json:"title"`
	Content string     `json:"content"`
	SavedAt timex.Time `json:"savedAt"`
}

// Document returns the document part of the record.
func (r Record) Document() Document {
	return Document{Title: r.Title, Content: r.Content}
}

// EncodeRecord serializes a record for storage.
// EncodeRecord 将记录序列化为存储值
func EncodeRecord(r Record) (string, error) {
	b, err := sonic.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeRecord parses a stored value back into a record.
// Malformed values yield a *DecodeError.
// DecodeRecord 将存储值解析回记录，格式损坏时返回 *DecodeError
func DecodeRecord(key string, value string) (Record, error) {
	var r Record
	if err := sonic.Unmarshal([]byte(value), &r); err != nil {
		return Record{}, &DecodeError{Key: key, Err: err}
	}
	return r, nil
}
