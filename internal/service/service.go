package service

import (
	"fmt"
	"strconv"
	"strings"
)

// draftKeyPrefix 草稿键的公共前缀，完整格式为 draft:{uid}:{slug}
const draftKeyPrefix = "draft:"

// DraftKey builds the store key for one client draft.
// DraftKey 构造单个客户端草稿的存储键
func DraftKey(uid int64, slug string) string {
	return fmt.Sprintf("draft:%d:%s", uid, slug)
}

// DraftKeyPrefix returns the key prefix shared by all drafts of one client.
// DraftKeyPrefix 返回同一客户端全部草稿共享的键前缀
func DraftKeyPrefix(uid int64) string {
	return fmt.Sprintf("draft:%d:", uid)
}

// SplitDraftKey parses a store key back into uid and slug.
// Keys outside the draft namespace report ok false.
// SplitDraftKey 将存储键解析回 uid 和 slug，非草稿命名空间的键返回 ok false
func SplitDraftKey(key string) (uid int64, slug string, ok bool) {
	rest, found := strings.CutPrefix(key, draftKeyPrefix)
	if !found {
		return 0, "", false
	}
	idStr, slug, found := strings.Cut(rest, ":")
	if !found || idStr == "" || slug == "" {
		return 0, "", false
	}
	uid, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return uid, slug, true
}
