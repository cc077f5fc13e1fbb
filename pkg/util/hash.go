package util

import (
	"crypto/md5"
	"encoding/hex"
)

// EncodeMD5 returns the 32-char hex MD5 of str. Only used as a content
// checksum in backup manifests, not for anything security sensitive.
// EncodeMD5 返回字符串的 32 位十六进制 MD5，
// 仅用作备份清单里的内容校验和，不承担安全职责
func EncodeMD5(str string) string {
	h := md5.New()
	h.Write([]byte(str))
	return hex.EncodeToString(h.Sum(nil))
}

// EncodeHash32Int hashes content with the same `(h << 5) - h + c` rolling
// hash editor clients use, so both sides derive the same workspace uid from
// the same path. Values match JS for BMP text, which covers real paths.
// EncodeHash32Int 采用与编辑器客户端一致的 `(h << 5) - h + c` 滚动哈希，
// 保证两端从同一路径算出同一个工作区 uid，BMP 字符范围内与 JS 结果一致
func EncodeHash32Int(content string) int64 {
	var hash int32
	for _, r := range content {
		hash = (hash << 5) - hash + int32(r)
	}
	return int64(hash)
}
