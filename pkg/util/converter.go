package util

import (
	"strconv"
	"strings"
)

// ParseSize parses a human size string ("16MB", "512KB", "1024B") into bytes,
// falling back to defaultSize on empty or malformed input. The per-draft
// content cap in config is expressed this way.
// ParseSize 将 "16MB"、"512KB"、"1024B" 这类大小字符串解析为字节数，
// 为空或格式不对时返回 defaultSize，配置里的单篇草稿大小上限用的就是它
func ParseSize(sizeStr string, defaultSize int64) int64 {
	if sizeStr == "" {
		return defaultSize
	}

	sizeStr = strings.ToUpper(strings.TrimSpace(sizeStr))
	var multiplier int64 = 1

	if rest, ok := strings.CutSuffix(sizeStr, "MB"); ok {
		multiplier = 1024 * 1024
		sizeStr = rest
	} else if rest, ok := strings.CutSuffix(sizeStr, "KB"); ok {
		multiplier = 1024
		sizeStr = rest
	} else if rest, ok := strings.CutSuffix(sizeStr, "B"); ok {
		sizeStr = rest
	}

	size, err := strconv.ParseInt(strings.TrimSpace(sizeStr), 10, 64)
	if err != nil || size <= 0 {
		return defaultSize
	}

	return size * multiplier
}
