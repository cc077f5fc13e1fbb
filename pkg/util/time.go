package util

import (
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses a duration string from config. On top of the stdlib
// syntax it accepts a "d" suffix for days (backup retention is usually given
// that way) and treats a bare number as seconds.
// ParseDuration 解析配置里的时长字符串，在标准语法之外
// 额外支持 "d" 天数后缀（备份保留期通常这么写），纯数字按秒处理
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	if _, err := strconv.Atoi(s); err == nil {
		s += "s"
	}
	return time.ParseDuration(s)
}
