// Package timex 提供可序列化的时间类型，JSON/YAML 统一使用 RFC3339 格式
// Package timex provides a serializable time type, RFC3339 in JSON/YAML
package timex

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Layout 序列化使用的时间格式（ISO-8601 / RFC3339）
// Layout is the wire format (ISO-8601 / RFC3339)
const Layout = time.RFC3339

// Time 基于 time.Time 的别名类型，零值表示 "无时间"
// Time aliases time.Time; the zero value means "no time"
type Time time.Time

// Now returns the current time as a Time
// Now 返回当前时间
func Now() Time {
	return Time(time.Now())
}

// Parse parses an RFC3339 string
// Parse 解析 RFC3339 字符串
func Parse(s string) (Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Time{}, err
	}
	return Time(t), nil
}

func (t Time) Time() time.Time {
	return time.Time(t)
}

// IsZero reports whether t is the zero time
func (t Time) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t Time) String() string {
	return time.Time(t).Format(Layout)
}

func (t Time) Unix() int64 {
	return time.Time(t).Unix()
}

func (t Time) UnixMilli() int64 {
	return time.Time(t).UnixMilli()
}

func (t Time) UnixMicro() int64 {
	return time.Time(t).UnixMicro()
}

func (t Time) UnixNano() int64 {
	return time.Time(t).UnixNano()
}

// MarshalJSON 序列化为 RFC3339 字符串，零值序列化为 null
// MarshalJSON emits an RFC3339 string, null for the zero value
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", time.Time(t).Format(Layout))), nil
}

// UnmarshalJSON 解析 RFC3339 字符串，null 与空串解析为零值
// UnmarshalJSON accepts an RFC3339 string, null or "" becomes the zero value
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*t = Time{}
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := time.Parse(Layout, s)
	if err != nil {
		return err
	}
	*t = Time(parsed)
	return nil
}

func (t Time) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return "", nil
	}
	return time.Time(t).Format(Layout), nil
}

func (t *Time) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		*t = Time{}
		return nil
	}
	parsed, err := time.Parse(Layout, s)
	if err != nil {
		return err
	}
	*t = Time(parsed)
	return nil
}

// Value 实现 driver.Valuer，供 gorm 写入
// Value implements driver.Valuer for gorm
func (t Time) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return time.Time(t), nil
}

// Scan 实现 sql.Scanner，供 gorm 读取
// Scan implements sql.Scanner for gorm
func (t *Time) Scan(v interface{}) error {
	switch value := v.(type) {
	case nil:
		*t = Time{}
		return nil
	case time.Time:
		*t = Time(value)
		return nil
	case string:
		parsed, err := time.Parse(Layout, value)
		if err != nil {
			return err
		}
		*t = Time(parsed)
		return nil
	default:
		return fmt.Errorf("timex: cannot scan %T into Time", v)
	}
}
