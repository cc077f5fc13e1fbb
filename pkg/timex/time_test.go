package timex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTime_UnixMethods(t *testing.T) {
	// Create a fixed time
	// 创建一个固定时间
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tt := Time(now)

	assert.Equal(t, now.Unix(), tt.Unix())
	assert.Equal(t, now.UnixMilli(), tt.UnixMilli())
	assert.Equal(t, now.UnixMicro(), tt.UnixMicro())
	assert.Equal(t, now.UnixNano(), tt.UnixNano())

	// Verify it's not returning time.Now() by waiting a bit
	// 通过等待一会确认它不是返回 time.Now()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, now.Unix(), tt.Unix())
}

func TestTime_JSONRoundTrip(t *testing.T) {
	fixed := Time(time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC))

	data, err := fixed.MarshalJSON()
	assert.Nil(t, err)
	assert.Equal(t, `"2024-03-15T09:30:00Z"`, string(data))

	var back Time
	err = back.UnmarshalJSON(data)
	assert.Nil(t, err)
	assert.Equal(t, fixed.Unix(), back.Unix())
}

func TestTime_JSONZero(t *testing.T) {
	var zero Time

	data, err := zero.MarshalJSON()
	assert.Nil(t, err)
	assert.Equal(t, "null", string(data))

	var back Time
	err = back.UnmarshalJSON([]byte("null"))
	assert.Nil(t, err)
	assert.True(t, back.IsZero())
}

func TestTime_UnmarshalInvalid(t *testing.T) {
	var tt Time
	err := tt.UnmarshalJSON([]byte(`"not-a-time"`))
	assert.NotNil(t, err)
}

func TestParse(t *testing.T) {
	tt, err := Parse("2024-03-15T09:30:00+08:00")
	assert.Nil(t, err)
	assert.Equal(t, int64(1710466200), tt.Unix())

	_, err = Parse("2024/03/15")
	assert.NotNil(t, err)
}
