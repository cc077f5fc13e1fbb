package clockx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_AdvanceFiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	var order []string
	fake.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	fake.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	fake.AfterFunc(3*time.Second, func() { order = append(order, "c") })

	fake.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, fake.PendingCount())

	fake.Advance(1 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, fake.PendingCount())
}

func TestFake_StopPreventsFiring(t *testing.T) {
	fake := NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	fired := false
	timer := fake.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	fake.Advance(5 * time.Second)
	assert.False(t, fired)
}

func TestFake_CallbackMayRearm(t *testing.T) {
	fake := NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	count := 0
	var rearm func()
	rearm = func() {
		count++
		if count < 3 {
			fake.AfterFunc(time.Second, rearm)
		}
	}
	fake.AfterFunc(time.Second, rearm)

	fake.Advance(10 * time.Second)
	assert.Equal(t, 3, count)
}

func TestFake_NowTracksAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	var seen time.Time
	fake.AfterFunc(2*time.Second, func() { seen = fake.Now() })

	fake.Advance(10 * time.Second)
	// 回调观察到的是自身的到期时刻，而非推进终点
	// The callback observes its own deadline, not the advance target
	assert.Equal(t, start.Add(2*time.Second), seen)
	assert.Equal(t, start.Add(10*time.Second), fake.Now())
}
