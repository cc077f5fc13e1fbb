package autosave

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/draft-sync-service/pkg/clockx"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

func newPropController(t *testing.T) (*Controller, *failStore, *clockx.Fake) {
	t.Helper()
	store := newFailStore(t)
	clock := clockx.NewFake(testStart)
	c := NewController(context.Background(), testKey, store, clock, zap.NewNop(), Config{})
	return c, store, clock
}

// 验证快于防抖窗口的连续编辑恰好合并为一次写入
func TestProperty1_EditBurstCollapsesToOneWrite(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("burst of edits yields one write holding the last document", prop.ForAll(
		func(titles []string) bool {
			c, store, clock := newPropController(t)
			defer c.Close()

			for _, title := range titles {
				c.Edit(Document{Title: title})
				clock.Advance(DefaultDebounceInterval / 2)
			}
			clock.Advance(DefaultDebounceInterval + DefaultFeedbackDelay)

			if len(titles) == 0 {
				return store.setCalls == 0
			}
			if store.setCalls != 1 {
				return false
			}
			value, err := store.Get(context.Background(), testKey)
			if err != nil {
				return false
			}
			record, err := DecodeRecord(testKey, value)
			if err != nil {
				return false
			}
			return record.Title == titles[len(titles)-1]
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}

// 验证空白文档的编辑既不设定时器也不改变空闲状态
func TestProperty2_BlankDocumentNeverArmsTimer(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("blank edits keep idle and never schedule a save", prop.ForAll(
		func(n int) bool {
			c, store, clock := newPropController(t)
			defer c.Close()

			blank := strings.Repeat(" \t\n", n%5)
			status := c.Edit(Document{Title: blank, Content: blank})

			clock.Advance(10 * DefaultDebounceInterval)
			return status == StatusIdle &&
				clock.PendingCount() == 0 &&
				store.setCalls == 0 &&
				c.Snapshot().Status == StatusIdle
		},
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

// 验证保存后的草稿经由存储往返后内容与时间戳不变
func TestProperty3_SavedDraftRoundTripsThroughStore(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("initialize returns exactly what was saved", prop.ForAll(
		func(title string, content string) bool {
			doc := Document{Title: title, Content: content}
			if doc.IsEmpty() {
				return true
			}

			a, store, clock := newPropController(t)
			a.Edit(doc)
			clock.Advance(DefaultDebounceInterval + DefaultFeedbackDelay)
			a.Close()

			b := NewController(context.Background(), testKey, store, clock, zap.NewNop(), Config{})
			defer b.Close()

			snap := b.Snapshot()
			return snap.Status == StatusSaved &&
				snap.Document == doc &&
				snap.LastSavedAt.Time().Equal(testStart.Add(DefaultDebounceInterval))
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// 验证关闭后无论经过多久都不会再发生写入
func TestProperty4_NoWriteAfterClose(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("close wins against a pending debounce at any offset", prop.ForAll(
		func(offsetMs int) bool {
			c, store, clock := newPropController(t)

			c.Edit(Document{Title: "draft"})
			clock.Advance(time.Duration(offsetMs) * time.Millisecond)
			c.Close()
			clock.Advance(10 * DefaultDebounceInterval)

			return store.setCalls == 0 && clock.PendingCount() == 0
		},
		gen.IntRange(0, int(DefaultDebounceInterval/time.Millisecond)-1),
	))

	properties.TestingRun(t)
}

// 验证任意存储内容都不会破坏启动，损坏值一律降级为空文档
func TestProperty5_ArbitraryStoredValueNeverBreaksInitialize(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("initialize always lands in idle-empty or saved-nonempty", prop.ForAll(
		func(value string) bool {
			store := newFailStore(t)
			clock := clockx.NewFake(testStart)
			if err := store.Set(context.Background(), testKey, value); err != nil {
				return false
			}

			c := NewController(context.Background(), testKey, store, clock, zap.NewNop(), Config{})
			defer c.Close()

			snap := c.Snapshot()
			if snap.Status == StatusSaved {
				return !snap.Document.IsEmpty()
			}
			return snap.Status == StatusIdle &&
				snap.Document.IsEmpty() &&
				snap.LastSavedAt.IsZero()
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
