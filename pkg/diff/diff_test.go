package diff

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func joinLines(lines []string, trailingNewline bool) string {
	s := strings.Join(lines, "\n")
	if trailingNewline && s != "" {
		s += "\n"
	}
	return s
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// 验证差异结果可以还原两侧文本

func TestProperty8_DiffReconstructsBothSides(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	lineGen := gen.SliceOf(gen.OneConstOf(
		"# 标题", "## 小节", "正文内容", "- 待办项", "alpha", "beta", "",
	))

	// equal+delete 行按序还原基准文本，equal+add 行还原当前文本
	properties.Property("equal+delete lines rebuild persisted, equal+add rebuild live", prop.ForAll(
		func(linesA []string, trailA bool, linesB []string, trailB bool) bool {
			persisted := joinLines(linesA, trailA)
			live := joinLines(linesB, trailB)

			result := Compare(persisted, live)

			var gotPersisted, gotLive []string
			for _, line := range result.Lines {
				if line.Op != OpAdd {
					gotPersisted = append(gotPersisted, line.Text)
				}
				if line.Op != OpDelete {
					gotLive = append(gotLive, line.Text)
				}
			}

			return equalStrings(gotPersisted, SplitLines(persisted)) &&
				equalStrings(gotLive, SplitLines(live))
		},
		lineGen, gen.Bool(), lineGen, gen.Bool(),
	))

	// 计数与行类型一致，无差异时 HasChanges 为 false
	properties.Property("counters match line ops", prop.ForAll(
		func(linesA []string, linesB []string) bool {
			persisted := joinLines(linesA, true)
			live := joinLines(linesB, true)

			result := Compare(persisted, live)

			added, removed := 0, 0
			for _, line := range result.Lines {
				switch line.Op {
				case OpAdd:
					added++
				case OpDelete:
					removed++
				}
			}

			if added != result.Added || removed != result.Removed {
				return false
			}
			return result.HasChanges == (added+removed > 0)
		},
		lineGen, lineGen,
	))

	properties.TestingRun(t)
}

// 单元测试: 基本比较场景
func TestCompare_BasicScenarios(t *testing.T) {
	tests := []struct {
		name        string
		persisted   string
		live        string
		wantChanges bool
		wantAdded   int
		wantRemoved int
	}{
		{
			name:        "identical",
			persisted:   "Hello World",
			live:        "Hello World",
			wantChanges: false,
		},
		{
			name:        "append line",
			persisted:   "Line1\nLine2",
			live:        "Line1\nLine2\nLine3",
			wantChanges: true,
			// Line2 原本无换行结尾，追加后该行连同新行一起按重写处理
			wantAdded:   2,
			wantRemoved: 1,
		},
		{
			name:        "remove middle line",
			persisted:   "Line1\nLine2\nLine3\n",
			live:        "Line1\nLine3\n",
			wantChanges: true,
			wantAdded:   0,
			wantRemoved: 1,
		},
		{
			name:        "modify line",
			persisted:   "Line1\nLine2\nLine3\n",
			live:        "Line1\nLine2 Modified\nLine3\n",
			wantChanges: true,
			wantAdded:   1,
			wantRemoved: 1,
		},
		{
			name:        "from empty",
			persisted:   "",
			live:        "First\nSecond\n",
			wantChanges: true,
			wantAdded:   2,
			wantRemoved: 0,
		},
		{
			name:        "to empty",
			persisted:   "First\nSecond\n",
			live:        "",
			wantChanges: true,
			wantAdded:   0,
			wantRemoved: 2,
		},
		{
			name: "diary section edit",
			persisted: `# 2024-01-10 日记

## 早晨
今天早起跑步了

## 下午
下午开会讨论项目
`,
			live: `# 2024-01-10 日记

## 早晨
今天早起跑步了，跑了5公里

## 下午
下午开会讨论项目
`,
			wantChanges: true,
			wantAdded:   1,
			wantRemoved: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Compare(tt.persisted, tt.live)

			if result.HasChanges != tt.wantChanges {
				t.Errorf("HasChanges = %v, want %v", result.HasChanges, tt.wantChanges)
			}
			if !tt.wantChanges {
				return
			}
			if result.Added != tt.wantAdded {
				t.Errorf("Added = %d, want %d", result.Added, tt.wantAdded)
			}
			if result.Removed != tt.wantRemoved {
				t.Errorf("Removed = %d, want %d", result.Removed, tt.wantRemoved)
			}
		})
	}
}

func TestUnified(t *testing.T) {
	result := Compare("Line1\nLine2\nLine3\n", "Line1\nLine3\n")

	want := "  Line1\n- Line2\n  Line3\n"
	if got := result.Unified(); got != want {
		t.Errorf("Unified() = %q, want %q", got, want)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"single no newline", "a", []string{"a"}},
		{"single with newline", "a\n", []string{"a"}},
		{"two lines", "a\nb", []string{"a", "b"}},
		{"blank middle line", "a\n\nb\n", []string{"a", "", "b"}},
		{"only newline", "\n", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLines(tt.text)
			if !equalStrings(got, tt.want) {
				t.Errorf("SplitLines(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
