// Package diff 计算已落盘草稿与当前编辑内容之间的行级差异
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op 行级差异类型
type Op string

const (
	OpEqual  Op = "equal"
	OpAdd    Op = "add"
	OpDelete Op = "delete"
)

// Line 差异结果中的一行，Text 不含行尾换行符
type Line struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

// Result 两份文本的行级比较结果
type Result struct {
	Lines      []Line `json:"lines"`
	Added      int    `json:"added"`
	Removed    int    `json:"removed"`
	HasChanges bool   `json:"hasChanges"`
}

// Compare 以已落盘文本为基准，计算到当前文本的行级差异
// equal 与 delete 行按序连接还原基准文本，equal 与 add 行还原当前文本
func Compare(persisted, live string) Result {
	var result Result
	if persisted == live {
		for _, text := range SplitLines(persisted) {
			result.Lines = append(result.Lines, Line{Op: OpEqual, Text: text})
		}
		return result
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(persisted, live)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	for _, d := range diffs {
		var op Op
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = OpAdd
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		default:
			op = OpEqual
		}
		for _, text := range SplitLines(d.Text) {
			result.Lines = append(result.Lines, Line{Op: op, Text: text})
			switch op {
			case OpAdd:
				result.Added++
			case OpDelete:
				result.Removed++
			}
		}
	}

	result.HasChanges = result.Added > 0 || result.Removed > 0
	return result
}

// Unified 输出 +/-/空格 前缀的文本形式
func (r Result) Unified() string {
	var sb strings.Builder
	for _, line := range r.Lines {
		switch line.Op {
		case OpAdd:
			sb.WriteString("+ ")
		case OpDelete:
			sb.WriteString("- ")
		default:
			sb.WriteString("  ")
		}
		sb.WriteString(line.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// SplitLines 按 \n 拆分文本，丢弃末尾换行产生的空元素
// 空串拆分为空列表
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
