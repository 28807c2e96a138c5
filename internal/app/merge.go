package app

import (
	"fmt"

	"github.com/John-Robertt/tipster/internal/match"
)

// MergeResult 是一次合并的结果。
type MergeResult struct {
	// Matches 是合并后的完整列表：原列表在前，新增条目按输入顺序追加。
	Matches    []string
	Added      []string
	Duplicates int
}

// MergeMatches 把 incoming 合并进 existing，忽略重复项。
//
// - incoming 每项先做 match.Normalize；规范化后为空的项直接丢弃（不计入重复）
// - 重复判断用 match.Key（忽略大小写与分隔符写法），既对比 existing，也对比本批已新增的条目
// - existing 保持原样（不重新规范化、不重排）
func MergeMatches(existing, incoming []string) MergeResult {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, m := range existing {
		seen[match.Key(m)] = struct{}{}
		merged = append(merged, m)
	}

	res := MergeResult{Added: make([]string, 0, len(incoming))}
	for _, raw := range incoming {
		m := match.Normalize(raw)
		if m == "" {
			continue
		}
		k := match.Key(m)
		if _, dup := seen[k]; dup {
			res.Duplicates++
			continue
		}
		seen[k] = struct{}{}
		merged = append(merged, m)
		res.Added = append(res.Added, m)
	}
	res.Matches = merged
	return res
}

// DuplicateNotice 返回重复提示文案；没有重复时返回空串。
func DuplicateNotice(n int) string {
	switch {
	case n <= 0:
		return ""
	case n == 1:
		return "1 duplicate match was ignored."
	default:
		return fmt.Sprintf("%d duplicate matches were ignored.", n)
	}
}

// RemoveAt 按 1-based 位置删除条目，返回新列表与被删除的条目。
func RemoveAt(list []string, pos int) ([]string, string, error) {
	if pos < 1 || pos > len(list) {
		return nil, "", fmt.Errorf("位置 %d 超出范围（共 %d 场比赛）", pos, len(list))
	}
	out := make([]string, 0, len(list)-1)
	out = append(out, list[:pos-1]...)
	out = append(out, list[pos:]...)
	return out, list[pos-1], nil
}
