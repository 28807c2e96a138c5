// Package summary 负责“整体分析”的触发条件：每次完成的运行最多触发一次。
package summary

import (
	"context"
	"errors"
	"sync"

	"github.com/John-Robertt/tipster/internal/domain"
)

// Func 对一组预测结果生成整体分析文本（失败条目由实现自行过滤）。
type Func func(ctx context.Context, items []domain.PredictionItem) (string, error)

// Trigger 记录单次运行的触发状态。每次运行应使用新的 Trigger。
// 零值可用，且并发安全。
type Trigger struct {
	mu       sync.Mutex
	fired    bool
	inFlight bool
}

// Fire 在条件满足时调用 fn，并把结果写入 tk.OverallAnalysis。
//
// 触发条件（全部满足才调用）：
// - tk 至少有一个条目（所有条目均已终态，由调用方在 run 成功返回后保证）
// - tk 尚无整体分析
// - 没有正在进行的调用，且本次运行尚未触发过
//
// 返回值 fired 表示是否真正调用了 fn。fn 失败时 tk 不变，且不会再次触发。
func (t *Trigger) Fire(ctx context.Context, tk *domain.Ticket, fn Func) (fired bool, err error) {
	if tk == nil || fn == nil {
		return false, errors.New("summary: ticket 与 fn 不能为空")
	}

	t.mu.Lock()
	if t.fired || t.inFlight || len(tk.Items) == 0 || tk.OverallAnalysis != "" {
		t.mu.Unlock()
		return false, nil
	}
	t.inFlight = true
	t.fired = true
	items := append([]domain.PredictionItem(nil), tk.Items...)
	t.mu.Unlock()

	text, err := fn(ctx, items)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.inFlight = false
	if err != nil {
		return true, err
	}
	tk.OverallAnalysis = text
	return true, nil
}
