// Package runner 实现有界并发的批量执行器：固定数量的 worker 从共享队列中领取条目，
// 结果按原始下标写回定长结果槽，进度按完成顺序上报，取消是协作式的。
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrCancelled 表示整次运行被取消（context 已结束）。
// 被取消的运行不返回任何部分结果。
var ErrCancelled = errors.New("analysis cancelled")

const unknownErrorMsg = "unknown error"

// Item 是一个工作单元：Index 是它在输入序列中的位置，也是回写结果的唯一依据。
type Item struct {
	Index   int
	Payload string
}

// Outcome 是单个条目的最终结果：成功值，或由 runner 构造的失败结果（IsError=true）。
type Outcome[T any] struct {
	Index    int
	Payload  string
	Value    T
	IsError  bool
	ErrorMsg string
}

// AnalyzeFunc 处理单个条目；实现必须可并发调用，并应尽量响应 ctx 取消。
type AnalyzeFunc[T any] func(ctx context.Context, it Item) (T, error)

// Options 控制一次运行。
//
// OnOutcome 与 OnProgress 在同一把锁内依次调用：
// - 每个终态结果恰好一次，completed 严格 +1
// - 观察到取消之后不再调用
// - 回调不应阻塞太久（会串行化所有 worker 的上报）
type Options[T any] struct {
	Concurrency int
	OnProgress  func(completed, total int)
	OnOutcome   func(completed, total int, o Outcome[T], dur time.Duration)
}

// Run 以 concurrency 个 worker 处理 items，返回与输入同序的结果。
// 被取消时返回 (nil, err)，且 errors.Is(err, ErrCancelled)。
func Run[T any](ctx context.Context, items []string, concurrency int, onProgress func(completed, total int), analyze AnalyzeFunc[T]) ([]Outcome[T], error) {
	return RunWithOptions(ctx, items, analyze, Options[T]{
		Concurrency: concurrency,
		OnProgress:  onProgress,
	})
}

// RunWithOptions 与 Run 相同，但允许传入 OnOutcome（供进度 UI 输出逐条结果）。
func RunWithOptions[T any](ctx context.Context, items []string, analyze AnalyzeFunc[T], opts Options[T]) ([]Outcome[T], error) {
	total := len(items)
	if total == 0 {
		return []Outcome[T]{}, nil
	}
	if analyze == nil {
		return nil, errors.New("runner: analyze 不能为空")
	}

	workers := opts.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	q := newQueue(items)
	results := make([]Outcome[T], total)
	rep := &reporter[T]{total: total, opts: opts}

	// 不用 errgroup.WithContext：runner 不主动取消兄弟 worker，
	// 在途调用只通过共享的 ctx 感知取消。
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return work(ctx, q, results, rep, analyze)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func work[T any](ctx context.Context, q *queue, results []Outcome[T], rep *reporter[T], analyze AnalyzeFunc[T]) error {
	for {
		// 检查点 1：领取新条目之前。
		if ctx.Err() != nil {
			return cancelled(ctx)
		}
		it, ok := q.claim()
		if !ok {
			return nil
		}

		started := time.Now()
		v, err := call(ctx, analyze, it)

		// 检查点 2：调用返回之后。取消后不再写任何结果（无论成功还是失败）。
		if ctx.Err() != nil {
			return cancelled(ctx)
		}

		o := Outcome[T]{Index: it.Index, Payload: it.Payload}
		if err != nil {
			o.IsError = true
			o.ErrorMsg = errorMessage(err)
		} else {
			o.Value = v
		}
		// 每个下标只会被领取一次，因此这里的写入没有竞争。
		results[it.Index] = o

		// 检查点 3：写进度之前（在 reporter 的锁内完成）。
		if !rep.report(ctx, o, time.Since(started)) {
			return cancelled(ctx)
		}
	}
}

// call 调用 analyze，并把 panic 当作普通条目失败处理。
func call[T any](ctx context.Context, analyze AnalyzeFunc[T], it Item) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return analyze(ctx, it)
}

func cancelled(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil {
		return ErrCancelled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

func errorMessage(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return unknownErrorMsg
	}
	return msg
}

// queue 是按输入顺序出队的共享队列；claim 在锁内完成，保证每个条目只被领取一次。
type queue struct {
	mu    sync.Mutex
	items []Item
	next  int
}

func newQueue(payloads []string) *queue {
	items := make([]Item, len(payloads))
	for i, p := range payloads {
		items[i] = Item{Index: i, Payload: p}
	}
	return &queue{items: items}
}

func (q *queue) claim() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.next >= len(q.items) {
		return Item{}, false
	}
	it := q.items[q.next]
	q.next++
	return it, true
}

// reporter 串行化 completed 计数与回调，保证进度值严格递增。
type reporter[T any] struct {
	mu        sync.Mutex
	completed int
	total     int
	opts      Options[T]
}

func (r *reporter[T]) report(ctx context.Context, o Outcome[T], dur time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	r.completed++
	if r.opts.OnOutcome != nil {
		r.opts.OnOutcome(r.completed, r.total, o, dur)
	}
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(r.completed, r.total)
	}
	return true
}
