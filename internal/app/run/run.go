// Package run 把一次分析计划跑成一张票据：并发分析每场比赛，失败降级为条目，
// 最后（可选）触发一次整体分析。
package run

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/tipster/internal/app/runner"
	"github.com/John-Robertt/tipster/internal/app/summary"
	"github.com/John-Robertt/tipster/internal/domain"
)

// CancelledMsg 与 GenericErrorMsg 是面向用户的运行级错误文案。
const (
	CancelledMsg    = "Analysis was cancelled."
	GenericErrorMsg = "An error occurred during analysis. The model may be unavailable or the request timed out. Please try again."
)

// Analyzer 是单场分析的依赖（analysis.Analyzer 实现它）。
type Analyzer interface {
	AnalyzeMatch(ctx context.Context, match string, strategy domain.Strategy, market string) (domain.PredictionItem, error)
}

// Options 是运行的可选项；零值可用。
type Options struct {
	// Model 仅记录到票据中。
	Model string
	// Summarize 非空时在全部条目完成后触发一次整体分析。
	Summarize summary.Func
	Logger    *slog.Logger

	now   func() time.Time
	newID func() string
}

// Execute 执行一次分析运行。
// 被取消时返回 (Ticket{}, err)，且 errors.Is(err, runner.ErrCancelled)。
func Execute(ctx context.Context, plan domain.RunPlan, a Analyzer, opts Options) (domain.Ticket, error) {
	return ExecuteWithObserver(ctx, plan, a, opts, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度（由上层决定是否启用）。
func ExecuteWithObserver(ctx context.Context, plan domain.RunPlan, a Analyzer, opts Options, obs Observer) (domain.Ticket, error) {
	if a == nil {
		return domain.Ticket{}, errors.New("run: analyzer 不能为空")
	}
	now := opts.now
	if now == nil {
		now = time.Now
	}
	newID := opts.newID
	if newID == nil {
		newID = uuid.NewString
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if obs != nil {
		obs.OnStart(plan)
	}

	analyze := func(ctx context.Context, it runner.Item) (domain.PredictionItem, error) {
		return a.AnalyzeMatch(ctx, it.Payload, plan.Strategy, plan.Market)
	}
	ropts := runner.Options[domain.PredictionItem]{Concurrency: plan.Concurrency}
	if obs != nil {
		ropts.OnOutcome = func(done, total int, o runner.Outcome[domain.PredictionItem], dur time.Duration) {
			obs.OnItemDone(done, total, toItem(o), dur)
		}
		ropts.OnProgress = obs.OnProgress
	}

	started := now()
	outcomes, err := runner.RunWithOptions(ctx, plan.Matches, analyze, ropts)
	if err != nil {
		log.Info("分析已取消", "matches", len(plan.Matches), "err", err)
		if obs != nil {
			obs.OnPhaseDone("analyze", map[string]any{"cancelled": true}, now().Sub(started))
		}
		return domain.Ticket{}, err
	}

	tk := domain.Ticket{
		ID:        newID(),
		CreatedAt: started,
		Strategy:  plan.Strategy,
		Market:    plan.Market,
		Model:     opts.Model,
		Items:     make([]domain.PredictionItem, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		tk.Items = append(tk.Items, toItem(o))
	}
	tk.Finalize()
	if obs != nil {
		obs.OnPhaseDone("analyze", map[string]any{
			"total":     tk.Summary.Total,
			"succeeded": tk.Summary.Succeeded,
			"failed":    tk.Summary.Failed,
		}, now().Sub(started))
	}

	if opts.Summarize != nil {
		summaryStarted := now()
		var trig summary.Trigger
		fired, err := trig.Fire(ctx, &tk, opts.Summarize)
		if err != nil {
			log.Warn("整体分析失败", "err", err)
		}
		if fired && obs != nil {
			obs.OnPhaseDone("summary", map[string]any{
				"ok": err == nil,
			}, now().Sub(summaryStarted))
		}
	}
	return tk, nil
}

// toItem 把 runner 的结果映射为票据条目；match 始终取输入的比赛名。
func toItem(o runner.Outcome[domain.PredictionItem]) domain.PredictionItem {
	if o.IsError {
		return domain.FailedPrediction(o.Payload, o.ErrorMsg)
	}
	it := o.Value
	it.Match = o.Payload
	if it.Sources == nil {
		it.Sources = []domain.Source{}
	}
	return it
}

// HumanizeError 把运行级错误转换为面向用户的文案。
func HumanizeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, runner.ErrCancelled), errors.Is(err, context.Canceled):
		return CancelledMsg
	default:
		return GenericErrorMsg
	}
}
