package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/John-Robertt/tipster/internal/app/run"
	"github.com/John-Robertt/tipster/internal/domain"
	"github.com/John-Robertt/tipster/internal/render"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端的进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr，不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
// - keepalive：长时间无条目完成时也会定期输出一行，降低等待焦虑
type progressUI struct {
	w io.Writer

	ok   lipgloss.Style
	fail lipgloss.Style
	dim  lipgloss.Style

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	workers   int
	total     int
	done      int
	succeeded int
	failed    int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	r := lipgloss.NewRenderer(w)
	return &progressUI{
		w:                  w,
		ok:                 r.NewStyle().Foreground(lipgloss.Color("42")),
		fail:               r.NewStyle().Foreground(lipgloss.Color("196")),
		dim:                r.NewStyle().Foreground(lipgloss.Color("245")),
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(plan domain.RunPlan) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}
	p.total = len(plan.Matches)
	p.workers = min(max(plan.Concurrency, 1), max(p.total, 1))

	fmt.Fprintf(p.w, "[%s] tipster analyze\n", now.Format("15:04:05"))
	fmt.Fprintf(p.w, "  strategy: %s (%s)\n", plan.Strategy, render.StrategyName(plan.Strategy))
	if plan.Market != "" {
		fmt.Fprintf(p.w, "  market: %s\n", plan.Market)
	}
	fmt.Fprintf(p.w, "  matches: %d\n", p.total)
	fmt.Fprintf(p.w, "  concurrency: %d\n\n", p.workers)

	p.lastPrinted = time.Now()
	if p.total > 0 && !p.tickerStarted {
		p.startTickerLocked()
	}
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "analyze":
		p.stopTickerLocked()
		if c, _ := fields["cancelled"].(bool); c {
			fmt.Fprintf(p.w, "\n分析: %s done=%d/%d (%s)\n", p.fail.Render("已取消"), p.done, p.total, formatShortDuration(dur))
			break
		}
		fmt.Fprintf(p.w, "\n分析: total=%d succeeded=%d failed=%d (%s)\n",
			intField(fields, "total"), intField(fields, "succeeded"), intField(fields, "failed"), formatShortDuration(dur),
		)
	case "summary":
		status := p.ok.Render("OK")
		if ok, _ := fields["ok"].(bool); !ok {
			status = p.fail.Render("FAIL")
		}
		fmt.Fprintf(p.w, "整体分析: %s (%s)\n", status, formatShortDuration(dur))
	default:
		// 兜底：未知阶段也不要静默（便于调试/演进）。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnItemDone(done, total int, item domain.PredictionItem, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	p.total = total
	if item.Error {
		p.failed++
		fmt.Fprintf(p.w, "[%d/%d] %s %s: %s (%s)\n",
			done, total, item.Match, p.fail.Render("FAIL"), truncate(item.Reasoning.Main, 160), formatShortDuration(dur),
		)
	} else {
		p.succeeded++
		fmt.Fprintf(p.w, "[%d/%d] %s %s %s %s (%s)\n",
			done, total, item.Match, p.ok.Render("OK"), truncate(item.Prediction, 60), render.Stars(item.Conviction), formatShortDuration(dur),
		)
	}
	p.lastPrinted = time.Now()

	// 最后一条完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.done >= p.total {
		p.stopTickerLocked()
	}
}

// OnProgress 只更新计数；输出由 OnItemDone 与 keepalive 负责。
func (p *progressUI) OnProgress(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = done
	p.total = total
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}
	stop := p.stopCh

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				select {
				case <-stop:
					// 等锁期间已被停止。
					p.mu.Unlock()
					return
				default:
				}
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}
				if time.Since(p.lastPrinted) > threshold {
					fmt.Fprintln(p.w, p.dim.Render(p.statusLineLocked()))
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func (p *progressUI) stopTickerLocked() {
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) statusLineLocked() string {
	active := min(p.workers, p.total-p.done)
	return fmt.Sprintf("进度: done=%d/%d ok=%d fail=%d active=%d elapsed=%s",
		p.done, p.total, p.succeeded, p.failed, active, formatElapsed(time.Since(p.startedAt)),
	)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

func intField(fields map[string]any, key string) int {
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}
