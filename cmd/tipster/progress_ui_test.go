package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/tipster/internal/app/run"
	"github.com/John-Robertt/tipster/internal/app/runner"
	"github.com/John-Robertt/tipster/internal/domain"
)

func TestProgressUI_Lines(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)
	p.tickerInterval = time.Hour

	p.OnStart(domain.RunPlan{Matches: []string{"A vs B", "C vs D"}, Strategy: domain.StrategyGoalsSpecialist, Concurrency: 8})
	p.OnItemDone(1, 2, domain.PredictionItem{Match: "C vs D", Prediction: "Over 2.5 goals", Conviction: 3}, 1500*time.Millisecond)
	p.OnProgress(1, 2)
	p.OnItemDone(2, 2, domain.FailedPrediction("A vs B", "HTTP 503"), time.Second)
	p.OnProgress(2, 2)
	p.OnPhaseDone("analyze", map[string]any{"total": 2, "succeeded": 1, "failed": 1}, 2*time.Second)
	p.OnPhaseDone("summary", map[string]any{"ok": false}, 0)

	out := buf.String()
	for _, want := range []string{
		"strategy: GOALS_SPECIALIST (Goals Specialist)",
		"concurrency: 2",
		"[1/2] C vs D OK Over 2.5 goals ★★★☆☆ (1.5s)",
		"[2/2] A vs B FAIL: HTTP 503 (1.0s)",
		"分析: total=2 succeeded=1 failed=1 (2.0s)",
		"整体分析: FAIL",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("缺少 %q：\n%s", want, out)
		}
	}
	if p.tickerStarted {
		t.Fatalf("全部完成后 ticker 应已停止")
	}
}

func TestProgressUI_KeepaliveStopsWhenDone(t *testing.T) {
	var buf syncBuffer
	p := newProgressUI(&buf)
	p.tickerInterval = 5 * time.Millisecond
	p.keepaliveThreshold = time.Millisecond

	p.OnStart(domain.RunPlan{Matches: []string{"A vs B"}, Concurrency: 1, Strategy: domain.StrategyCautious})
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(buf.String(), "进度: done=0/1") {
		if time.Now().After(deadline) {
			t.Fatalf("长时间无完成时应输出 keepalive：%q", buf.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
	p.OnItemDone(1, 1, domain.PredictionItem{Match: "A vs B", Prediction: "p", Conviction: 1}, 0)

	p.mu.Lock()
	started := p.tickerStarted
	p.mu.Unlock()
	if started {
		t.Fatalf("最后一条完成后 ticker 应停止")
	}
}

// blockingAnalyzer 一直阻塞到 ctx 结束。
type blockingAnalyzer struct{}

func (blockingAnalyzer) AnalyzeMatch(ctx context.Context, match string, strategy domain.Strategy, market string) (domain.PredictionItem, error) {
	<-ctx.Done()
	return domain.PredictionItem{}, ctx.Err()
}

func TestProgressUI_KeepaliveStopsWhenCancelled(t *testing.T) {
	var buf syncBuffer
	p := newProgressUI(&buf)
	p.tickerInterval = 5 * time.Millisecond
	p.keepaliveThreshold = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for !strings.Contains(buf.String(), "进度: done=0/2") && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()
	}()

	plan := domain.RunPlan{Matches: []string{"A vs B", "C vs D"}, Strategy: domain.StrategyCautious, Concurrency: 2}
	_, err := run.ExecuteWithObserver(ctx, plan, blockingAnalyzer{}, run.Options{}, p)
	if !errors.Is(err, runner.ErrCancelled) {
		t.Fatalf("期望 ErrCancelled，got=%v", err)
	}

	p.mu.Lock()
	started := p.tickerStarted
	p.mu.Unlock()
	if started {
		t.Fatalf("取消后 ticker 应停止")
	}
	out := buf.String()
	if !strings.Contains(out, "进度: done=0/2") {
		t.Fatalf("取消前应输出过 keepalive：%q", out)
	}
	if !strings.Contains(out, "分析: 已取消 done=0/2") {
		t.Fatalf("应输出取消行：%q", out)
	}

	time.Sleep(50 * time.Millisecond)
	if after := buf.String(); after != out {
		t.Fatalf("取消返回后不应再有输出：\nbefore=%q\nafter=%q", out, after)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  abcdef ", 5); got != "ab..." {
		t.Fatalf("got=%q", got)
	}
	if got := truncate("比赛分析结果", 4); got != "比..." {
		t.Fatalf("应按 rune 截断：%q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Fatalf("got=%q", got)
	}
}
