package summary

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/John-Robertt/tipster/internal/domain"
)

func ticketWith(items ...domain.PredictionItem) *domain.Ticket {
	return &domain.Ticket{ID: "t1", Items: items}
}

func TestTrigger_FiresOnceAndAttaches(t *testing.T) {
	tk := ticketWith(domain.PredictionItem{Match: "A vs B", Prediction: "Home Win", Conviction: 4})
	var calls int32
	fn := func(ctx context.Context, items []domain.PredictionItem) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "Low risk.", nil
	}

	var tr Trigger
	fired, err := tr.Fire(context.Background(), tk, fn)
	if err != nil || !fired {
		t.Fatalf("期望触发成功：fired=%v err=%v", fired, err)
	}
	if tk.OverallAnalysis != "Low risk." {
		t.Fatalf("整体分析未写入：%q", tk.OverallAnalysis)
	}

	fired, err = tr.Fire(context.Background(), tk, fn)
	if err != nil || fired {
		t.Fatalf("同一运行不应再次触发：fired=%v err=%v", fired, err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("期望调用 1 次，实际 %d", calls)
	}
}

func TestTrigger_SkipsEmptyOrAlreadyAnalyzed(t *testing.T) {
	fn := func(ctx context.Context, items []domain.PredictionItem) (string, error) {
		t.Fatalf("不应调用 fn")
		return "", nil
	}

	var tr Trigger
	if fired, _ := tr.Fire(context.Background(), ticketWith(), fn); fired {
		t.Fatalf("空 ticket 不应触发")
	}

	tk := ticketWith(domain.PredictionItem{Match: "A vs B"})
	tk.OverallAnalysis = "existing"
	var tr2 Trigger
	if fired, _ := tr2.Fire(context.Background(), tk, fn); fired {
		t.Fatalf("已有整体分析时不应触发")
	}
}

func TestTrigger_FailureIsNotRefired(t *testing.T) {
	tk := ticketWith(domain.PredictionItem{Match: "A vs B"})
	var calls int32
	fn := func(ctx context.Context, items []domain.PredictionItem) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.New("quota exceeded")
	}

	var tr Trigger
	fired, err := tr.Fire(context.Background(), tk, fn)
	if !fired || err == nil {
		t.Fatalf("期望触发且返回错误：fired=%v err=%v", fired, err)
	}
	if tk.OverallAnalysis != "" {
		t.Fatalf("失败时不应修改 ticket：%q", tk.OverallAnalysis)
	}
	if fired, _ := tr.Fire(context.Background(), tk, fn); fired {
		t.Fatalf("失败后不应重新触发")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("期望调用 1 次，实际 %d", calls)
	}
}

func TestTrigger_ConcurrentFireCallsOnce(t *testing.T) {
	tk := ticketWith(domain.PredictionItem{Match: "A vs B"})
	var calls int32
	release := make(chan struct{})
	fn := func(ctx context.Context, items []domain.PredictionItem) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "ok", nil
	}

	var tr Trigger
	var wg sync.WaitGroup
	var firedCount int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if fired, _ := tr.Fire(context.Background(), tk, fn); fired {
				atomic.AddInt32(&firedCount, 1)
			}
		}()
	}
	// 等待唯一的调用进入 fn 后放行。
	for atomic.LoadInt32(&calls) == 0 {
		runtime.Gosched()
	}
	close(release)
	wg.Wait()

	if calls != 1 || firedCount != 1 {
		t.Fatalf("并发触发应只调用一次：calls=%d fired=%d", calls, firedCount)
	}
}
