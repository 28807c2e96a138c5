package run

import (
	"time"

	"github.com/John-Robertt/tipster/internal/domain"
)

// Observer 用于把“运行进度/阶段/条目结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - Observer 的实现必须并发安全：事件可能来自多个 goroutine。
// - 观察到取消之后不再有 OnItemDone/OnProgress。
type Observer interface {
	// OnStart 在分析开始前调用。
	OnStart(plan domain.RunPlan)
	// OnPhaseDone 在阶段结束时调用（"analyze"、"summary"）。
	// 运行被取消时仍会收到一次 "analyze"，fields["cancelled"]=true。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnItemDone 在某场比赛得到终态结果时调用；done 按完成顺序递增。
	OnItemDone(done, total int, item domain.PredictionItem, dur time.Duration)
	// OnProgress 与 OnItemDone 成对出现（同一把锁内）。
	OnProgress(done, total int)
}
