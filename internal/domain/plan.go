package domain

// RunPlan 是一次分析运行的输入（已校验）。
type RunPlan struct {
	Matches     []string
	Strategy    Strategy
	Market      string
	Concurrency int
}
