package domain

// FailedPredictionLabel 是失败条目的固定 prediction 文案。
const FailedPredictionLabel = "Analysis Failed"

// Source 是模型引用的一条外部来源。
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Reasoning 是单场预测的结构化理由。
type Reasoning struct {
	Main                   string `json:"main"`
	DevilsAdvocate         string `json:"devils_advocate"`
	ConsideredAlternatives string `json:"considered_alternatives"`
}

// PredictionItem 是票据中的一条记录（成功预测或失败占位）。
//
// 约束：
// - Conviction 取值 1..5；失败条目为 0
// - Error=true 时 Reasoning.Main 保存失败原因
type PredictionItem struct {
	Match      string    `json:"match"`
	Prediction string    `json:"prediction"`
	Conviction int       `json:"conviction"`
	Reasoning  Reasoning `json:"reasoning"`
	Sources    []Source  `json:"sources"`
	Error      bool      `json:"error,omitempty"`
}

// FailedPrediction 构造一条失败条目。
func FailedPrediction(match, reason string) PredictionItem {
	return PredictionItem{
		Match:      match,
		Prediction: FailedPredictionLabel,
		Conviction: 0,
		Reasoning:  Reasoning{Main: reason},
		Sources:    []Source{},
		Error:      true,
	}
}
