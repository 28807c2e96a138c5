package domain

import "time"

// Ticket 是一次完整分析的结果（可保存/加载）。
type Ticket struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	SavedAt   *time.Time `json:"saved_at,omitempty"`

	Strategy Strategy `json:"strategy"`
	Market   string   `json:"market,omitempty"`
	Model    string   `json:"model,omitempty"`

	Summary TicketSummary    `json:"summary"`
	Items   []PredictionItem `json:"ticket"`

	OverallAnalysis string `json:"overall_analysis,omitempty"`
}

type TicketSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Finalize 统一时间为 UTC，并由 items 重新计算 summary。
// 注意：items 顺序就是输入顺序，这里绝不排序。
func (t *Ticket) Finalize() {
	t.CreatedAt = t.CreatedAt.UTC()
	if t.SavedAt != nil {
		s := t.SavedAt.UTC()
		t.SavedAt = &s
	}
	if t.Items == nil {
		t.Items = []PredictionItem{}
	}

	s := TicketSummary{Total: len(t.Items)}
	for _, it := range t.Items {
		if it.Error {
			s.Failed++
		} else {
			s.Succeeded++
		}
	}
	t.Summary = s
}

// Successful 返回非失败条目（保持原顺序）。
func (t Ticket) Successful() []PredictionItem {
	out := make([]PredictionItem, 0, len(t.Items))
	for _, it := range t.Items {
		if !it.Error {
			out = append(out, it)
		}
	}
	return out
}
