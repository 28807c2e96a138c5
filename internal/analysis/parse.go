package analysis

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/John-Robertt/tipster/internal/domain"
	"github.com/John-Robertt/tipster/internal/llm"
)

// wirePrediction 是期望模型输出的 JSON 结构（用于生成 schema）。
type wirePrediction struct {
	Match      string          `json:"match" jsonschema:"description=The original match name string"`
	Prediction string          `json:"prediction" jsonschema:"description=The specific prediction in one of the allowed formats"`
	Conviction int             `json:"conviction" jsonschema:"description=Integer from 1 (weak) to 5 (very strong)"`
	Reasoning  wireReasoning   `json:"reasoning"`
	Sources    []domain.Source `json:"sources"`
}

type wireReasoning struct {
	Main                   string `json:"main" jsonschema:"description=Two or three sentences explaining the pick"`
	DevilsAdvocate         string `json:"devils_advocate" jsonschema:"description=The most likely way this pick loses"`
	ConsideredAlternatives string `json:"considered_alternatives" jsonschema:"description=Other markets considered and why they were rejected"`
}

var predictionSchema = llm.SchemaFor[wirePrediction]("match_prediction", "A single betting prediction for one match")

// rawPrediction 是宽松的解析目标：兼容旧版回答（confidence 字段、字符串 reasoning）。
type rawPrediction struct {
	Match      string          `json:"match"`
	Prediction string          `json:"prediction"`
	Conviction *float64        `json:"conviction"`
	Confidence *float64        `json:"confidence"`
	Reasoning  json.RawMessage `json:"reasoning"`
	Sources    []domain.Source `json:"sources"`
}

type rawReasoning struct {
	Main                      string `json:"main"`
	DevilsAdvocate            string `json:"devils_advocate"`
	DevilsAdvocateCamel       string `json:"devilsAdvocate"`
	ConsideredAlternatives    string `json:"considered_alternatives"`
	ConsideredAlternativesAlt string `json:"consideredAlternatives"`
}

// extractJSON 取文本中第一个 '{' 到最后一个 '}' 之间的内容（模型常在 JSON 外包裹说明或代码块）。
func extractJSON(text string) (string, bool) {
	i := strings.Index(text, "{")
	j := strings.LastIndex(text, "}")
	if i < 0 || j < i {
		return "", false
	}
	return text[i : j+1], true
}

// parsePrediction 校验模型回答；match 始终使用调用方的比赛名。
func parsePrediction(match, text string) (domain.PredictionItem, error) {
	bad := func(reason string) (domain.PredictionItem, error) {
		return domain.PredictionItem{}, &FormatError{Match: match, Reason: reason}
	}

	body, ok := extractJSON(text)
	if !ok {
		return bad("回答中没有 JSON 对象")
	}
	var raw rawPrediction
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return bad(err.Error())
	}

	if strings.TrimSpace(raw.Match) == "" {
		return bad("缺少 match")
	}
	pred := strings.TrimSpace(raw.Prediction)
	if pred == "" {
		return bad("缺少 prediction")
	}
	score := raw.Conviction
	if score == nil {
		score = raw.Confidence
	}
	if score == nil || math.IsNaN(*score) || math.IsInf(*score, 0) {
		return bad("缺少数值 conviction")
	}
	reasoning, ok := parseReasoning(raw.Reasoning)
	if !ok {
		return bad("缺少 reasoning")
	}

	return domain.PredictionItem{
		Match:      match,
		Prediction: pred,
		Conviction: clampConviction(*score),
		Reasoning:  reasoning,
		Sources:    raw.Sources,
	}, nil
}

func parseReasoning(b json.RawMessage) (domain.Reasoning, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return domain.Reasoning{}, false
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil || strings.TrimSpace(s) == "" {
			return domain.Reasoning{}, false
		}
		return domain.Reasoning{Main: strings.TrimSpace(s)}, true
	}

	var r rawReasoning
	if err := json.Unmarshal(b, &r); err != nil {
		return domain.Reasoning{}, false
	}
	out := domain.Reasoning{
		Main:                   strings.TrimSpace(r.Main),
		DevilsAdvocate:         strings.TrimSpace(firstNonEmpty(r.DevilsAdvocate, r.DevilsAdvocateCamel)),
		ConsideredAlternatives: strings.TrimSpace(firstNonEmpty(r.ConsideredAlternatives, r.ConsideredAlternativesAlt)),
	}
	if out.Main == "" {
		return domain.Reasoning{}, false
	}
	return out, true
}

func clampConviction(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	if n > 5 {
		return 5
	}
	return n
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
