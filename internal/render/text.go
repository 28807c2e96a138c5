// Package render 把票据渲染为纯文本（可直接粘贴分享）、Markdown 与终端样式文本。
package render

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/tipster/internal/domain"
	"github.com/John-Robertt/tipster/internal/prompt"
)

const itemSeparator = "\n\n---\n\n"

// Stars 把 conviction（1..5）渲染为 ★/☆；越界值会被截断。
func Stars(n int) string {
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

// StrategyName 返回策略的展示名；未知策略原样返回。
func StrategyName(s domain.Strategy) string {
	if st, ok := prompt.Builtin().Get(s); ok {
		return st.Name()
	}
	return string(s)
}

// Text 按分享格式渲染票据。
func Text(tk domain.Ticket) string {
	var b strings.Builder
	b.WriteString("--- SPORTYBET AI PREDICTION TICKET ---\n\n")
	if tk.Strategy != "" {
		name := StrategyName(tk.Strategy)
		if tk.Market != "" {
			name += " (" + tk.Market + ")"
		}
		fmt.Fprintf(&b, "Strategy Used: %s\n\n", name)
	}
	if tk.OverallAnalysis != "" {
		fmt.Fprintf(&b, "--- OVERALL ANALYSIS ---\n%s\n\n", tk.OverallAnalysis)
	}
	b.WriteString("--- PREDICTIONS ---\n\n")

	parts := make([]string, 0, len(tk.Items))
	for _, it := range tk.Items {
		if it.Error {
			parts = append(parts, fmt.Sprintf("Match: %s\nPrediction: %s\nReason: %s", it.Match, it.Prediction, it.Reasoning.Main))
			continue
		}
		parts = append(parts, fmt.Sprintf("Match: %s\nPrediction: %s\nConviction: %s\nReasoning: %s\nConsidered Alternatives: %s\nMain Risk: %s",
			it.Match, it.Prediction, Stars(it.Conviction),
			it.Reasoning.Main, it.Reasoning.ConsideredAlternatives, it.Reasoning.DevilsAdvocate))
	}
	b.WriteString(strings.Join(parts, itemSeparator))
	return b.String()
}
