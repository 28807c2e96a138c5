package prompt

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/tipster/internal/domain"
)

// ExtractMatches 是截图识别的提示词（每行一场比赛）。
const ExtractMatches = `You are an expert OCR tool for sports betting apps. Extract the names of the matches from this screenshot. A match is in the format 'Team A vs Team B'. List only the full match names, one per line. Do not include headers, odds, timestamps, or any other text. If no matches are found, return an empty response.`

// Overall 生成整体分析的提示词；items 必须是已过滤掉失败条目的预测。
func Overall(items []domain.PredictionItem) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("- %s: %s (Conviction: %d/5)", it.Match, it.Prediction, it.Conviction))
	}

	return `You are a world-class senior betting analyst providing a final review of a completed accumulator ticket. Your job is to give a direct, expert opinion on its overall strength. Do not re-analyze the games.

Here is the compiled ticket:
` + strings.Join(lines, "\n") + `

Provide a concise "meta-analysis" summary (3-4 sentences). Your summary MUST address the following points with confidence:
1. **Risk Assessment:** State the overall risk level (e.g., Low-Risk, Moderate, Ambitious but Plausible, High-Risk).
2. **The Banker:** Identify the single pick you consider the "banker" of the slip, the most solid foundation.
3. **The Risk:** Identify the single pick that poses the greatest risk to the ticket's success.
4. **Expert Verdict:** Give a final, concluding verdict on the ticket's overall chances.

Provide your response as a single block of text. Do not use markdown formatting.
`
}
