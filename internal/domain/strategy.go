package domain

import (
	"fmt"
	"strings"
)

// Strategy 决定单场分析使用的提示词与允许的预测市场。
type Strategy string

const (
	StrategyCautious         Strategy = "CAUTIOUS"
	StrategyValueHunter      Strategy = "VALUE_HUNTER"
	StrategyGoalsSpecialist  Strategy = "GOALS_SPECIALIST"
	StrategyHighRewardSingle Strategy = "HIGH_REWARD_SINGLE"
	StrategyMarketSpecialist Strategy = "MARKET_SPECIALIST"
)

// DefaultStrategy 是未指定策略时的最终默认值。
const DefaultStrategy = StrategyCautious

// Strategies 返回全部策略（展示顺序固定）。
func Strategies() []Strategy {
	return []Strategy{
		StrategyCautious,
		StrategyValueHunter,
		StrategyGoalsSpecialist,
		StrategyHighRewardSingle,
		StrategyMarketSpecialist,
	}
}

// ParseStrategy 解析用户输入的策略名。
// 大小写不敏感，'-' 与空格等价于 '_'（例如 "value-hunter"）。
func ParseStrategy(s string) (Strategy, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	if norm == "" {
		return "", fmt.Errorf("strategy 不能为空")
	}
	for _, st := range Strategies() {
		if string(st) == norm {
			return st, nil
		}
	}
	return "", fmt.Errorf("未知 strategy：%q", s)
}

// NeedsMarket 表示该策略是否要求用户指定市场。
func (s Strategy) NeedsMarket() bool { return s == StrategyMarketSpecialist }

// SingleMatchOnly 表示该策略是否只允许分析恰好一场比赛。
func (s Strategy) SingleMatchOnly() bool { return s == StrategyHighRewardSingle }

// Markets 是 MARKET_SPECIALIST 可选的市场列表（用户可见，顺序固定）。
var Markets = []string{
	"Home win (1)", "Away win (2)", "Home or Away", "Home or Draw", "Away or Draw",
	"Over 0.5 goals", "Over 1.5 goals", "Over 2.5 goals", "Over 3.5 goals",
	"Under 1.5 goals", "Under 2.5 goals", "Under 3.5 goals", "Under 4.5 goals",
	"Both Teams To Score (Yes)", "Both Teams To Score (No)",
	"Handicap Home -1", "Handicap Away -1", "Handicap Home +1", "Handicap Away +1",
	"Draw No Bet – Home", "Draw No Bet – Away", "Total Corners Over 9.5", "Total Corners Under 9.5",
}

// ParseMarket 把用户输入匹配到 Markets 中的规范写法。
// 比较时忽略大小写，并把 '-' 视为 '–'（终端里很难打出 en dash）。
func ParseMarket(s string) (string, error) {
	want := normMarket(s)
	if want == "" {
		return "", fmt.Errorf("market 不能为空")
	}
	for _, m := range Markets {
		if normMarket(m) == want {
			return m, nil
		}
	}
	return "", fmt.Errorf("未知 market：%q", s)
}

func normMarket(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.ReplaceAll(s, "–", "-")
}
