package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/John-Robertt/tipster/internal/domain"
)

const (
	// ErrCodeNoMatches 表示比赛列表为空。
	ErrCodeNoMatches = "plan_no_matches"
	// ErrCodeMarketRequired 表示 MARKET_SPECIALIST 未指定市场。
	ErrCodeMarketRequired = "plan_market_required"
	// ErrCodeSingleMatchOnly 表示 HIGH_REWARD_SINGLE 的比赛数不是 1。
	ErrCodeSingleMatchOnly = "plan_single_match_only"
	// ErrCodeInvalid 表示策略或市场取值不合法。
	ErrCodeInvalid = "plan_invalid"
)

// Error 是规划阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Msg  string
}

func (e *Error) Error() string { return e.Code + "：" + e.Msg }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Input 是规划的原始输入（来自配置合并结果与比赛列表）。
type Input struct {
	Matches     []string
	Strategy    domain.Strategy
	Market      string
	Concurrency int
}

// Plan 在运行开始前校验输入，并生成确定性的 RunPlan（不做任何网络请求）。
//
// 规则：
// - 比赛列表去掉空白项后不能为空
// - strategy 为空时使用默认策略；必须是已知策略
// - MARKET_SPECIALIST 必须指定已知市场；其他策略忽略 market
// - HIGH_REWARD_SINGLE 只允许恰好 1 场比赛
// - concurrency < 1 时按 1 处理
func Plan(in Input) (domain.RunPlan, error) {
	matches := make([]string, 0, len(in.Matches))
	for _, m := range in.Matches {
		if m = strings.TrimSpace(m); m != "" {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		return domain.RunPlan{}, &Error{Code: ErrCodeNoMatches, Msg: "比赛列表为空；请先通过 `tipster matches add` 或 `tipster extract` 添加比赛"}
	}

	strategy := in.Strategy
	if strategy == "" {
		strategy = domain.DefaultStrategy
	}
	if _, err := domain.ParseStrategy(string(strategy)); err != nil {
		return domain.RunPlan{}, &Error{Code: ErrCodeInvalid, Msg: err.Error()}
	}

	market := ""
	if strategy.NeedsMarket() {
		if strings.TrimSpace(in.Market) == "" {
			return domain.RunPlan{}, &Error{Code: ErrCodeMarketRequired, Msg: fmt.Sprintf("%s 需要通过 --market 指定市场", strategy)}
		}
		m, err := domain.ParseMarket(in.Market)
		if err != nil {
			return domain.RunPlan{}, &Error{Code: ErrCodeInvalid, Msg: err.Error()}
		}
		market = m
	}

	if strategy.SingleMatchOnly() && len(matches) != 1 {
		return domain.RunPlan{}, &Error{Code: ErrCodeSingleMatchOnly, Msg: fmt.Sprintf("%s 只适用于恰好 1 场比赛（当前 %d 场）", strategy, len(matches))}
	}

	concurrency := in.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return domain.RunPlan{
		Matches:     matches,
		Strategy:    strategy,
		Market:      market,
		Concurrency: concurrency,
	}, nil
}
