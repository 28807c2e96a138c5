// Package analysis 把单场比赛交给模型分析，并把回答校验为 domain.PredictionItem。
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/John-Robertt/tipster/internal/domain"
	"github.com/John-Robertt/tipster/internal/llm"
	"github.com/John-Robertt/tipster/internal/prompt"
	"github.com/John-Robertt/tipster/internal/source"
)

// NoPredictionsSummary 是没有任何成功预测时的整体分析文案（不调用模型）。
const NoPredictionsSummary = "No successful predictions were available to analyze."

// FormatError 表示模型回答无法解析为合法的预测。
type FormatError struct {
	Match  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("The analysis for %q returned an invalid format.", e.Match)
}

// Analyzer 负责单场分析与整体分析。
//
// 约束：
// - 可并发调用（自身无可变状态）
// - 单场失败只返回 error，由上层降级为失败条目
type Analyzer struct {
	LLM     llm.Completer
	Prompts prompt.Registry
	// Model 为空时使用 LLM 客户端的默认模型。
	Model string
	// Structured=true 时请求 JSON schema 输出；否则从文本中提取 JSON。
	Structured bool
	// Titles 非空时为缺少标题的来源抓取页面标题。
	Titles *source.Resolver
	Logger *slog.Logger
}

// AnalyzeMatch 按策略分析一场比赛。
func (a *Analyzer) AnalyzeMatch(ctx context.Context, match string, strategy domain.Strategy, market string) (domain.PredictionItem, error) {
	if a.LLM == nil {
		return domain.PredictionItem{}, errors.New("analysis: LLM 不能为空")
	}
	text, err := a.Prompts.Build(strategy, match, prompt.Params{Market: market})
	if err != nil {
		return domain.PredictionItem{}, err
	}

	req := llm.Request{Model: a.Model, Prompt: text}
	if a.Structured {
		req.Schema = predictionSchema
	}
	resp, err := a.LLM.Complete(ctx, req)
	if err != nil {
		return domain.PredictionItem{}, err
	}

	item, err := parsePrediction(match, resp.Text)
	if err != nil {
		a.log().Debug("模型回答格式不合法", "match", match, "err", err, "raw", resp.Text)
		return domain.PredictionItem{}, err
	}

	srcs := make([]domain.Source, 0, len(resp.Citations)+len(item.Sources))
	for _, c := range resp.Citations {
		srcs = append(srcs, domain.Source{Title: c.Title, URI: c.URL})
	}
	srcs = append(srcs, item.Sources...)
	if a.Titles != nil {
		item.Sources = a.Titles.Resolve(ctx, srcs)
	} else {
		item.Sources = source.Dedup(srcs)
	}
	return item, nil
}

// Summarize 对成功的预测生成整体分析；失败条目被忽略。
func (a *Analyzer) Summarize(ctx context.Context, items []domain.PredictionItem) (string, error) {
	ok := make([]domain.PredictionItem, 0, len(items))
	for _, it := range items {
		if !it.Error {
			ok = append(ok, it)
		}
	}
	if len(ok) == 0 {
		return NoPredictionsSummary, nil
	}
	if a.LLM == nil {
		return "", errors.New("analysis: LLM 不能为空")
	}

	resp, err := a.LLM.Complete(ctx, llm.Request{Model: a.Model, Prompt: prompt.Overall(ok)})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func (a *Analyzer) log() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
