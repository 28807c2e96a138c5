// Package extract 从投注应用截图中识别比赛名（多图并行，按参数顺序合并）。
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"github.com/John-Robertt/tipster/internal/infra/imgx"
	"github.com/John-Robertt/tipster/internal/llm"
	"github.com/John-Robertt/tipster/internal/match"
	"github.com/John-Robertt/tipster/internal/prompt"
)

const defaultConcurrency = 3

// ErrNoImages 表示没有可识别的图片。
var ErrNoImages = errors.New("没有可识别的图片")

// ImageResult 是单张图片的识别结果；Err 非空时 Matches 为空。
type ImageResult struct {
	Path    string
	Matches []string
	Err     error
}

// Result 汇总一次识别。Matches 按图片参数顺序拼接（未去重，去重由合并步骤负责）。
type Result struct {
	Matches []string
	Images  []ImageResult
}

// Failed 返回失败的图片数量。
func (r Result) Failed() int {
	n := 0
	for _, im := range r.Images {
		if im.Err != nil {
			n++
		}
	}
	return n
}

// Extractor 调用视觉模型识别截图。
type Extractor struct {
	LLM llm.Completer
	// Model 为空时使用 LLM 客户端的默认模型。
	Model       string
	Concurrency int
	Logger      *slog.Logger

	load func(path string) (imgx.Image, error)
}

// Extract 并行识别 paths 中的每张图片。
//
// 约束：
// - 单张图片失败不影响其他图片；全部失败时返回第一张的错误
// - ctx 被取消时返回 ctx 的错误，不返回部分结果
func (e *Extractor) Extract(ctx context.Context, paths []string) (Result, error) {
	if len(paths) == 0 {
		return Result{}, ErrNoImages
	}
	if e.LLM == nil {
		return Result{}, errors.New("extract: LLM 不能为空")
	}
	n := e.Concurrency
	if n <= 0 {
		n = defaultConcurrency
	}
	load := e.load
	if load == nil {
		load = imgx.Load
	}
	log := e.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	type indexed struct {
		idx int
		res ImageResult
	}
	p := pool.NewWithResults[indexed]().
		WithContext(ctx).
		WithMaxGoroutines(n)
	for i, path := range paths {
		p.Go(func(ctx context.Context) (indexed, error) {
			if err := ctx.Err(); err != nil {
				return indexed{}, err
			}
			ms, err := e.one(ctx, load, path)
			if err != nil {
				log.Warn("截图识别失败", "path", path, "err", err)
			} else {
				log.Debug("截图识别完成", "path", path, "matches", len(ms))
			}
			return indexed{idx: i, res: ImageResult{Path: path, Matches: ms, Err: err}}, nil
		})
	}
	got, err := p.Wait()
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	out := Result{Images: make([]ImageResult, len(paths))}
	for _, r := range got {
		out.Images[r.idx] = r.res
	}
	out.Matches = []string{}
	for _, im := range out.Images {
		out.Matches = append(out.Matches, im.Matches...)
	}
	if out.Failed() == len(paths) {
		return out, fmt.Errorf("全部图片识别失败：%w", out.Images[0].Err)
	}
	return out, nil
}

func (e *Extractor) one(ctx context.Context, load func(string) (imgx.Image, error), path string) ([]string, error) {
	img, err := load(path)
	if err != nil {
		return nil, err
	}
	resp, err := e.LLM.Complete(ctx, llm.Request{
		Model:  e.Model,
		Prompt: prompt.ExtractMatches,
		Images: []string{img.DataURL()},
	})
	if errors.Is(err, llm.ErrEmptyResponse) {
		// 截图里没有比赛时模型按要求返回空内容。
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return match.ParseLines(resp.Text), nil
}
