// Package llm 封装对 OpenAI 兼容接口的单次调用（文本/多模态，可选 JSON schema 输出）。
//
// 约束：
// - 不做重试：失败即终态，由调用方决定如何降级（单条失败不影响其他）
// - 调用方的 ctx 取消会中断在途请求
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// ErrEmptyResponse 表示模型返回了空内容（没有 choice 或文本为空）。
var ErrEmptyResponse = errors.New("模型返回了空响应")

// Request 是一次补全请求。
type Request struct {
	// Model 为空时使用 Client 的默认模型。
	Model  string
	Prompt string
	// Images 是 data URL（data:<mime>;base64,...），按顺序放在 prompt 之前。
	Images []string
	// Schema 非空时要求模型按 JSON schema 输出（strict）。
	Schema *Schema
}

// Citation 是模型回答附带的引用来源。
type Citation struct {
	Title string
	URL   string
}

// Response 是补全结果。
type Response struct {
	Text      string
	Citations []Citation
	Model     string
}

// Completer 是单次补全的抽象（便于测试注入 fake）。
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Options 用于构造 Client。
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	// HTTPClient 通常来自 httpx.NewAPIClient（代理 + 超时）。
	HTTPClient *http.Client
}

// Client 是基于 openai-go 的 Completer 实现。
type Client struct {
	api   openai.Client
	model string
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("llm: API key 不能为空")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("llm: model 不能为空")
	}

	ro := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.HTTPClient != nil {
		ro = append(ro, option.WithHTTPClient(opts.HTTPClient))
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		// base URL 必须以 '/' 结尾，否则 chat/completions 会被拼到上一级路径。
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		ro = append(ro, option.WithBaseURL(base))
	}

	return &Client{
		api:   openai.NewClient(ro...),
		model: strings.TrimSpace(opts.Model),
	}, nil
}

// Complete 发送一次 chat completion 请求。
func (c *Client) Complete(ctx context.Context, req Request) (Response, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{userMessage(req)},
	}
	if req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        req.Schema.Name,
					Description: openai.String(req.Schema.Description),
					Schema:      req.Schema.Value,
					Strict:      openai.Bool(true),
				},
			},
		}
	}

	completion, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, wrapError(err)
	}
	if len(completion.Choices) == 0 {
		return Response{}, ErrEmptyResponse
	}

	msg := completion.Choices[0].Message
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		if msg.Refusal != "" {
			return Response{}, fmt.Errorf("模型拒绝回答：%s", msg.Refusal)
		}
		return Response{}, ErrEmptyResponse
	}

	out := Response{Text: text, Model: completion.Model}
	for _, a := range msg.Annotations {
		u := strings.TrimSpace(a.URLCitation.URL)
		if u == "" {
			continue
		}
		out.Citations = append(out.Citations, Citation{Title: strings.TrimSpace(a.URLCitation.Title), URL: u})
	}
	return out, nil
}

func userMessage(req Request) openai.ChatCompletionMessageParamUnion {
	if len(req.Images) == 0 {
		return openai.UserMessage(req.Prompt)
	}
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(req.Images)+1)
	for _, u := range req.Images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: u}))
	}
	parts = append(parts, openai.TextContentPart(req.Prompt))
	return openai.UserMessage(parts)
}

// APIError 是模型 API 返回的非 2xx 错误。
type APIError struct {
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	hint := ""
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		hint = "（API key 无效或无权限）"
	case e.StatusCode == http.StatusTooManyRequests:
		hint = "（请求过于频繁或额度不足）"
	case e.StatusCode >= 500:
		hint = "（模型服务暂时不可用）"
	}
	return fmt.Sprintf("模型 API 返回 HTTP %d%s：%v", e.StatusCode, hint, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

func wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.StatusCode, Err: err}
	}
	return err
}
