// Package httpx 构造两类出站 HTTP client：调用模型 API 的 client，以及抓取来源页面的 client。
package httpx

import (
	"errors"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultAPITimeout 是模型 API 单次请求的默认总超时（多模态请求可能较慢）。
	DefaultAPITimeout = 120 * time.Second

	pageTimeout  = 10 * time.Second
	pageRetryMax = 1

	apiUserAgent = "tipster/1 (+https://github.com/John-Robertt/tipster)"
)

// Transport 把“UA + 代理 + 有界重试”固化为统一策略。
//
// 重试只针对可重放请求（GET/HEAD 且无 body）的传输层错误；
// 模型 API 是 POST，因此天然不重试（失败即终态，由上层记为单条失败）。
type Transport struct {
	Base *http.Transport

	// UserAgent 非空时固定使用；为空时从 UA 池随机选择。
	UserAgent string
	ua        *uaPool

	// RetryMax 表示最大重试次数（不含首次尝试）。例如 1 表示最多 2 次尝试。
	RetryMax int
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" {
			r.Header.Set("User-Agent", t.userAgent())
		}

		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			// ctx 已取消：不再重试。
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (t *Transport) userAgent() string {
	if t.UserAgent != "" {
		return t.UserAgent
	}
	if t.ua == nil {
		return apiUserAgent
	}
	return t.ua.random()
}

// NewAPIClient 构造调用模型 API 的 HTTP client。
//
// 规则：
// - proxyURL 非空：走代理
// - 固定 UA，不重试
// - timeout<=0 时使用 DefaultAPITimeout
func NewAPIClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	base, err := newBase(strings.TrimSpace(proxyURL))
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultAPITimeout
	}
	return &http.Client{
		Transport: &Transport{Base: base, UserAgent: apiUserAgent, RetryMax: 0},
		Timeout:   timeout,
	}, nil
}

// NewPageClient 构造抓取来源页面（解析标题）的 HTTP client。
//
// 规则：
// - proxyURL 非空：走代理，且禁用 keep-alive（每请求新连接）
// - 内置 UA 池：每个请求随机 UA（很多站点会拒绝非浏览器 UA）
// - 有界重试 + 较短总超时
func NewPageClient(proxyURL string) (*http.Client, error) {
	proxyURL = strings.TrimSpace(proxyURL)
	base, err := newBase(proxyURL)
	if err != nil {
		return nil, err
	}
	if proxyURL != "" {
		base.DisableKeepAlives = true
	}
	return &http.Client{
		Transport: &Transport{Base: base, ua: globalUA, RetryMax: pageRetryMax},
		Timeout:   pageTimeout,
	}, nil
}

func newBase(proxyURL string) (*http.Transport, error) {
	base := &http.Transport{
		Proxy:               nil,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConnsPerHost: 16,
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
	}
	return base, nil
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

var globalUA = newUAPool()

func newUAPool() *uaPool {
	uas := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
	}
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
