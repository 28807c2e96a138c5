// Package source 整理模型引用的来源：按 URL 去重，并为缺少标题的来源抓取页面标题。
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/tipster/internal/domain"
)

const (
	// maxPageBytes 限制单页读取量；<title> 总在文档前部。
	maxPageBytes = 1 << 20
	maxRedirects = 5
)

// ErrBlockedURL 表示来源 URL 不允许抓取：不是 http/https，或指向本机/内网地址。
var ErrBlockedURL = errors.New("来源 URL 不允许抓取")

// HTTPStatusError 表示来源页面返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Dedup 按 URI 去重（保留首次出现的顺序），丢弃空 URI；
// 同一 URI 后出现的非空标题可以补全先前的空标题。
func Dedup(in []domain.Source) []domain.Source {
	out := make([]domain.Source, 0, len(in))
	pos := make(map[string]int, len(in))
	for _, s := range in {
		s.URI = strings.TrimSpace(s.URI)
		s.Title = normSpace(s.Title)
		if s.URI == "" {
			continue
		}
		if i, ok := pos[s.URI]; ok {
			if out[i].Title == "" {
				out[i].Title = s.Title
			}
			continue
		}
		pos[s.URI] = len(out)
		out = append(out, s)
	}
	return out
}

// CheckURL 只放行指向公网主机的 http/https URL。
// 主机是 IP 字面量时按地址判断；主机名只拒绝 localhost（不做 DNS 解析）。
func CheckURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w：%v", ErrBlockedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w：scheme %q", ErrBlockedURL, u.Scheme)
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return fmt.Errorf("%w：缺少主机名", ErrBlockedURL)
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w：%s", ErrBlockedURL, host)
	}
	if ip, err := netip.ParseAddr(host); err == nil {
		ip = ip.Unmap()
		if !ip.IsGlobalUnicast() || ip.IsPrivate() {
			return fmt.Errorf("%w：%s", ErrBlockedURL, host)
		}
	}
	return nil
}

// Fetch 抓取来源页面（GET，最多读取 maxPageBytes）。
// u 与每一跳重定向目标都必须通过 CheckURL。
func Fetch(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	if c == nil {
		return nil, errors.New("http client 不能为空")
	}
	if err := CheckURL(u); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	guarded := *c
	guarded.CheckRedirect = func(r *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("重定向次数超过 %d", maxRedirects)
		}
		return CheckURL(r.URL.String())
	}
	resp, err := guarded.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
		return nil, &HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, errors.New("empty response body")
	}
	return b, nil
}

// ParseTitle 从 HTML 中取标题：优先 og:title，其次 <title>。
func ParseTitle(html []byte) (string, error) {
	if len(html) == 0 {
		return "", errors.New("html 为空")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", err
	}
	if v, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if t := normSpace(v); t != "" {
			return t, nil
		}
	}
	if t := normSpace(doc.Find("title").First().Text()); t != "" {
		return t, nil
	}
	return "", errors.New("页面没有标题")
}

// Host 返回 URL 的主机名（去掉 www. 前缀），用作无法取得标题时的兜底。
func Host(u string) string {
	p, err := url.Parse(strings.TrimSpace(u))
	if err != nil || p.Host == "" {
		return strings.TrimSpace(u)
	}
	return strings.TrimPrefix(p.Hostname(), "www.")
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
