package source

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/tipster/internal/domain"
)

const defaultResolveConcurrency = 4

// Cache 是标题缓存的最小接口（store.TitleCache 实现它）。
type Cache interface {
	Get(url string) (string, bool)
	Put(url, title string)
}

// Resolver 为缺少标题的来源补全标题。
//
// 约束：
// - 从不返回错误：抓取/解析失败时使用主机名兜底
// - 输出顺序与输入一致
type Resolver struct {
	Client      *http.Client
	Cache       Cache // 可为 nil
	Concurrency int
	Logger      *slog.Logger
}

// Resolve 返回补全标题后的来源副本（先 Dedup）。
func (r *Resolver) Resolve(ctx context.Context, in []domain.Source) []domain.Source {
	out := Dedup(in)
	if len(out) == 0 {
		return out
	}

	n := r.Concurrency
	if n <= 0 {
		n = defaultResolveConcurrency
	}
	var g errgroup.Group
	g.SetLimit(n)
	for i := range out {
		if out[i].Title != "" {
			continue
		}
		if r.Cache != nil {
			if t, ok := r.Cache.Get(out[i].URI); ok && t != "" {
				out[i].Title = t
				continue
			}
		}
		g.Go(func() error {
			out[i].Title = r.lookup(ctx, out[i].URI)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Resolver) lookup(ctx context.Context, u string) string {
	if r.Client == nil || ctx.Err() != nil {
		return Host(u)
	}
	b, err := Fetch(ctx, r.Client, u)
	if err == nil {
		var t string
		if t, err = ParseTitle(b); err == nil {
			if r.Cache != nil {
				r.Cache.Put(u, t)
			}
			return t
		}
	}
	if r.Logger != nil {
		r.Logger.Debug("来源标题获取失败", "url", u, "err", err)
	}
	return Host(u)
}
