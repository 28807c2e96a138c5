package store

import (
	"path/filepath"
	"sync"

	"github.com/John-Robertt/tipster/internal/infra/fsx"
)

const titlesFile = "source_titles.json"

// TitleCache 缓存来源 URL 对应的页面标题，避免每次分析都重新抓取。
// 并发安全；修改只在 Flush 时落盘。
type TitleCache struct {
	path string

	mu     sync.Mutex
	titles map[string]string
	dirty  bool
}

// TitleCache 打开 <data_dir>/cache/source_titles.json（不存在或损坏时从空缓存开始）。
func (s *Store) TitleCache() *TitleCache {
	c := &TitleCache{
		path:   filepath.Join(s.Root, "cache", titlesFile),
		titles: map[string]string{},
	}
	var m map[string]string
	if _, err := fsx.ReadJSON(c.path, &m); err == nil && m != nil {
		c.titles = m
	}
	return c
}

func (c *TitleCache) Get(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.titles[url]
	return t, ok
}

func (c *TitleCache) Put(url, title string) {
	if url == "" || title == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.titles[url] == title {
		return
	}
	c.titles[url] = title
	c.dirty = true
}

// Flush 把修改写回磁盘；没有修改时不写。
func (c *TitleCache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	if err := fsx.WriteJSON(c.path, c.titles); err != nil {
		return err
	}
	c.dirty = false
	return nil
}
