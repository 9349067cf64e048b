package utils

import (
	"crypto/sha256"
	"html/template"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

// renderCacheSize 渲染结果缓存条目数
const renderCacheSize = 500

// RenderCache 按内容摘要缓存 Markdown 渲染结果。
// 渲染是内容的纯函数，帖子被编辑后摘要随之变化，无需失效处理。
type RenderCache struct {
	lruCache *lru.Cache[[sha256.Size]byte, template.HTML]
}

func NewRenderCache(size int) *RenderCache {
	l, err := lru.New[[sha256.Size]byte, template.HTML](size)
	if err != nil {
		slog.Error("create render cache failed", "size", size, "error", err)
		return &RenderCache{}
	}
	return &RenderCache{lruCache: l}
}

// GetOrRender 命中则直接返回，否则调用 render 并写入缓存
func (c *RenderCache) GetOrRender(source string, render func(string) template.HTML) template.HTML {
	if c == nil || c.lruCache == nil {
		return render(source)
	}
	key := sha256.Sum256([]byte(source))
	if html, ok := c.lruCache.Get(key); ok {
		return html
	}
	html := render(source)
	c.lruCache.Add(key, html)
	return html
}

func (c *RenderCache) Len() int {
	if c == nil || c.lruCache == nil {
		return 0
	}
	return c.lruCache.Len()
}
