package utils

import (
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EnhanceHTMLContent 为已净化 HTML 中的图片加懒加载与防盗链属性，
// 并给表格包一层可横向滚动的容器
func EnhanceHTMLContent(htmlStr string) template.HTML {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return template.HTML(htmlStr)
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
		s.AddClass("post-image")
	})

	doc.Find("table").Each(func(i int, s *goquery.Selection) {
		s.WrapHtml(`<div class="table-wrap"></div>`)
	})

	html, _ := doc.Find("body").Html()
	return template.HTML(html)
}

// Excerpt 从 Markdown 源文本截取纯文本摘要，用于列表页
func Excerpt(source string, limit int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(RenderMarkdown(source))))
	text := source
	if err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
