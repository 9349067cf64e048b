package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"
	"tieba/internal/services"
	"tieba/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	feedSize    = 20
	sitemapSize = 500
)

type SEOHandler struct {
	listing *services.ListingService
	siteURL string
}

func NewSEOHandler(listing *services.ListingService, siteURL string) *SEOHandler {
	return &SEOHandler{listing: listing, siteURL: siteURL}
}

// RobotsTxt GET /robots.txt
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /admin/
Disallow: /login/
Disallow: /register/
Disallow: /profile/edit/
Disallow: /upload/

Sitemap: %s/sitemap.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// SitemapXML GET /sitemap.xml，首页、分类页与最近的帖子
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	ctx := c.Request.Context()
	today := time.Now().Format("2006-01-02")

	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs,
		sitemapURL{Loc: h.siteURL + "/", LastMod: today, ChangeFreq: "hourly", Priority: "1.0"},
		sitemapURL{Loc: h.siteURL + "/categories/", LastMod: today, ChangeFreq: "weekly", Priority: "0.8"},
	)

	categories, err := h.listing.Categories(ctx)
	if err != nil {
		HandleError(c, err)
		return
	}
	for _, category := range categories {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        fmt.Sprintf("%s/category/%d/", h.siteURL, category.ID),
			LastMod:    today,
			ChangeFreq: "daily",
			Priority:   "0.7",
		})
	}

	posts, err := h.listing.Recent(ctx, sitemapSize)
	if err != nil {
		HandleError(c, err)
		return
	}
	for _, post := range posts {
		priority := "0.6"
		if time.Since(post.CreatedAt) < 7*24*time.Hour {
			priority = "0.8"
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.siteURL + postURL(post.ID),
			LastMod:    post.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   priority,
		})
	}

	writeXML(c, "application/xml; charset=utf-8", set)
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author,omitempty"`
	Category    string `xml:"category,omitempty"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

// RSSFeed GET /feed.xml，最新 20 篇帖子
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	posts, err := h.listing.Recent(c.Request.Context(), feedSize)
	if err != nil {
		HandleError(c, err)
		return
	}

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:         "贴吧",
			Link:          h.siteURL + "/",
			Description:   "最新帖子",
			Language:      "zh-CN",
			LastBuildDate: time.Now().Format(time.RFC1123Z),
		},
	}
	for _, post := range posts {
		link := h.siteURL + postURL(post.ID)
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       post.Title,
			Link:        link,
			Description: utils.Excerpt(post.Content, 300),
			Author:      post.User.Username,
			Category:    post.Category.Name,
			PubDate:     post.CreatedAt.Format(time.RFC1123Z),
			GUID:        link,
		})
	}

	writeXML(c, "application/rss+xml; charset=utf-8", feed)
}

func writeXML(c *gin.Context, contentType string, v interface{}) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, append([]byte(xml.Header), out...))
}
