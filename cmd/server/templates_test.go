package main

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const templatesDir = "../../web/templates"

func TestLoadTemplatesParsesAllViews(t *testing.T) {
	assert.NotPanics(t, func() { loadTemplates(templatesDir) })
}

func TestRenderSimpleViews(t *testing.T) {
	r := loadTemplates(templatesDir)

	w := httptest.NewRecorder()
	err := r.Instance("error.html", gin.H{"Error": "内容不存在", "Code": 404, "CurrentPath": "/x/"}).Render(w)
	require.NoError(t, err)
	assert.Contains(t, w.Body.String(), "内容不存在")
	assert.Contains(t, w.Body.String(), "<title>贴吧</title>")

	w = httptest.NewRecorder()
	err = r.Instance("auth/login.html", gin.H{"Title": "登录", "Next": "/post/1/", "CurrentPath": "/login/"}).Render(w)
	require.NoError(t, err)
	assert.Contains(t, w.Body.String(), `name="next" value="/post/1/"`)
	assert.Contains(t, w.Body.String(), "<title>登录 - 贴吧</title>")
}

func TestWithQuery(t *testing.T) {
	got, err := withQuery("/", "sort", "hot", "category", uint(0), "q", "", "page", 2)
	require.NoError(t, err)
	assert.Equal(t, "/?page=2&sort=hot", got)

	got, err = withQuery("/search/", "q", "a b")
	require.NoError(t, err)
	assert.Equal(t, "/search/?q=a+b", got)

	_, err = withQuery("/", "odd")
	assert.Error(t, err)
}

func TestTimeAgo(t *testing.T) {
	assert.Equal(t, "刚刚", timeAgo(time.Now()))
	assert.Equal(t, "5分钟前", timeAgo(time.Now().Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "3天前", timeAgo(time.Now().Add(-72*time.Hour-time.Minute)))
}
