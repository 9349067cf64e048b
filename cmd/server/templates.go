package main

import (
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"strings"
	"time"
	"tieba/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

// views 注册名 -> views 目录下的文件，注册名即 handler 中 c.HTML 使用的名字
var views = []string{
	"tieba/index.html",
	"tieba/category.html",
	"tieba/categories.html",
	"tieba/detail.html",
	"tieba/post_form.html",
	"tieba/search.html",
	"tieba/profile.html",
	"tieba/edit_profile.html",
	"auth/login.html",
	"auth/register.html",
	"admin/index.html",
	"error.html",
}

func timeAgo(t time.Time) string {
	seconds := int(time.Since(t).Seconds())
	switch {
	case seconds < 60:
		return "刚刚"
	case seconds < 3600:
		return fmt.Sprintf("%d分钟前", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%d小时前", seconds/3600)
	case seconds < 2592000:
		return fmt.Sprintf("%d天前", seconds/86400)
	case seconds < 31536000:
		return fmt.Sprintf("%d个月前", seconds/2592000)
	}
	return fmt.Sprintf("%d年前", seconds/31536000)
}

// withQuery 拼接查询参数，空字符串与 0 值被省略
func withQuery(path string, pairs ...interface{}) (string, error) {
	if len(pairs)%2 != 0 {
		return "", fmt.Errorf("withQuery expects key/value pairs")
	}
	values := url.Values{}
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return "", fmt.Errorf("withQuery keys must be strings")
		}
		value := fmt.Sprint(pairs[i+1])
		if value == "" || value == "0" {
			continue
		}
		values.Set(key, value)
	}
	if len(values) == 0 {
		return path, nil
	}
	return path + "?" + values.Encode(), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo":  timeAgo,
		"date":     func(t time.Time) string { return t.Format("2006-01-02 15:04") },
		"markdown": utils.RenderMarkdown,
		"excerpt":  utils.Excerpt,
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"join":          strings.Join,
		"defaultAvatar": utils.DefaultAvatar,
		"isImageAvatar": utils.IsImageAvatar,
		"postURL": func(id uint) string {
			return fmt.Sprintf("/post/%d/", id)
		},
		"profileURL": func(username string) string {
			return "/profile/" + url.PathEscape(username) + "/"
		},
		"withQuery": withQuery,
	}
}

func loadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}
	includes, err := filepath.Glob(templatesDir + "/includes/*.html")
	if err != nil {
		panic(err)
	}
	components, err := filepath.Glob(templatesDir + "/components/*.html")
	if err != nil {
		panic(err)
	}

	// "tieba/detail.html" -> [base, includes..., components..., view]
	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+len(includes)+len(components)+1)
		files = append(files, layouts...)
		files = append(files, includes...)
		files = append(files, components...)
		files = append(files, view)
		return files
	}

	funcMap := templateFuncs()
	for _, name := range views {
		r.AddFromFilesFuncs(name, funcMap, assemble(filepath.Join(templatesDir, "views", name))...)
	}
	return r
}
