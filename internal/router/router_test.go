package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"tieba/internal/middleware"
	"tieba/internal/models"
	"tieba/internal/storage"
	"tieba/internal/testutil"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubHTML 记录最近一次渲染的模板名与数据，响应体只写模板名
type stubHTML struct {
	name string
	data gin.H
}

func (s *stubHTML) Instance(name string, data interface{}) render.Render {
	s.name = name
	s.data, _ = data.(gin.H)
	return render.Data{ContentType: "text/html; charset=utf-8", Data: []byte(name)}
}

type testApp struct {
	t    *testing.T
	r    *gin.Engine
	conn *gorm.DB
	html *stubHTML
}

func testDeps(t *testing.T, conn *gorm.DB) Deps {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)
	return Deps{
		DB:      conn,
		Store:   store,
		SiteURL: "https://tieba.example",
	}
}

func newTestApp(t *testing.T) *testApp {
	conn := testutil.NewDB(t)
	html := &stubHTML{}

	r := gin.New()
	r.HTMLRender = html
	r.Use(sessions.Sessions("test", cookie.NewStore([]byte("secret"))))
	r.Use(middleware.LoadUser(conn))
	RegisterRoutes(r, testDeps(t, conn))
	return &testApp{t: t, r: r, conn: conn, html: html}
}

// client 持有各自的会话 cookie
type client struct {
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) anonymous() *client {
	return &client{app: a, cookies: make(map[string]*http.Cookie)}
}

// register 注册并自动登录
func (a *testApp) register(username string) *client {
	c := a.anonymous()
	w := c.post("/register/", url.Values{
		"username":  {username},
		"password":  {"password123"},
		"password2": {"password123"},
	}, nil)
	require.Equal(a.t, http.StatusFound, w.Code)
	return c
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.app.r.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, form url.Values, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header[k] = v
	}
	return c.do(req)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func (a *testApp) user(username string) *models.User {
	var user models.User
	require.NoError(a.t, a.conn.Where("username = ?", username).First(&user).Error)
	return &user
}

func TestRegisterRoutesOnFreshEngine(t *testing.T) {
	deps := testDeps(t, testutil.NewDB(t))
	r := gin.New()
	assert.NotPanics(t, func() { RegisterRoutes(r, deps) })

	seen := make(map[string]bool)
	for _, route := range r.Routes() {
		key := route.Method + " " + route.Path
		assert.False(t, seen[key], "duplicate route %s", key)
		seen[key] = true
	}
	assert.True(t, seen["POST /admin/post/:id/delete/"])
}

func TestRegisterLogsInAndRedirectsHome(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")

	w := alice.get("/profile/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/alice/", w.Header().Get("Location"))

	w = alice.get("/profile/alice/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tieba/profile.html", app.html.name)

	var profile models.UserProfile
	require.NoError(t, app.conn.Where("user_id = ?", app.user("alice").ID).First(&profile).Error)
}

func TestRegisterDuplicateRerendersForm(t *testing.T) {
	app := newTestApp(t)
	app.register("alice")

	w := app.anonymous().post("/register/", url.Values{
		"username":  {"alice"},
		"password":  {"password123"},
		"password2": {"password123"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "auth/register.html", app.html.name)
	assert.Contains(t, app.html.data["Errors"], "username")
}

func TestLoginAndLogout(t *testing.T) {
	app := newTestApp(t)
	app.register("alice")

	c := app.anonymous()
	w := c.post("/login/", url.Values{"username": {"alice"}, "password": {"wrong-password"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.post("/login/", url.Values{
		"username": {"alice"},
		"password": {"password123"},
		"next":     {"/categories/"},
	}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/categories/", w.Header().Get("Location"))
	assert.Equal(t, http.StatusFound, c.get("/profile/").Code)
	assert.Equal(t, "/profile/alice/", c.get("/profile/").Header().Get("Location"))

	c.post("/logout/", nil, nil)
	w = c.get("/profile/")
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/login/"))
}

func TestLoginRejectsExternalNext(t *testing.T) {
	app := newTestApp(t)
	app.register("alice")

	w := app.anonymous().post("/login/", url.Values{
		"username": {"alice"},
		"password": {"password123"},
		"next":     {"//evil.example/"},
	}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	app := newTestApp(t)
	c := app.anonymous()

	w := c.get("/post/create/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/?next=%2Fpost%2Fcreate%2F", w.Header().Get("Location"))

	w = c.post("/post/1/like/", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/?next=%2Fpost%2F1%2Flike%2F", w.Header().Get("Location"))

	w = c.post("/post/1/like/?format=json", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreatePostAndViewCount(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")
	category := testutil.CreateCategory(t, app.conn, "技术")

	w := alice.post("/post/create/", url.Values{
		"title":    {"Hello"},
		"content":  {"**world**"},
		"category": {"1"},
		"tags":     {"go, web, go"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/post/1/", w.Header().Get("Location"))

	var post models.Post
	require.NoError(t, app.conn.First(&post, 1).Error)
	assert.Equal(t, category.ID, post.CategoryID)
	assert.Equal(t, []string{"go", "web"}, post.Tags)

	anon := app.anonymous()
	require.Equal(t, http.StatusOK, anon.get("/post/1/").Code)
	require.Equal(t, http.StatusOK, anon.get("/post/1/").Code)
	assert.Equal(t, "tieba/detail.html", app.html.name)
	require.NoError(t, app.conn.First(&post, 1).Error)
	assert.EqualValues(t, 2, post.ViewCount)
}

func TestCreatePostValidation(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")
	testutil.CreateCategory(t, app.conn, "技术")

	w := alice.post("/post/create/", url.Values{"title": {""}, "content": {"x"}, "category": {"1"}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "tieba/post_form.html", app.html.name)
	assert.Contains(t, app.html.data["Errors"], "title")

	w = alice.post("/post/create/", url.Values{"title": {"t"}, "content": {"x"}, "category": {"99"}}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "tieba/post_form.html", app.html.name)
}

func TestEditWithUnknownCategoryRerendersForm(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")
	post := testutil.CreatePost(t, app.conn, app.user("alice"), testutil.CreateCategory(t, app.conn, "c"), "t", "c")

	w := alice.post("/post/1/edit/", url.Values{"title": {"new"}, "content": {"body"}, "category": {"99"}}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "tieba/post_form.html", app.html.name)
	assert.Equal(t, "/post/1/edit/", app.html.data["Action"])
	assert.Contains(t, app.html.data["Errors"], "categoryid")
	assert.NotNil(t, app.html.data["Post"])

	var stored models.Post
	require.NoError(t, app.conn.First(&stored, post.ID).Error)
	assert.Equal(t, "t", stored.Title)

	w = alice.post("/post/42/edit/", url.Values{"title": {"new"}, "content": {"body"}, "category": {"99"}}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error.html", app.html.name)
}

func TestEmptyCommentReturnsToPost(t *testing.T) {
	app := newTestApp(t)
	bob := app.register("bob")
	testutil.CreatePost(t, app.conn, app.user("bob"), testutil.CreateCategory(t, app.conn, "c"), "t", "c")

	w := bob.post("/post/1/comment/", url.Values{"content": {"   "}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/post/1/#comments", w.Header().Get("Location"))

	require.Equal(t, http.StatusOK, bob.get("/post/1/").Code)
	assert.NotEmpty(t, app.html.data["CommentError"])
	require.Equal(t, http.StatusOK, bob.get("/post/1/").Code)
	assert.Empty(t, app.html.data["CommentError"])

	w = bob.post("/post/1/comment/?format=json", url.Values{"content": {""}}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs, ok := decode(t, w)["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errs, "content")

	var count int64
	require.NoError(t, app.conn.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMissingPostReturns404(t *testing.T) {
	app := newTestApp(t)
	c := app.anonymous()

	assert.Equal(t, http.StatusNotFound, c.get("/post/999/").Code)
	assert.Equal(t, http.StatusNotFound, c.get("/post/abc/").Code)
	assert.Equal(t, http.StatusNotFound, c.get("/category/999/").Code)
	assert.Equal(t, http.StatusNotFound, c.get("/profile/nobody/").Code)
}

func TestEditAndDeleteRequireOwnership(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")
	bob := app.register("bob")
	post := testutil.CreatePost(t, app.conn, app.user("alice"), testutil.CreateCategory(t, app.conn, "c"), "t", "c")
	editPath := "/post/1/edit/"

	assert.Equal(t, http.StatusForbidden, bob.get(editPath).Code)
	assert.Equal(t, http.StatusForbidden, bob.post("/post/1/delete/", nil, nil).Code)

	assert.Equal(t, http.StatusOK, alice.get(editPath).Code)
	w := alice.post(editPath, url.Values{"title": {"new"}, "content": {"body"}, "category": {"1"}}, nil)
	assert.Equal(t, http.StatusFound, w.Code)

	w = alice.post("/post/1/delete/", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, http.StatusNotFound, alice.get("/post/1/").Code)

	var stored models.Post
	require.NoError(t, app.conn.First(&stored, post.ID).Error)
	assert.Equal(t, "new", stored.Title)
	assert.False(t, stored.IsActive)
}

func TestLikeRespondsJSONOrRedirect(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")
	testutil.CreatePost(t, app.conn, app.user("alice"), testutil.CreateCategory(t, app.conn, "c"), "t", "c")

	w := alice.post("/post/1/like/?format=json", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["liked"])
	assert.EqualValues(t, 1, body["like_count"])

	w = alice.post("/post/1/like/", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/post/1/", w.Header().Get("Location"))

	var post models.Post
	require.NoError(t, app.conn.First(&post, 1).Error)
	assert.EqualValues(t, 0, post.LikeCount)
}

func TestFavoriteWithAcceptHeader(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")
	testutil.CreatePost(t, app.conn, app.user("alice"), testutil.CreateCategory(t, app.conn, "c"), "t", "c")

	header := http.Header{"Accept": {"application/json"}}
	body := decode(t, alice.post("/post/1/favorite/", nil, header))
	assert.Equal(t, true, body["favorited"])
	assert.EqualValues(t, 1, body["favorite_count"])

	body = decode(t, alice.post("/post/1/favorite/", nil, header))
	assert.Equal(t, false, body["favorited"])
	assert.EqualValues(t, 0, body["favorite_count"])

	assert.Equal(t, http.StatusNotFound, alice.post("/post/42/favorite/", nil, header).Code)
}

func TestCommentReplyAndLike(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")
	bob := app.register("bob")
	testutil.CreatePost(t, app.conn, app.user("alice"), testutil.CreateCategory(t, app.conn, "c"), "t", "c")

	w := bob.post("/post/1/comment/", url.Values{"content": {"first"}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/post/1/#comment-1", w.Header().Get("Location"))

	w = alice.post("/post/1/comment/?format=json", url.Values{"content": {"reply"}, "parent_id": {"1"}}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["parent_id"])

	w = alice.post("/comment/1/like/", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/post/1/#comment-1", w.Header().Get("Location"))

	assert.Equal(t, http.StatusForbidden, alice.post("/comment/1/delete/", nil, nil).Code)
	w = bob.post("/comment/1/delete/", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)

	require.Equal(t, http.StatusOK, alice.get("/post/1/").Code)
	assert.Equal(t, 1, app.html.data["CommentTotal"])
}

func TestListingAndSearchPages(t *testing.T) {
	app := newTestApp(t)
	author := testutil.CreateUser(t, app.conn, "author")
	category := testutil.CreateCategory(t, app.conn, "c")
	testutil.CreatePost(t, app.conn, author, category, "Learning Go", "body")
	testutil.CreatePost(t, app.conn, author, category, "Rust", "body")
	c := app.anonymous()

	require.Equal(t, http.StatusOK, c.get("/?sort=hot&page=9").Code)
	assert.Equal(t, "tieba/index.html", app.html.name)

	require.Equal(t, http.StatusOK, c.get("/search/?q=go").Code)
	assert.Equal(t, "tieba/search.html", app.html.name)
	assert.Equal(t, "go", app.html.data["Query"])

	require.Equal(t, http.StatusOK, c.get("/category/1/").Code)
	assert.Equal(t, "tieba/category.html", app.html.name)

	require.Equal(t, http.StatusOK, c.get("/categories/").Code)
	assert.Equal(t, "tieba/categories.html", app.html.name)
}

func TestAdminRoutes(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")
	testutil.CreatePost(t, app.conn, app.user("alice"), testutil.CreateCategory(t, app.conn, "c"), "t", "c")

	assert.Equal(t, http.StatusForbidden, alice.get("/admin/").Code)
	assert.Equal(t, "error.html", app.html.name)
	assert.Equal(t, http.StatusForbidden, app.html.data["Code"])
	assert.Equal(t, http.StatusForbidden, alice.post("/admin/categories/", url.Values{"name": {"x"}}, nil).Code)
	w := alice.post("/admin/post/1/pin/?format=json", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotEmpty(t, decode(t, w)["error"])

	require.NoError(t, app.conn.Model(&models.User{}).Where("username = ?", "alice").Update("role", models.RoleAdmin).Error)

	assert.Equal(t, http.StatusOK, alice.get("/admin/").Code)
	w = alice.post("/admin/categories/", url.Values{"name": {"新分类"}, "description": {"d"}}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, http.StatusBadRequest, alice.post("/admin/categories/", url.Values{"name": {""}}, nil).Code)

	body := decode(t, alice.post("/admin/post/1/pin/?format=json", nil, nil))
	assert.Equal(t, true, body["pinned"])

	assert.Equal(t, http.StatusFound, alice.post("/admin/post/1/delete/", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, alice.get("/post/1/").Code)
}

func TestSEOEndpoints(t *testing.T) {
	app := newTestApp(t)
	author := testutil.CreateUser(t, app.conn, "author")
	testutil.CreatePost(t, app.conn, author, testutil.CreateCategory(t, app.conn, "c"), "Feed <title>", "body")
	c := app.anonymous()

	w := c.get("/robots.txt")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sitemap: https://tieba.example/sitemap.xml")

	w = c.get("/sitemap.xml")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<loc>https://tieba.example/post/1/</loc>")
	assert.Contains(t, w.Body.String(), "<loc>https://tieba.example/category/1/</loc>")

	w = c.get("/feed.xml")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/rss+xml")

	feed, err := gofeed.NewParser().ParseString(w.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "rss", feed.FeedType)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "Feed <title>", feed.Items[0].Title)
	assert.Equal(t, "https://tieba.example/post/1/", feed.Items[0].Link)

	assert.Equal(t, http.StatusOK, c.get("/healthz").Code)
}

func TestUploadRequiresImage(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")

	w := alice.post("/upload/", url.Values{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}
