package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"tieba/internal/apperror"
	"tieba/internal/middleware"
	"tieba/internal/models"
	"tieba/internal/services"
	"tieba/internal/utils"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts      *services.PostService
	listing    *services.ListingService
	engagement *services.EngagementService
}

func NewPostHandler(posts *services.PostService, listing *services.ListingService, engagement *services.EngagementService) *PostHandler {
	return &PostHandler{posts: posts, listing: listing, engagement: engagement}
}

// postForm 表单回显数据
type postForm struct {
	Title      string
	Content    string
	CategoryID uint
	Tags       string
	IsDraft    bool
}

func postURL(id uint) string {
	return fmt.Sprintf("/post/%d/", id)
}

// sidebar 首页、分类页、搜索页共用的侧边栏数据
func (h *PostHandler) sidebar(c *gin.Context, data gin.H, hotLimit int) error {
	categories, err := h.listing.Categories(c.Request.Context())
	if err != nil {
		return err
	}
	hot, err := h.listing.HotPosts(c.Request.Context(), hotLimit)
	if err != nil {
		return err
	}
	data["Categories"] = categories
	data["HotPosts"] = hot
	return nil
}

// Index 首页：?sort=latest|hot|recommend&category=<id>&page=<n>
func (h *PostHandler) Index(c *gin.Context) {
	categoryID, _ := utils.ParseID(c.Query("category"))
	page, err := h.listing.List(c.Request.Context(), services.ListQuery{
		CategoryID: categoryID,
		Sort:       c.Query("sort"),
		Page:       c.Query("page"),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	data := gin.H{"Page": page, "CategoryID": categoryID}
	if err := h.sidebar(c, data, services.HotPostsIndex); err != nil {
		HandleError(c, err)
		return
	}
	stats, err := h.listing.Stats(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	data["Stats"] = stats
	Render(c, http.StatusOK, "tieba/index.html", data)
}

// Search 空关键词返回全部有效帖子
func (h *PostHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	page, err := h.listing.List(c.Request.Context(), services.ListQuery{
		Query: query,
		Sort:  c.Query("sort"),
		Page:  c.Query("page"),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	data := gin.H{"Page": page, "Query": query, "Title": "搜索"}
	if err := h.sidebar(c, data, services.HotPostsIndex); err != nil {
		HandleError(c, err)
		return
	}
	Render(c, http.StatusOK, "tieba/search.html", data)
}

// Detail 每次访问浏览数 +1
func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	detail, err := h.posts.View(ctx, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	user := middleware.CurrentUser(c)
	liked, err := h.engagement.IsEngaged(ctx, user, services.TargetPost, id, services.KindLike)
	if err != nil {
		HandleError(c, err)
		return
	}
	favorited, err := h.engagement.IsEngaged(ctx, user, services.TargetPost, id, services.KindFavorite)
	if err != nil {
		HandleError(c, err)
		return
	}
	likedComments, err := h.engagement.LikedCommentIDs(ctx, user, commentIDs(detail.Comments))
	if err != nil {
		HandleError(c, err)
		return
	}

	Render(c, http.StatusOK, "tieba/detail.html", gin.H{
		"Title":         detail.Post.Title,
		"Post":          detail.Post,
		"PostContent":   utils.RenderMarkdown(detail.Post.Content),
		"Comments":      detail.Comments,
		"CommentTotal":  detail.Total,
		"Liked":         liked,
		"Favorited":     favorited,
		"LikedComments": likedComments,
		"IsAuthor":      user != nil && user.ID == detail.Post.UserID,
		"CommentError":  takeCommentFlash(c),
	})
}

func commentIDs(nodes []*services.CommentNode) []uint {
	ids := make([]uint, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
		ids = append(ids, commentIDs(n.Replies)...)
	}
	return ids
}

func bindPostForm(c *gin.Context) (postForm, services.PostInput) {
	categoryID, _ := utils.ParseID(c.PostForm("category"))
	form := postForm{
		Title:      c.PostForm("title"),
		Content:    c.PostForm("content"),
		CategoryID: categoryID,
		Tags:       c.PostForm("tags"),
		IsDraft:    c.PostForm("is_draft") != "",
	}
	return form, services.PostInput{
		Title:      form.Title,
		Content:    form.Content,
		CategoryID: categoryID,
		Tags:       services.ParseTags(form.Tags),
		IsDraft:    form.IsDraft,
	}
}

// renderForm 发帖与编辑共用表单页
func (h *PostHandler) renderForm(c *gin.Context, code int, action string, post *models.Post, form postForm, errs map[string]string) {
	categories, err := h.listing.Categories(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	title := "发布新帖"
	if post != nil {
		title = "编辑帖子"
	}
	Render(c, code, "tieba/post_form.html", gin.H{
		"Title":      title,
		"Action":     action,
		"Post":       post,
		"Form":       form,
		"Errors":     errs,
		"Categories": categories,
	})
}

// formFailure 校验失败或分类不存在时回显表单，其它错误走统一处理
func (h *PostHandler) formFailure(c *gin.Context, action string, post *models.Post, form postForm, err error) {
	if errs := fieldErrors(err); errs != nil {
		h.renderForm(c, http.StatusBadRequest, action, post, form, errs)
		return
	}
	if errors.Is(err, apperror.ErrNotFound) {
		h.renderForm(c, http.StatusNotFound, action, post, form, map[string]string{"categoryid": "分类不存在"})
		return
	}
	HandleError(c, err)
}

func (h *PostHandler) ShowCreate(c *gin.Context) {
	categoryID, _ := utils.ParseID(c.Query("category"))
	h.renderForm(c, http.StatusOK, "/post/create/", nil, postForm{CategoryID: categoryID}, nil)
}

func (h *PostHandler) Create(c *gin.Context) {
	form, in := bindPostForm(c)
	post, err := h.posts.Create(c.Request.Context(), middleware.CurrentUser(c), in)
	if err != nil {
		h.formFailure(c, "/post/create/", nil, form, err)
		return
	}
	c.Redirect(http.StatusFound, postURL(post.ID))
}

func (h *PostHandler) ShowEdit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.GetOwned(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	form := postForm{
		Title:      post.Title,
		Content:    post.Content,
		CategoryID: post.CategoryID,
		Tags:       strings.Join(post.Tags, ", "),
		IsDraft:    post.IsDraft,
	}
	h.renderForm(c, http.StatusOK, postURL(id)+"edit/", post, form, nil)
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)
	form, in := bindPostForm(c)

	post, err := h.posts.Update(ctx, user, id, in)
	if err != nil {
		if fieldErrors(err) == nil && !errors.Is(err, apperror.ErrNotFound) {
			HandleError(c, err)
			return
		}
		// 帖子本身不存在或无权编辑时 GetOwned 会给出对应错误
		current, getErr := h.posts.GetOwned(ctx, user, id)
		if getErr != nil {
			HandleError(c, getErr)
			return
		}
		h.formFailure(c, postURL(id)+"edit/", current, form, err)
		return
	}
	c.Redirect(http.StatusFound, postURL(post.ID))
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		HandleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}
