package handlers

import (
	"net/http"
	"tieba/internal/services"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	listing *services.ListingService
}

func NewCategoryHandler(listing *services.ListingService) *CategoryHandler {
	return &CategoryHandler{listing: listing}
}

// List 全部分类及有效帖子数
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.listing.Categories(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Render(c, http.StatusOK, "tieba/categories.html", gin.H{
		"Title":      "全部分类",
		"Categories": categories,
	})
}

// Show 分类下的帖子列表，侧边栏热门帖子取 10 条
func (h *CategoryHandler) Show(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	category, err := h.listing.Category(ctx, id)
	if err != nil {
		HandleError(c, err)
		return
	}
	page, err := h.listing.List(ctx, services.ListQuery{
		CategoryID: id,
		Sort:       c.Query("sort"),
		Page:       c.Query("page"),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	categories, err := h.listing.Categories(ctx)
	if err != nil {
		HandleError(c, err)
		return
	}
	hot, err := h.listing.HotPosts(ctx, services.HotPostsCategory)
	if err != nil {
		HandleError(c, err)
		return
	}

	Render(c, http.StatusOK, "tieba/category.html", gin.H{
		"Title":      category.Name,
		"Category":   category,
		"Page":       page,
		"Categories": categories,
		"HotPosts":   hot,
	})
}
