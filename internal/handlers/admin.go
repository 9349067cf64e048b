package handlers

import (
	"net/http"
	"tieba/internal/middleware"
	"tieba/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理后台，路由组已挂 AdminRequired，服务层仍会再校验角色
type AdminHandler struct {
	posts   *services.PostService
	listing *services.ListingService
}

func NewAdminHandler(posts *services.PostService, listing *services.ListingService) *AdminHandler {
	return &AdminHandler{posts: posts, listing: listing}
}

func (h *AdminHandler) render(c *gin.Context, code int, form services.CategoryInput, errs map[string]string) {
	ctx := c.Request.Context()
	categories, err := h.listing.Categories(ctx)
	if err != nil {
		HandleError(c, err)
		return
	}
	stats, err := h.listing.Stats(ctx)
	if err != nil {
		HandleError(c, err)
		return
	}
	Render(c, code, "admin/index.html", gin.H{
		"Title":      "管理后台",
		"Categories": categories,
		"Stats":      stats,
		"Form":       form,
		"Errors":     errs,
	})
}

// Index GET /admin/
func (h *AdminHandler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, services.CategoryInput{}, nil)
}

// CreateCategory POST /admin/categories/
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	in := services.CategoryInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
	}
	if _, err := h.listing.CreateCategory(c.Request.Context(), middleware.CurrentUser(c), in); err != nil {
		if errs := fieldErrors(err); errs != nil {
			h.render(c, http.StatusBadRequest, in, errs)
			return
		}
		HandleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/admin/")
}

// TogglePin POST /admin/post/:id/pin/
func (h *AdminHandler) TogglePin(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.TogglePin(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	if middleware.WantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"pinned": post.IsPinned})
		return
	}
	c.Redirect(http.StatusFound, postURL(id))
}

// DeletePost POST /admin/post/:id/delete/
func (h *AdminHandler) DeletePost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.posts.RemoveByAdmin(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		HandleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}
