package handlers

import (
	"net/http"
	"tieba/internal/middleware"
	"tieba/internal/services"

	"github.com/gin-gonic/gin"
)

// FavoriteHandler 收藏帖子
type FavoriteHandler struct {
	engagement *services.EngagementService
}

func NewFavoriteHandler(engagement *services.EngagementService) *FavoriteHandler {
	return &FavoriteHandler{engagement: engagement}
}

// Toggle 切换收藏状态 - 收藏/取消收藏
func (h *FavoriteHandler) Toggle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.engagement.Toggle(c.Request.Context(), middleware.CurrentUser(c), services.TargetPost, id, services.KindFavorite)
	if err != nil {
		HandleError(c, err)
		return
	}
	if middleware.WantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"favorited": res.Engaged, "favorite_count": res.Count})
		return
	}
	c.Redirect(http.StatusFound, postURL(id))
}
