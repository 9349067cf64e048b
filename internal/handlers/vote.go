package handlers

import (
	"net/http"
	"tieba/internal/middleware"
	"tieba/internal/services"

	"github.com/gin-gonic/gin"
)

// LikeHandler 帖子与评论点赞
type LikeHandler struct {
	engagement *services.EngagementService
	comments   *services.CommentService
}

func NewLikeHandler(engagement *services.EngagementService, comments *services.CommentService) *LikeHandler {
	return &LikeHandler{engagement: engagement, comments: comments}
}

// LikePost POST /post/:id/like/
func (h *LikeHandler) LikePost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.engagement.Toggle(c.Request.Context(), middleware.CurrentUser(c), services.TargetPost, id, services.KindLike)
	if err != nil {
		HandleError(c, err)
		return
	}
	if middleware.WantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"liked": res.Engaged, "like_count": res.Count})
		return
	}
	c.Redirect(http.StatusFound, postURL(id))
}

// LikeComment POST /comment/:id/like/，非 JSON 请求跳回评论所在帖子
func (h *LikeHandler) LikeComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	res, err := h.engagement.Toggle(ctx, middleware.CurrentUser(c), services.TargetComment, id, services.KindLike)
	if err != nil {
		HandleError(c, err)
		return
	}
	if middleware.WantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"liked": res.Engaged, "like_count": res.Count})
		return
	}

	comment, err := h.comments.Get(ctx, id)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, commentURL(comment.PostID, comment.ID))
}
