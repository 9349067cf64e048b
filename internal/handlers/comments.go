package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"tieba/internal/apperror"
	"tieba/internal/middleware"
	"tieba/internal/services"
	"tieba/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// commentFlashKey 评论校验失败后带回详情页的提示
const commentFlashKey = "comment_error"

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

func commentURL(postID, commentID uint) string {
	return fmt.Sprintf("%s#comment-%d", postURL(postID), commentID)
}

// Create POST /post/:id/comment/，parent_id 可选
func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	parentID, ok := utils.ParseOptionalID(c.PostForm("parent_id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "回复的评论不存在")
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), middleware.CurrentUser(c), postID, services.CommentInput{
		Content:  c.PostForm("content"),
		ParentID: parentID,
	})
	var verr *apperror.ValidationError
	if errors.As(err, &verr) {
		if middleware.WantsJSON(c) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Fields})
			return
		}
		session := sessions.Default(c)
		session.AddFlash(verr.Error(), commentFlashKey)
		session.Save()
		c.Redirect(http.StatusFound, postURL(postID)+"#comments")
		return
	}
	if err != nil {
		HandleError(c, err)
		return
	}
	if middleware.WantsJSON(c) {
		c.JSON(http.StatusCreated, gin.H{"id": comment.ID, "post_id": comment.PostID, "parent_id": comment.ParentID})
		return
	}
	c.Redirect(http.StatusFound, commentURL(postID, comment.ID))
}

// Delete POST /comment/:id/delete/
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	comment, err := h.comments.Delete(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, postURL(comment.PostID))
}

// takeCommentFlash 取出并清掉评论失败提示
func takeCommentFlash(c *gin.Context) string {
	session := sessions.Default(c)
	flashes := session.Flashes(commentFlashKey)
	if len(flashes) == 0 {
		return ""
	}
	session.Save()
	msg, _ := flashes[0].(string)
	return msg
}
