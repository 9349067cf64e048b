package handlers

import (
	"net/http"
	"tieba/internal/services"

	"github.com/gin-gonic/gin"
)

// ImageHandler 图片处理 Handler
type ImageHandler struct {
	uploader *services.ImageUploader
}

func NewImageHandler(uploader *services.ImageUploader) *ImageHandler {
	return &ImageHandler{uploader: uploader}
}

// Upload 编辑器内插图上传 (POST /upload/)，需要登录
func (h *ImageHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "请选择要上传的图片",
		})
		return
	}

	url, err := h.uploader.Upload(c.Request.Context(), "posts", header)
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   errs["image"],
			})
			return
		}
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     url,
	})
}
