package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"tieba/internal/apperror"
	"tieba/internal/middleware"
	"tieba/internal/utils"

	"github.com/gin-gonic/gin"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// RenderError 渲染错误页，JSON 请求返回 {"error": message}
func RenderError(c *gin.Context, code int, message string) {
	if middleware.WantsJSON(c) {
		c.JSON(code, gin.H{"error": message})
		return
	}
	Render(c, code, "error.html", gin.H{"Error": message, "Code": code})
}

// HandleError 按错误类型统一响应。表单校验错误应由调用方先行处理以便回显表单。
func HandleError(c *gin.Context, err error) {
	status := apperror.MapErrorToStatus(err)
	switch status {
	case http.StatusUnauthorized:
		if middleware.WantsJSON(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Redirect(http.StatusFound, middleware.LoginURL(c.Request.URL.RequestURI()))
	case http.StatusInternalServerError:
		_ = c.Error(err)
		slog.ErrorContext(c.Request.Context(), "request failed",
			"path", c.Request.URL.Path,
			"request_id", c.GetString(middleware.RequestIDKey),
			"error", err)
		RenderError(c, status, "服务器开小差了，请稍后再试")
	default:
		RenderError(c, status, errorMessage(status, err))
	}
}

func errorMessage(status int, err error) string {
	var verr *apperror.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	switch status {
	case http.StatusForbidden:
		return "没有权限执行此操作"
	case http.StatusNotFound:
		return "内容不存在或已被删除"
	case http.StatusConflict:
		return "操作冲突，请重试"
	}
	return "请求参数无效"
}

// fieldErrors 提取校验错误以便回显表单，非校验错误返回 nil
func fieldErrors(err error) map[string]string {
	var verr *apperror.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}

// paramID 解析路径参数中的 ID，非法时直接返回 404
func paramID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		RenderError(c, http.StatusNotFound, "内容不存在或已被删除")
		return 0, false
	}
	return id, true
}
