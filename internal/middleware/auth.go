package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"tieba/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const CheckUserKey = "user"

// SessionUserKey 会话中保存登录用户 ID 的键
const SessionUserKey = "user_id"

// LoadUser 从会话读取用户并写入上下文，用户不存在时清掉失效会话
func LoadUser(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(SessionUserKey)

		if userID != nil {
			var user models.User
			if err := conn.WithContext(c.Request.Context()).First(&user, userID).Error; err == nil {
				c.Set(CheckUserKey, &user)
			} else {
				session.Delete(SessionUserKey)
				session.Save()
			}
		}
		c.Next()
	}
}

// CurrentUser 返回当前登录用户，未登录为 nil
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// AuthRequired 未登录时跳转登录页并带上 next；JSON 请求返回 401
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		if WantsJSON(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// AdminRequired 必须在 AuthRequired 之后使用，非管理员渲染 403 错误页
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user.IsAdmin() {
			c.Next()
			return
		}
		const message = "没有权限执行此操作"
		if WantsJSON(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": message})
			return
		}
		c.HTML(http.StatusForbidden, "error.html", gin.H{
			"Error":       message,
			"Code":        http.StatusForbidden,
			"CurrentUser": user,
			"CurrentPath": c.Request.URL.Path,
		})
		c.Abort()
	}
}

func LoginURL(next string) string {
	return "/login/?next=" + url.QueryEscape(next)
}

// WantsJSON 请求是否显式要求 JSON：format=json 参数，或 Accept 首选 application/json
func WantsJSON(c *gin.Context) bool {
	if c.Query("format") == "json" || c.PostForm("format") == "json" {
		return true
	}
	accept := c.GetHeader("Accept")
	if accept == "" {
		return false
	}
	first := strings.TrimSpace(strings.Split(accept, ",")[0])
	return strings.HasPrefix(first, "application/json")
}

// SafeNext 只接受站内相对路径，防止登录后跳到外站
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
