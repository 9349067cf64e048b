package handlers

import (
	"errors"
	"net/http"
	"tieba/internal/apperror"
	"tieba/internal/middleware"
	"tieba/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	accounts *services.AccountService
}

func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// login 写入会话
func login(c *gin.Context, userID uint) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(middleware.SessionUserKey, userID)
	return session.Save()
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	Render(c, http.StatusOK, "auth/register.html", gin.H{"Title": "注册"})
}

// Register 注册成功后自动登录并跳转首页
func (h *AuthHandler) Register(c *gin.Context) {
	in := services.RegisterInput{
		Username:  c.PostForm("username"),
		Password:  c.PostForm("password"),
		Password2: c.PostForm("password2"),
	}

	user, err := h.accounts.Register(c.Request.Context(), in)
	if err != nil {
		errs := fieldErrors(err)
		if errs == nil {
			HandleError(c, err)
			return
		}
		Render(c, http.StatusBadRequest, "auth/register.html", gin.H{
			"Title":    "注册",
			"Username": in.Username,
			"Errors":   errs,
		})
		return
	}

	if err := login(c, user.ID); err != nil {
		HandleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "auth/login.html", gin.H{
		"Title": "登录",
		"Next":  middleware.SafeNext(c.Query("next")),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	next := middleware.SafeNext(c.PostForm("next"))

	user, err := h.accounts.Authenticate(c.Request.Context(), username, c.PostForm("password"))
	if err != nil {
		if !errors.Is(err, apperror.ErrUnauthorized) {
			HandleError(c, err)
			return
		}
		Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{
			"Title":    "登录",
			"Error":    "用户名或密码错误",
			"Username": username,
			"Next":     next,
		})
		return
	}

	if err := login(c, user.ID); err != nil {
		HandleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, next)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	session.Save()
	c.Redirect(http.StatusFound, "/")
}
