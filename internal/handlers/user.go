package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"tieba/internal/middleware"
	"tieba/internal/services"
	"tieba/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	profiles *services.ProfileService
}

func NewUserHandler(profiles *services.ProfileService) *UserHandler {
	return &UserHandler{profiles: profiles}
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

// Profile - 用户主页 /profile/:username/
func (h *UserHandler) Profile(c *gin.Context) {
	view, err := h.profiles.View(c.Request.Context(), c.Param("username"), middleware.CurrentUser(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	tab := c.DefaultQuery("tab", "posts")
	if tab != "comments" {
		tab = "posts"
	}

	Render(c, http.StatusOK, "tieba/profile.html", gin.H{
		"Title":     view.User.Username + " 的主页",
		"View":      view,
		"DaysSince": utils.GetDaysSinceJoined(view.Profile.JoinDate),
		"ActiveTab": tab,
	})
}

// Me /profile/ 跳转到自己的主页
func (h *UserHandler) Me(c *gin.Context) {
	c.Redirect(http.StatusFound, profileURL(middleware.CurrentUser(c).Username))
}

// ShowEditProfile - 编辑资料页
func (h *UserHandler) ShowEditProfile(c *gin.Context) {
	profile, err := h.profiles.GetOrCreate(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Render(c, http.StatusOK, "tieba/edit_profile.html", gin.H{
		"Title":   "编辑资料",
		"Profile": profile,
		"Form":    services.ProfileInput{Bio: profile.Bio, Location: profile.Location},
	})
}

// EditProfile - 提交资料，avatar 文件可选
func (h *UserHandler) EditProfile(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)
	in := services.ProfileInput{
		Bio:      c.PostForm("bio"),
		Location: c.PostForm("location"),
	}

	var avatar *multipart.FileHeader
	if header, err := c.FormFile("avatar"); err == nil {
		avatar = header
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		HandleError(c, err)
		return
	}

	if _, err := h.profiles.Edit(ctx, user, in, avatar); err != nil {
		errs := fieldErrors(err)
		if errs == nil {
			HandleError(c, err)
			return
		}
		profile, getErr := h.profiles.GetOrCreate(ctx, user)
		if getErr != nil {
			HandleError(c, getErr)
			return
		}
		Render(c, http.StatusBadRequest, "tieba/edit_profile.html", gin.H{
			"Title":   "编辑资料",
			"Profile": profile,
			"Form":    in,
			"Errors":  errs,
		})
		return
	}
	c.Redirect(http.StatusFound, profileURL(user.Username))
}
