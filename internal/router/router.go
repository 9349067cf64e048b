package router

import (
	"net/http"
	"tieba/internal/handlers"
	"tieba/internal/middleware"
	"tieba/internal/services"
	"tieba/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Deps 路由注册所需的外部依赖
type Deps struct {
	DB      *gorm.DB
	Store   storage.Store
	SiteURL string
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	// Services
	listing := services.NewListingService(deps.DB)
	posts := services.NewPostService(deps.DB)
	comments := services.NewCommentService(deps.DB)
	engagement := services.NewEngagementService(deps.DB)
	accounts := services.NewAccountService(deps.DB)
	uploader := services.NewImageUploader(deps.Store)
	profiles := services.NewProfileService(deps.DB, uploader)

	// Handlers
	authHandler := handlers.NewAuthHandler(accounts)
	postHandler := handlers.NewPostHandler(posts, listing, engagement)
	categoryHandler := handlers.NewCategoryHandler(listing)
	commentHandler := handlers.NewCommentHandler(comments)
	likeHandler := handlers.NewLikeHandler(engagement, comments)
	favoriteHandler := handlers.NewFavoriteHandler(engagement)
	userHandler := handlers.NewUserHandler(profiles)
	imageHandler := handlers.NewImageHandler(uploader)
	adminHandler := handlers.NewAdminHandler(posts, listing)
	seoHandler := handlers.NewSEOHandler(listing, deps.SiteURL)

	// 运维 (Ops)
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/robots.txt", seoHandler.RobotsTxt)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)
	r.GET("/feed.xml", seoHandler.RSSFeed)

	// 公共路由 (Public Routes)
	r.GET("/", postHandler.Index)                        // 首页 - 帖子列表
	r.GET("/search/", postHandler.Search)                // 搜索
	r.GET("/categories/", categoryHandler.List)          // 全部分类
	r.GET("/category/:id/", categoryHandler.Show)        // 分类下的帖子
	r.GET("/post/:id/", postHandler.Detail)              // 帖子详情，浏览数 +1
	r.GET("/profile/:username/", userHandler.Profile)    // 用户主页

	r.GET("/register/", authHandler.ShowRegister) // 注册页面
	r.POST("/register/", authHandler.Register)    // 提交注册
	r.GET("/login/", authHandler.ShowLogin)       // 登录页面
	r.POST("/login/", authHandler.Login)          // 提交登录
	r.GET("/logout/", authHandler.Logout)         // 退出登录
	r.POST("/logout/", authHandler.Logout)

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/post/create/", postHandler.ShowCreate)        // 发帖页面
		authorized.POST("/post/create/", postHandler.Create)           // 提交发帖
		authorized.GET("/post/:id/edit/", postHandler.ShowEdit)        // 编辑页面
		authorized.POST("/post/:id/edit/", postHandler.Update)         // 提交编辑
		authorized.POST("/post/:id/delete/", postHandler.Delete)       // 删除帖子
		authorized.POST("/post/:id/comment/", commentHandler.Create)   // 发表评论/回复
		authorized.POST("/comment/:id/delete/", commentHandler.Delete) // 删除评论
		authorized.POST("/post/:id/like/", likeHandler.LikePost)       // 点赞帖子
		authorized.POST("/comment/:id/like/", likeHandler.LikeComment) // 点赞评论
		authorized.POST("/post/:id/favorite/", favoriteHandler.Toggle) // 收藏帖子
		authorized.GET("/profile/", userHandler.Me)                    // 我的主页
		authorized.GET("/profile/edit/", userHandler.ShowEditProfile)  // 编辑资料页面
		authorized.POST("/profile/edit/", userHandler.EditProfile)     // 提交资料
		authorized.POST("/upload/", imageHandler.Upload)               // 编辑器插图
	}

	// 管理后台 (Admin Routes)
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("/", adminHandler.Index)
		admin.POST("/categories/", adminHandler.CreateCategory)
		admin.POST("/post/:id/pin/", adminHandler.TogglePin)
		admin.POST("/post/:id/delete/", adminHandler.DeletePost)
	}
}
