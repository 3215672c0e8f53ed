package router

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/projektfire/internal/config"
	"github.com/projektfire/internal/handler"
	"github.com/projektfire/internal/middleware"
	"github.com/projektfire/web"
	"github.com/rs/zerolog"
)

const sessionName = "projektfire_session"

// Options 汇总构建路由所需的依赖
type Options struct {
	API    *handler.API
	Config config.AppConfig
	Logger zerolog.Logger
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(opts Options) (*gin.Engine, error) {
	api := opts.API
	cfg := opts.Config

	r := gin.New()
	r.Use(
		middleware.Recovery(opts.Logger),
		middleware.RequestLogger(opts.Logger),
		middleware.SecurityHeaders(),
	)

	// flash 消息存放在签名 cookie 中
	store := cookie.NewStore([]byte(cfg.SecretKey))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	// htmx 请求无法携带表单 token，依赖 SameSite cookie 与限流
	r.Use(middleware.CSRF(middleware.CSRFConfig{ExemptPrefixes: []string{"/htmx/"}}))

	tmpl, err := web.Templates(api.Location())
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	r.StaticFS("/static", http.FS(web.Static()))
	if cfg.MediaStorage != "s3" && cfg.UploadDir != "" {
		r.Static(cfg.UploadURLPath, cfg.UploadDir)
	}

	r.GET("/", api.RedirectHome)
	r.GET("/blog", api.ShowBlog)
	r.GET("/blog/page/:page", api.ShowBlogPage)
	r.GET("/kategoria/:slug", api.ShowCategory)
	r.GET("/kategoria/:slug/page/:page", api.ShowCategory)
	r.GET("/tutaj-zacznij", api.ShowStartHere)
	r.GET("/o-mnie", api.ShowAbout)
	r.GET("/kontakt", api.ShowContact)
	r.POST("/kontakt", api.SubmitContact)
	r.GET("/kalkulator-fire", api.ShowFireCalculator)
	r.GET("/kalkulator-procent-skladany", api.ShowCompoundCalculator)
	r.GET("/sitemap.xml", api.Sitemap)
	r.GET("/robots.txt", api.Robots)
	r.GET("/healthz", api.HealthCheck)

	htmx := r.Group("/htmx")
	{
		htmx.GET("/search", api.SearchArticles)
		htmx.GET("/comments/:article_id", api.ListComments)
		htmx.POST("/comments", api.SubmitComment)
	}

	// 后台管理路由
	panel := r.Group("/panel")
	{
		panel.GET("/login", api.ShowLoginPage)
		panel.POST("/login", api.Login)
		panel.POST("/logout", api.Logout)

		// 需要认证的后台路由
		authed := panel.Group("")
		authed.Use(api.AuthRequired())
		{
			authed.GET("", api.ShowDashboard)

			authed.GET("/articles", api.ShowArticleList)
			authed.GET("/articles/new", api.ShowArticleNew)
			authed.POST("/articles", api.CreateArticle)
			authed.POST("/articles/preview", api.PreviewArticle)
			authed.GET("/articles/:id/edit", api.ShowArticleEdit)
			authed.POST("/articles/:id", api.UpdateArticle)
			authed.POST("/articles/:id/delete", api.DeleteArticle)

			authed.GET("/categories", api.ShowCategories)
			authed.POST("/categories", api.CreateCategory)
			authed.POST("/categories/:id", api.UpdateCategory)
			authed.POST("/categories/:id/delete", api.DeleteCategory)

			authed.GET("/tags", api.ShowTags)
			authed.POST("/tags", api.CreateTag)
			authed.POST("/tags/:id", api.UpdateTag)
			authed.POST("/tags/:id/delete", api.DeleteTag)

			authed.GET("/comments", api.ShowComments)
			authed.POST("/comments/:id/toggle", api.ToggleComment)
			authed.POST("/comments/:id/delete", api.DeleteComment)

			authed.GET("/blacklist", api.ShowBlacklist)
			authed.POST("/blacklist", api.AddBlacklistWord)
			authed.POST("/blacklist/:id/delete", api.DeleteBlacklistWord)

			authed.GET("/messages", api.ShowMessages)
			authed.POST("/messages/:id/read", api.MarkMessageRead)
			authed.POST("/messages/:id/delete", api.DeleteMessage)

			authed.GET("/media", api.ShowMedia)
			authed.POST("/media", api.UploadMedia)
			authed.POST("/media/upload-image", api.UploadImage)
			authed.POST("/media/:id/delete", api.DeleteMedia)

			authed.GET("/pages", api.ShowPages)
			authed.GET("/pages/:slug", api.ShowPageEditor)
			authed.POST("/pages/:slug", api.SavePage)
		}
	}

	// 单段路径按文章 slug 解析，其余返回 404
	r.NoRoute(api.ResolveSlug)

	return r, nil
}
