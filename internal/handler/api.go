package handler

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/projektfire/internal/auth"
	"github.com/projektfire/internal/config"
	"github.com/projektfire/internal/middleware"
	"github.com/projektfire/internal/ratelimit"
	"github.com/projektfire/internal/service"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	adminContextKey = "__admin_claims"
	flashKey        = "flash"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	articles   *service.ArticleService
	categories *service.CategoryService
	tags       *service.TagService
	comments   *service.CommentService
	blacklist  *service.BlacklistService
	contact    *service.ContactService
	media      *service.MediaService
	pages      *service.PageService
	auth       *service.AuthService
	tokens     *auth.TokenManager
	site       siteViewModel
	location   *time.Location
	log        zerolog.Logger
}

// Options carries what NewAPI needs from process start-up.
type Options struct {
	DB             *gorm.DB
	Config         config.AppConfig
	Logger         zerolog.Logger
	LoginLimiter   *ratelimit.Limiter
	CommentLimiter *ratelimit.Limiter
	MediaStore     service.MediaStore
}

type siteViewModel struct {
	Name         string
	URL          string
	ContactEmail string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(opts Options) *API {
	cfg := opts.Config
	log := opts.Logger.With().Str("component", "handler").Logger()

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", cfg.Timezone).Msg("unknown timezone, using UTC")
		location = time.UTC
	}

	blacklist := service.NewBlacklistService(opts.DB)
	gate := service.NewSpamGate(opts.CommentLimiter, blacklist)

	return &API{
		db:         opts.DB,
		articles:   service.NewArticleService(opts.DB),
		categories: service.NewCategoryService(opts.DB),
		tags:       service.NewTagService(opts.DB),
		comments:   service.NewCommentService(opts.DB, gate),
		blacklist:  blacklist,
		contact:    service.NewContactService(opts.DB, opts.Logger),
		media:      service.NewMediaService(opts.DB, opts.MediaStore, opts.Logger),
		pages:      service.NewPageService(opts.DB),
		auth:       service.NewAuthService(opts.DB, opts.LoginLimiter),
		tokens:     auth.NewTokenManager(cfg.SecretKey, auth.DefaultSessionTTL),
		site: siteViewModel{
			Name:         cfg.SiteName,
			URL:          cfg.SiteURL,
			ContactEmail: cfg.ContactEmail,
		},
		location: location,
		log:      log,
	}
}

// Articles exposes the article service for the scheduler and CLI.
func (a *API) Articles() *service.ArticleService {
	return a.articles
}

// Location is the zone dates are shown and scheduled in.
func (a *API) Location() *time.Location {
	return a.location
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["site"]; !exists {
		payload["site"] = gin.H{
			"name":         a.site.Name,
			"url":          a.site.URL,
			"contactEmail": a.site.ContactEmail,
			"year":         time.Now().In(a.location).Year(),
		}
	}
	if _, exists := payload["siteName"]; !exists {
		payload["siteName"] = a.site.Name
	}
	payload["csrfToken"] = middleware.CSRFToken(c)
	payload["currentPath"] = c.Request.URL.Path
	if claims := currentAdmin(c); claims != nil {
		payload["admin"] = claims.Username
	}
	if flash := popFlash(c); flash != "" {
		payload["flash"] = flash
	}

	c.HTML(status, template, payload)
}

func setFlash(c *gin.Context, message string) {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return
	}
	session := sessions.Default(c)
	session.AddFlash(message, flashKey)
	_ = session.Save()
}

func popFlash(c *gin.Context) string {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	session := sessions.Default(c)
	flashes := session.Flashes(flashKey)
	if len(flashes) == 0 {
		return ""
	}
	_ = session.Save()
	message, _ := flashes[len(flashes)-1].(string)
	return message
}

func currentAdmin(c *gin.Context) *auth.Claims {
	value, ok := c.Get(adminContextKey)
	if !ok {
		return nil
	}
	claims, _ := value.(*auth.Claims)
	return claims
}
