package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/projektfire/internal/seo"
)

// Sitemap serves sitemap.xml built from published articles and categories.
func (a *API) Sitemap(c *gin.Context) {
	ctx := c.Request.Context()

	articles, err := a.articles.ListAllPublished(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("sitemap: list articles")
		c.Status(http.StatusInternalServerError)
		return
	}
	categories, err := a.categories.List(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("sitemap: list categories")
		c.Status(http.StatusInternalServerError)
		return
	}

	body, err := seo.BuildSitemap(a.site.URL, articles, categories)
	if err != nil {
		a.log.Error().Err(err).Msg("sitemap: encode")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}

// Robots serves robots.txt.
func (a *API) Robots(c *gin.Context) {
	c.String(http.StatusOK, seo.RobotsTxt(a.site.URL))
}
