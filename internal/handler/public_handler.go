package handler

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/projektfire/internal/db"
	"github.com/projektfire/internal/service"
)

const (
	blogPath     = "/blog"
	categoryPath = "/kategoria/"
)

// RedirectHome sends the bare domain to the blog index.
func (a *API) RedirectHome(c *gin.Context) {
	c.Redirect(http.StatusMovedPermanently, blogPath)
}

// ShowBlog renders the first page of published articles.
func (a *API) ShowBlog(c *gin.Context) {
	a.renderBlogPage(c, 1)
}

// ShowBlogPage renders /blog/page/:n. Page one has a single canonical URL.
func (a *API) ShowBlogPage(c *gin.Context) {
	page := parsePositiveInt(c.Param("page"), 1)
	if page <= 1 {
		c.Redirect(http.StatusMovedPermanently, blogPath)
		return
	}
	a.renderBlogPage(c, page)
}

func (a *API) renderBlogPage(c *gin.Context, page int) {
	result, err := a.articles.ListPublished(c.Request.Context(), page)
	if err != nil {
		a.renderServerError(c, err)
		return
	}
	if page > 1 && len(result.Articles) == 0 {
		a.renderNotFound(c)
		return
	}

	categories, err := a.categories.List(c.Request.Context())
	if err != nil {
		c.Error(err)
	}

	a.renderHTML(c, http.StatusOK, "blog_list.html", gin.H{
		"title":      "Blog",
		"articles":   result.Articles,
		"pagination": newPagination(blogPath, result.Page, result.TotalPages),
		"categories": categories,
	})
}

// ShowCategory renders /kategoria/:slug and its paginated variant.
func (a *API) ShowCategory(c *gin.Context) {
	categorySlug := c.Param("slug")
	base := categoryPath + categorySlug

	page := 1
	if raw := c.Param("page"); raw != "" {
		page = parsePositiveInt(raw, 1)
		if page <= 1 {
			c.Redirect(http.StatusMovedPermanently, base)
			return
		}
	}

	category, err := a.categories.GetBySlug(c.Request.Context(), categorySlug)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			a.renderNotFound(c)
			return
		}
		a.renderServerError(c, err)
		return
	}

	result, err := a.articles.ListPublishedInCategory(c.Request.Context(), category.ID, page)
	if err != nil {
		a.renderServerError(c, err)
		return
	}
	if page > 1 && len(result.Articles) == 0 {
		a.renderNotFound(c)
		return
	}

	a.renderHTML(c, http.StatusOK, "category.html", gin.H{
		"title":      category.Name,
		"category":   category,
		"articles":   result.Articles,
		"pagination": newPagination(base, result.Page, result.TotalPages),
	})
}

// ShowStartHere lists the articles tagged for beginners.
func (a *API) ShowStartHere(c *gin.Context) {
	articles, err := a.articles.ListBeginner(c.Request.Context())
	if err != nil {
		a.renderServerError(c, err)
		return
	}
	a.renderHTML(c, http.StatusOK, "start_here.html", gin.H{
		"title":    "Tutaj zacznij",
		"articles": articles,
	})
}

// ShowAbout renders the o-mnie static page.
func (a *API) ShowAbout(c *gin.Context) {
	page, err := a.pages.GetBySlug(c.Request.Context(), service.AboutPageSlug)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			a.renderNotFound(c)
			return
		}
		a.renderServerError(c, err)
		return
	}
	a.renderHTML(c, http.StatusOK, "about.html", gin.H{
		"title":           page.Title,
		"page":            page,
		"content":         template.HTML(page.ContentHTML),
		"metaDescription": page.MetaDescription,
	})
}

// ShowFireCalculator renders the FIRE number calculator.
func (a *API) ShowFireCalculator(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "calculator_fire.html", gin.H{
		"title": "Kalkulator FIRE",
	})
}

// ShowCompoundCalculator renders the compound interest calculator.
func (a *API) ShowCompoundCalculator(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "calculator_compound.html", gin.H{
		"title": "Kalkulator procentu składanego",
	})
}

// ResolveSlug is the catch-all for single-segment paths: a published article
// or the 404 page. It runs only after every other route failed to match.
func (a *API) ResolveSlug(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		a.renderNotFound(c)
		return
	}

	articleSlug := strings.Trim(c.Request.URL.Path, "/")
	if articleSlug == "" || strings.Contains(articleSlug, "/") {
		a.renderNotFound(c)
		return
	}

	article, err := a.articles.GetPublishedBySlug(c.Request.Context(), articleSlug)
	if err != nil {
		if errors.Is(err, service.ErrArticleNotFound) {
			a.renderNotFound(c)
			return
		}
		a.renderServerError(c, err)
		return
	}

	comments, err := a.comments.ListApproved(c.Request.Context(), article.ID)
	if err != nil {
		c.Error(err)
	}

	a.renderHTML(c, http.StatusOK, "article.html", gin.H{
		"title":           articleTitle(article),
		"article":         article,
		"content":         template.HTML(article.ContentHTML),
		"comments":        comments,
		"metaDescription": article.MetaDescription,
		"canonical":       fmt.Sprintf("%s/%s", a.site.URL, article.Slug),
	})
}

func articleTitle(article *db.Article) string {
	if strings.TrimSpace(article.MetaTitle) != "" {
		return article.MetaTitle
	}
	return article.Title
}

func (a *API) renderNotFound(c *gin.Context) {
	a.renderHTML(c, http.StatusNotFound, "404.html", gin.H{
		"title": "Nie znaleziono strony",
	})
}

func (a *API) renderServerError(c *gin.Context, err error) {
	a.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	a.renderHTML(c, http.StatusInternalServerError, "error.html", gin.H{
		"title": "Błąd serwera",
	})
}

type pagination struct {
	Page       int
	TotalPages int
	PrevURL    string
	NextURL    string
}

func newPagination(base string, page, totalPages int) pagination {
	p := pagination{Page: page, TotalPages: totalPages}
	if page > 1 {
		p.PrevURL = pageURL(base, page-1)
	}
	if page < totalPages {
		p.NextURL = pageURL(base, page+1)
	}
	return p
}

func pageURL(base string, page int) string {
	if page <= 1 {
		return base
	}
	return fmt.Sprintf("%s/page/%d", base, page)
}
