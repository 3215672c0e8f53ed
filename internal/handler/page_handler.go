package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/projektfire/internal/db"
	"github.com/projektfire/internal/service"
)

const pagesPath = "/panel/pages"

// ShowPages lists the static pages.
func (a *API) ShowPages(c *gin.Context) {
	pages, err := a.pages.List(c.Request.Context())
	if err != nil {
		a.renderServerError(c, err)
		return
	}
	a.renderHTML(c, http.StatusOK, "panel_pages.html", gin.H{
		"title":         "Strony",
		"pages":         pages,
		"aboutPageSlug": service.AboutPageSlug,
	})
}

// ShowPageEditor renders the editor; an unknown slug opens an empty form.
func (a *API) ShowPageEditor(c *gin.Context) {
	pageSlug := c.Param("slug")
	page, err := a.pages.GetBySlug(c.Request.Context(), pageSlug)
	if err != nil {
		if !errors.Is(err, service.ErrPageNotFound) {
			a.renderServerError(c, err)
			return
		}
		page = &db.StaticPage{Slug: pageSlug}
	}
	a.renderPageForm(c, http.StatusOK, page, "")
}

// SavePage upserts the static page under :slug.
func (a *API) SavePage(c *gin.Context) {
	pageSlug := c.Param("slug")
	input := service.PageInput{
		Title:           c.PostForm("title"),
		ContentMD:       c.PostForm("content_md"),
		MetaTitle:       c.PostForm("meta_title"),
		MetaDescription: c.PostForm("meta_description"),
	}

	page, err := a.pages.Save(c.Request.Context(), pageSlug, input)
	if err != nil {
		draft := &db.StaticPage{
			Slug:            pageSlug,
			Title:           input.Title,
			ContentMD:       input.ContentMD,
			MetaTitle:       input.MetaTitle,
			MetaDescription: input.MetaDescription,
		}
		switch {
		case errors.Is(err, service.ErrPageTitleRequired):
			a.renderPageForm(c, http.StatusUnprocessableEntity, draft, "Tytuł jest wymagany.")
		case errors.Is(err, service.ErrSlugEmpty):
			a.renderPageForm(c, http.StatusUnprocessableEntity, draft, "Nieprawidłowy adres strony.")
		default:
			a.renderServerError(c, err)
		}
		return
	}

	setFlash(c, "Strona zapisana.")
	redirectSeeOther(c, pagesPath+"/"+page.Slug)
}

func (a *API) renderPageForm(c *gin.Context, status int, page *db.StaticPage, message string) {
	a.renderHTML(c, status, "panel_page_form.html", gin.H{
		"title": "Edycja strony",
		"page":  page,
		"error": message,
	})
}
