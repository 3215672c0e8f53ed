package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/projektfire/internal/service"
)

const (
	categoriesPath = "/panel/categories"
	tagsPath       = "/panel/tags"
)

// ShowCategories 渲染分类管理页
func (a *API) ShowCategories(c *gin.Context) {
	a.renderCategories(c, http.StatusOK, "")
}

// CreateCategory 创建分类
func (a *API) CreateCategory(c *gin.Context) {
	input := service.CategoryInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
	}
	if _, err := a.categories.Create(c.Request.Context(), input); err != nil {
		a.handleCategoryError(c, err)
		return
	}
	setFlash(c, "Kategoria dodana.")
	redirectSeeOther(c, categoriesPath)
}

// UpdateCategory 更新分类
func (a *API) UpdateCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		redirectSeeOther(c, categoriesPath)
		return
	}
	input := service.CategoryInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
	}
	if _, err := a.categories.Update(c.Request.Context(), id, input); err != nil {
		a.handleCategoryError(c, err)
		return
	}
	setFlash(c, "Kategoria zapisana.")
	redirectSeeOther(c, categoriesPath)
}

// DeleteCategory 删除分类，文章保留但失去分类
func (a *API) DeleteCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		redirectSeeOther(c, categoriesPath)
		return
	}
	if err := a.categories.Delete(c.Request.Context(), id); err != nil {
		a.handleCategoryError(c, err)
		return
	}
	setFlash(c, "Kategoria usunięta.")
	redirectSeeOther(c, categoriesPath)
}

func (a *API) handleCategoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCategoryNotFound):
		setFlash(c, "Kategoria nie istnieje.")
		redirectSeeOther(c, categoriesPath)
	case errors.Is(err, service.ErrCategoryNameRequired):
		a.renderCategories(c, http.StatusUnprocessableEntity, "Nazwa kategorii jest wymagana.")
	case errors.Is(err, service.ErrCategoryExists):
		a.renderCategories(c, http.StatusUnprocessableEntity, "Kategoria o tej nazwie już istnieje.")
	case errors.Is(err, service.ErrSlugEmpty):
		a.renderCategories(c, http.StatusUnprocessableEntity, "Nazwa musi zawierać litery lub cyfry.")
	default:
		a.renderServerError(c, err)
	}
}

func (a *API) renderCategories(c *gin.Context, status int, message string) {
	categories, err := a.categories.List(c.Request.Context())
	if err != nil {
		a.renderServerError(c, err)
		return
	}
	a.renderHTML(c, status, "panel_categories.html", gin.H{
		"title":      "Kategorie",
		"categories": categories,
		"error":      message,
	})
}

// ShowTags 渲染标签管理页
func (a *API) ShowTags(c *gin.Context) {
	a.renderTags(c, http.StatusOK, "")
}

// CreateTag 创建新标签
func (a *API) CreateTag(c *gin.Context) {
	if _, err := a.tags.Create(c.Request.Context(), c.PostForm("name")); err != nil {
		a.handleTagError(c, err)
		return
	}
	setFlash(c, "Tag dodany.")
	redirectSeeOther(c, tagsPath)
}

// UpdateTag 更新标签
func (a *API) UpdateTag(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		redirectSeeOther(c, tagsPath)
		return
	}
	if _, err := a.tags.Update(c.Request.Context(), id, c.PostForm("name")); err != nil {
		a.handleTagError(c, err)
		return
	}
	setFlash(c, "Tag zapisany.")
	redirectSeeOther(c, tagsPath)
}

// DeleteTag 删除标签
func (a *API) DeleteTag(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		redirectSeeOther(c, tagsPath)
		return
	}
	if err := a.tags.Delete(c.Request.Context(), id); err != nil {
		a.handleTagError(c, err)
		return
	}
	setFlash(c, "Tag usunięty.")
	redirectSeeOther(c, tagsPath)
}

func (a *API) handleTagError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTagNotFound):
		setFlash(c, "Tag nie istnieje.")
		redirectSeeOther(c, tagsPath)
	case errors.Is(err, service.ErrTagNameRequired):
		a.renderTags(c, http.StatusUnprocessableEntity, "Nazwa tagu jest wymagana.")
	case errors.Is(err, service.ErrTagExists):
		a.renderTags(c, http.StatusUnprocessableEntity, "Tag o tej nazwie już istnieje.")
	case errors.Is(err, service.ErrSlugEmpty):
		a.renderTags(c, http.StatusUnprocessableEntity, "Nazwa musi zawierać litery lub cyfry.")
	default:
		a.renderServerError(c, err)
	}
}

func (a *API) renderTags(c *gin.Context, status int, message string) {
	tags, err := a.tags.List(c.Request.Context())
	if err != nil {
		a.renderServerError(c, err)
		return
	}
	a.renderHTML(c, status, "panel_tags.html", gin.H{
		"title": "Tagi",
		"tags":  tags,
		"error": message,
	})
}
