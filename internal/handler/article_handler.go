package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/projektfire/internal/db"
	"github.com/projektfire/internal/service"
)

const articlesPath = "/panel/articles"

// articleForm mirrors the panel form so it can be re-rendered on errors.
type articleForm struct {
	ID                 uint
	Title              string
	ContentMD          string
	Excerpt            string
	FeaturedImage      string
	MetaTitle          string
	MetaDescription    string
	Status             string
	ScheduledPublishAt string
	CategoryID         uint
	TagIDs             map[uint]bool
}

// ShowArticleList 渲染后台文章列表
func (a *API) ShowArticleList(c *gin.Context) {
	filter := service.ArticleFilter{
		Status: db.ArticleStatus(strings.TrimSpace(c.Query("status"))),
		Search: c.Query("q"),
		Page:   parsePositiveInt(c.Query("page"), 1),
	}

	result, err := a.articles.List(c.Request.Context(), filter)
	if err != nil {
		a.renderServerError(c, err)
		return
	}

	a.renderHTML(c, http.StatusOK, "panel_articles.html", gin.H{
		"title":      "Artykuły",
		"result":     result,
		"status":     string(filter.Status),
		"query":      filter.Search,
		"pagination": newPagination(articlesPath, result.Page, result.TotalPages),
	})
}

// ShowArticleNew 渲染新建文章表单
func (a *API) ShowArticleNew(c *gin.Context) {
	a.renderArticleForm(c, http.StatusOK, articleForm{Status: string(db.ArticleStatusDraft)}, "")
}

// ShowArticleEdit 渲染编辑表单
func (a *API) ShowArticleEdit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		redirectSeeOther(c, articlesPath)
		return
	}

	article, err := a.articles.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrArticleNotFound) {
			setFlash(c, "Artykuł nie istnieje.")
			redirectSeeOther(c, articlesPath)
			return
		}
		a.renderServerError(c, err)
		return
	}

	a.renderArticleForm(c, http.StatusOK, a.formFromArticle(article), "")
}

// CreateArticle 处理新建文章表单
func (a *API) CreateArticle(c *gin.Context) {
	form, input, err := a.bindArticleForm(c)
	if err != nil {
		a.renderArticleForm(c, http.StatusUnprocessableEntity, form, articleErrorMessage(err))
		return
	}

	article, err := a.articles.Create(c.Request.Context(), input)
	if err != nil {
		a.handleArticleSaveError(c, form, err)
		return
	}

	a.log.Info().Uint("id", article.ID).Str("slug", article.Slug).Str("status", string(article.Status)).Msg("article created")
	setFlash(c, "Artykuł zapisany.")
	redirectSeeOther(c, fmt.Sprintf("%s/%d/edit", articlesPath, article.ID))
}

// UpdateArticle 处理编辑表单
func (a *API) UpdateArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		redirectSeeOther(c, articlesPath)
		return
	}

	form, input, err := a.bindArticleForm(c)
	form.ID = id
	if err != nil {
		a.renderArticleForm(c, http.StatusUnprocessableEntity, form, articleErrorMessage(err))
		return
	}

	article, err := a.articles.Update(c.Request.Context(), id, input)
	if err != nil {
		if errors.Is(err, service.ErrArticleNotFound) {
			setFlash(c, "Artykuł nie istnieje.")
			redirectSeeOther(c, articlesPath)
			return
		}
		a.handleArticleSaveError(c, form, err)
		return
	}

	setFlash(c, "Artykuł zapisany.")
	redirectSeeOther(c, fmt.Sprintf("%s/%d/edit", articlesPath, article.ID))
}

// DeleteArticle 删除文章及其评论
func (a *API) DeleteArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		redirectSeeOther(c, articlesPath)
		return
	}

	if err := a.articles.Delete(c.Request.Context(), id); err != nil {
		if !errors.Is(err, service.ErrArticleNotFound) {
			a.renderServerError(c, err)
			return
		}
		setFlash(c, "Artykuł nie istnieje.")
	} else {
		setFlash(c, "Artykuł usunięty.")
	}
	redirectSeeOther(c, articlesPath)
}

// PreviewArticle renders markdown for the editor preview pane.
func (a *API) PreviewArticle(c *gin.Context) {
	rendered, err := service.RenderMarkdown(c.PostForm("content_md"))
	if err != nil {
		c.String(http.StatusUnprocessableEntity, "Nie udało się wyrenderować podglądu.")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(rendered))
}

func (a *API) bindArticleForm(c *gin.Context) (articleForm, service.ArticleInput, error) {
	form := articleForm{
		Title:              c.PostForm("title"),
		ContentMD:          c.PostForm("content_md"),
		Excerpt:            c.PostForm("excerpt"),
		FeaturedImage:      c.PostForm("featured_image"),
		MetaTitle:          c.PostForm("meta_title"),
		MetaDescription:    c.PostForm("meta_description"),
		Status:             c.PostForm("status"),
		ScheduledPublishAt: c.PostForm("scheduled_publish_at"),
		TagIDs:             map[uint]bool{},
	}
	categoryID := parseOptionalUint(c.PostForm("category_id"))
	if categoryID != nil {
		form.CategoryID = *categoryID
	}
	tagIDs := parseUintSlice(c.PostFormArray("tag_ids"))
	for _, id := range tagIDs {
		form.TagIDs[id] = true
	}

	input := service.ArticleInput{
		Title:           form.Title,
		ContentMD:       form.ContentMD,
		Excerpt:         form.Excerpt,
		FeaturedImage:   form.FeaturedImage,
		MetaTitle:       form.MetaTitle,
		MetaDescription: form.MetaDescription,
		CategoryID:      categoryID,
		TagIDs:          tagIDs,
	}

	var scheduledAt *time.Time
	if form.Status == string(db.ArticleStatusScheduled) {
		parsed, err := parseLocalTime(form.ScheduledPublishAt, a.location)
		if err != nil {
			return form, input, service.ErrScheduleRequired
		}
		scheduledAt = parsed
	}

	state, err := service.ParseArticleState(form.Status, scheduledAt)
	if err != nil {
		return form, input, err
	}
	input.State = state
	return form, input, nil
}

func (a *API) handleArticleSaveError(c *gin.Context, form articleForm, err error) {
	message := articleErrorMessage(err)
	if message == "" {
		a.renderServerError(c, err)
		return
	}
	a.renderArticleForm(c, http.StatusUnprocessableEntity, form, message)
}

func articleErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrTitleRequired):
		return "Tytuł jest wymagany."
	case errors.Is(err, service.ErrTitleTooLong):
		return "Tytuł może mieć maksymalnie 300 znaków."
	case errors.Is(err, service.ErrSlugEmpty):
		return "Tytuł musi zawierać litery lub cyfry."
	case errors.Is(err, service.ErrScheduleRequired):
		return "Podaj datę publikacji dla zaplanowanego artykułu."
	case errors.Is(err, service.ErrInvalidStatus):
		return "Nieznany status artykułu."
	case errors.Is(err, service.ErrCategoryNotFound):
		return "Wybrana kategoria nie istnieje."
	case errors.Is(err, service.ErrTagNotFound):
		return "Wybrany tag nie istnieje."
	case errors.Is(err, db.ErrInvalidArticleState):
		return "Niespójny stan artykułu."
	default:
		return ""
	}
}

func (a *API) formFromArticle(article *db.Article) articleForm {
	form := articleForm{
		ID:                 article.ID,
		Title:              article.Title,
		ContentMD:          article.ContentMD,
		Excerpt:            article.Excerpt,
		FeaturedImage:      article.FeaturedImage,
		MetaTitle:          article.MetaTitle,
		MetaDescription:    article.MetaDescription,
		Status:             string(article.Status),
		ScheduledPublishAt: formatLocalTime(article.ScheduledPublishAt, a.location),
		TagIDs:             map[uint]bool{},
	}
	if article.CategoryID != nil {
		form.CategoryID = *article.CategoryID
	}
	for _, tag := range article.Tags {
		form.TagIDs[tag.ID] = true
	}
	return form
}

func (a *API) renderArticleForm(c *gin.Context, status int, form articleForm, message string) {
	ctx := c.Request.Context()
	categories, err := a.categories.List(ctx)
	if err != nil {
		c.Error(err)
	}
	tags, err := a.tags.List(ctx)
	if err != nil {
		c.Error(err)
	}

	title := "Nowy artykuł"
	action := articlesPath
	if form.ID != 0 {
		title = "Edycja artykułu"
		action = fmt.Sprintf("%s/%d", articlesPath, form.ID)
	}

	a.renderHTML(c, status, "panel_article_form.html", gin.H{
		"title":      title,
		"form":       form,
		"action":     action,
		"error":      message,
		"categories": categories,
		"tags":       tags,
		"statuses":   []db.ArticleStatus{db.ArticleStatusDraft, db.ArticleStatusPublished, db.ArticleStatusScheduled},
	})
}
