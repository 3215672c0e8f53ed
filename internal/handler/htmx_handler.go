package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/projektfire/internal/service"
)

// SearchArticles returns the live-search results fragment.
func (a *API) SearchArticles(c *gin.Context) {
	query := c.Query("q")
	articles, err := a.articles.Search(c.Request.Context(), query)
	if err != nil {
		a.log.Error().Err(err).Msg("search failed")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.HTML(http.StatusOK, "search_results.html", gin.H{
		"query":    query,
		"articles": articles,
	})
}

// ListComments returns an article's approved comments as a fragment.
func (a *API) ListComments(c *gin.Context) {
	articleID, err := parseUintParam(c, "article_id")
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	comments, err := a.comments.ListApproved(c.Request.Context(), articleID)
	if err != nil {
		a.log.Error().Err(err).Uint("article_id", articleID).Msg("list comments failed")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.HTML(http.StatusOK, "comment_list.html", gin.H{
		"comments": comments,
	})
}

// SubmitComment runs a comment through the spam gate and answers with the
// rendered comment, an empty body for discarded bots, or an error fragment.
func (a *API) SubmitComment(c *gin.Context) {
	sub := service.CommentSubmission{
		Nickname:  c.PostForm("nickname"),
		Content:   c.PostForm("content"),
		Honeypot:  c.PostForm("website"),
		ClientKey: c.ClientIP(),
		IPAddress: c.ClientIP(),
	}
	if id := parseOptionalUint(c.PostForm("article_id")); id != nil {
		sub.ArticleID = *id
	}

	comment, err := a.comments.Submit(c.Request.Context(), sub)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCommentFieldsMissing):
			a.htmxError(c, http.StatusUnprocessableEntity, "Wypełnij wszystkie pola.")
		case errors.Is(err, service.ErrCommentTooLong):
			a.htmxError(c, http.StatusUnprocessableEntity, "Nick (max 100 znaków) lub komentarz (max 2000 znaków) jest za długi.")
		case errors.Is(err, service.ErrCommentRateLimited):
			a.htmxError(c, http.StatusTooManyRequests, "Zbyt wiele komentarzy. Spróbuj za kilka minut.")
		case errors.Is(err, service.ErrContentBlacklisted):
			a.htmxError(c, http.StatusUnprocessableEntity, "Komentarz zawiera niedozwolone treści.")
		case errors.Is(err, service.ErrNicknameBlacklisted):
			a.htmxError(c, http.StatusUnprocessableEntity, "Nick zawiera niedozwolone treści.")
		case errors.Is(err, service.ErrArticleNotFound):
			a.htmxError(c, http.StatusNotFound, "Artykuł nie istnieje.")
		default:
			a.log.Error().Err(err).Msg("submit comment failed")
			a.htmxError(c, http.StatusInternalServerError, "Nie udało się dodać komentarza.")
		}
		return
	}

	if comment == nil {
		c.Status(http.StatusOK)
		return
	}
	c.HTML(http.StatusOK, "comment_single.html", gin.H{
		"comment": comment,
	})
}
