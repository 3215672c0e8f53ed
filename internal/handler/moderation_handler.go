package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/projektfire/internal/service"
)

const (
	commentsPath  = "/panel/comments"
	blacklistPath = "/panel/blacklist"
	messagesPath  = "/panel/messages"
)

// ShowComments 渲染评论审核列表，?approved=1|0 过滤
func (a *API) ShowComments(c *gin.Context) {
	filter := service.CommentFilter{Page: parsePositiveInt(c.Query("page"), 1)}
	switch c.Query("approved") {
	case "1":
		approved := true
		filter.Approved = &approved
	case "0":
		approved := false
		filter.Approved = &approved
	}

	result, err := a.comments.List(c.Request.Context(), filter)
	if err != nil {
		a.renderServerError(c, err)
		return
	}
	a.renderHTML(c, http.StatusOK, "panel_comments.html", gin.H{
		"title":      "Komentarze",
		"result":     result,
		"approved":   c.Query("approved"),
		"pagination": newPagination(commentsPath, result.Page, result.TotalPages),
	})
}

// ToggleComment 切换评论的审核状态
func (a *API) ToggleComment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		redirectSeeOther(c, commentsPath)
		return
	}
	approved, err := a.comments.ToggleApproval(c.Request.Context(), id)
	switch {
	case errors.Is(err, service.ErrCommentNotFound):
		setFlash(c, "Komentarz nie istnieje.")
	case err != nil:
		a.renderServerError(c, err)
		return
	case approved:
		setFlash(c, "Komentarz zatwierdzony.")
	default:
		setFlash(c, "Komentarz ukryty.")
	}
	redirectSeeOther(c, commentsPath)
}

// DeleteComment 删除评论
func (a *API) DeleteComment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		redirectSeeOther(c, commentsPath)
		return
	}
	if err := a.comments.Delete(c.Request.Context(), id); err != nil {
		if !errors.Is(err, service.ErrCommentNotFound) {
			a.renderServerError(c, err)
			return
		}
		setFlash(c, "Komentarz nie istnieje.")
	} else {
		setFlash(c, "Komentarz usunięty.")
	}
	redirectSeeOther(c, commentsPath)
}

// ShowBlacklist 渲染屏蔽词列表
func (a *API) ShowBlacklist(c *gin.Context) {
	a.renderBlacklist(c, http.StatusOK, "")
}

// AddBlacklistWord 添加屏蔽词
func (a *API) AddBlacklistWord(c *gin.Context) {
	if _, err := a.blacklist.Add(c.Request.Context(), c.PostForm("word")); err != nil {
		switch {
		case errors.Is(err, service.ErrWordRequired):
			a.renderBlacklist(c, http.StatusUnprocessableEntity, "Podaj słowo.")
		case errors.Is(err, service.ErrWordExists):
			a.renderBlacklist(c, http.StatusUnprocessableEntity, "To słowo jest już na liście.")
		default:
			a.renderServerError(c, err)
		}
		return
	}
	setFlash(c, "Słowo dodane.")
	redirectSeeOther(c, blacklistPath)
}

// DeleteBlacklistWord 删除屏蔽词
func (a *API) DeleteBlacklistWord(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		redirectSeeOther(c, blacklistPath)
		return
	}
	if err := a.blacklist.Delete(c.Request.Context(), id); err != nil {
		if !errors.Is(err, service.ErrWordNotFound) {
			a.renderServerError(c, err)
			return
		}
		setFlash(c, "Słowo nie istnieje.")
	} else {
		setFlash(c, "Słowo usunięte.")
	}
	redirectSeeOther(c, blacklistPath)
}

func (a *API) renderBlacklist(c *gin.Context, status int, message string) {
	words, err := a.blacklist.List(c.Request.Context())
	if err != nil {
		a.renderServerError(c, err)
		return
	}
	a.renderHTML(c, status, "panel_blacklist.html", gin.H{
		"title": "Czarna lista",
		"words": words,
		"error": message,
	})
}

// ShowMessages 渲染联系表单留言
func (a *API) ShowMessages(c *gin.Context) {
	messages, err := a.contact.List(c.Request.Context())
	if err != nil {
		a.renderServerError(c, err)
		return
	}
	a.renderHTML(c, http.StatusOK, "panel_messages.html", gin.H{
		"title":    "Wiadomości",
		"messages": messages,
	})
}

// MarkMessageRead 将留言标记为已读
func (a *API) MarkMessageRead(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		redirectSeeOther(c, messagesPath)
		return
	}
	if err := a.contact.MarkRead(c.Request.Context(), id); err != nil {
		if !errors.Is(err, service.ErrMessageNotFound) {
			a.renderServerError(c, err)
			return
		}
		setFlash(c, "Wiadomość nie istnieje.")
	}
	redirectSeeOther(c, messagesPath)
}

// DeleteMessage 删除留言
func (a *API) DeleteMessage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		redirectSeeOther(c, messagesPath)
		return
	}
	if err := a.contact.Delete(c.Request.Context(), id); err != nil {
		if !errors.Is(err, service.ErrMessageNotFound) {
			a.renderServerError(c, err)
			return
		}
		setFlash(c, "Wiadomość nie istnieje.")
	} else {
		setFlash(c, "Wiadomość usunięta.")
	}
	redirectSeeOther(c, messagesPath)
}
