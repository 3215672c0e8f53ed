package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/projektfire/internal/db"
	"github.com/projektfire/internal/service"
)

const mediaPath = "/panel/media"

// ShowMedia 渲染媒体库
func (a *API) ShowMedia(c *gin.Context) {
	a.renderMedia(c, http.StatusOK, "")
}

// UploadMedia 处理媒体库上传表单
func (a *API) UploadMedia(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		a.renderMedia(c, http.StatusUnprocessableEntity, "Wybierz plik do przesłania.")
		return
	}

	if _, err := a.uploadFile(c, file, c.PostForm("alt_text")); err != nil {
		if message, status := mediaErrorMessage(err); status != 0 {
			a.renderMedia(c, status, message)
			return
		}
		a.renderServerError(c, err)
		return
	}

	setFlash(c, "Plik przesłany.")
	redirectSeeOther(c, mediaPath)
}

// UploadImage 处理编辑器内的图片上传，返回 EasyMDE 期望的 JSON
func (a *API) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Brak pliku.", "success": 0})
		return
	}

	item, err := a.uploadFile(c, file, "")
	if err != nil {
		message, status := mediaErrorMessage(err)
		if status == 0 {
			a.log.Error().Err(err).Msg("editor upload failed")
			message, status = "Nie udało się zapisać pliku.", http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": message, "success": 0})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": 1,
		"data": gin.H{
			"filePath": item.URL,
			"url":      item.URL,
		},
	})
}

// DeleteMedia 删除媒体文件
func (a *API) DeleteMedia(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		redirectSeeOther(c, mediaPath)
		return
	}
	if err := a.media.Delete(c.Request.Context(), id); err != nil {
		if !errors.Is(err, service.ErrMediaNotFound) {
			a.renderServerError(c, err)
			return
		}
		setFlash(c, "Plik nie istnieje.")
	} else {
		setFlash(c, "Plik usunięty.")
	}
	redirectSeeOther(c, mediaPath)
}

func (a *API) uploadFile(c *gin.Context, file *multipart.FileHeader, altText string) (*db.Media, error) {
	if file.Size > service.MaxMediaSize {
		return nil, service.ErrMediaTooLarge
	}
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return a.media.Upload(c.Request.Context(), service.UploadInput{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		Body:        src,
		AltText:     altText,
	})
}

func mediaErrorMessage(err error) (string, int) {
	switch {
	case errors.Is(err, service.ErrMediaFileMissing):
		return "Wybierz plik do przesłania.", http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrMediaTooLarge):
		return "Plik jest za duży (max 5 MB).", http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrMediaTypeNotAllowed):
		return "Niedozwolony typ pliku.", http.StatusUnprocessableEntity
	default:
		return "", 0
	}
}

func (a *API) renderMedia(c *gin.Context, status int, message string) {
	result, err := a.media.List(c.Request.Context(), service.MediaFilter{
		Search: c.Query("q"),
		Page:   parsePositiveInt(c.Query("page"), 1),
	})
	if err != nil {
		a.renderServerError(c, err)
		return
	}
	a.renderHTML(c, status, "panel_media.html", gin.H{
		"title":      "Media",
		"result":     result,
		"query":      c.Query("q"),
		"error":      message,
		"pagination": newPagination(mediaPath, result.Page, result.TotalPages),
	})
}
