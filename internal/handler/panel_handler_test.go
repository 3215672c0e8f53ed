package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"testing"

	"github.com/projektfire/internal/db"
	"github.com/projektfire/internal/service"
)

func registerPanelRoutes(env *testEnv) {
	panel := env.engine.Group("/panel")
	panel.Use(env.api.AuthRequired())
	panel.GET("/categories", env.api.ShowCategories)
	panel.POST("/categories", env.api.CreateCategory)
	panel.POST("/categories/:id", env.api.UpdateCategory)
	panel.POST("/categories/:id/delete", env.api.DeleteCategory)
	panel.GET("/tags", env.api.ShowTags)
	panel.POST("/tags", env.api.CreateTag)
	panel.POST("/tags/:id/delete", env.api.DeleteTag)
	panel.GET("/comments", env.api.ShowComments)
	panel.POST("/comments/:id/toggle", env.api.ToggleComment)
	panel.POST("/comments/:id/delete", env.api.DeleteComment)
	panel.GET("/blacklist", env.api.ShowBlacklist)
	panel.POST("/blacklist", env.api.AddBlacklistWord)
	panel.POST("/blacklist/:id/delete", env.api.DeleteBlacklistWord)
	panel.GET("/messages", env.api.ShowMessages)
	panel.POST("/messages/:id/read", env.api.MarkMessageRead)
	panel.POST("/messages/:id/delete", env.api.DeleteMessage)
	panel.GET("/media", env.api.ShowMedia)
	panel.POST("/media", env.api.UploadMedia)
	panel.POST("/media/upload-image", env.api.UploadImage)
	panel.POST("/media/:id/delete", env.api.DeleteMedia)
	panel.GET("/pages", env.api.ShowPages)
	panel.GET("/pages/:slug", env.api.ShowPageEditor)
	panel.POST("/pages/:slug", env.api.SavePage)
}

func TestCategoryCRUD(t *testing.T) {
	env := newTestEnv(t)
	registerPanelRoutes(env)
	cookie := env.adminCookie(t)

	w := env.postForm("/panel/categories", url.Values{"name": {"Budżet domowy"}, "description": {"Wydatki"}}, cookie)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/panel/categories" {
		t.Fatalf("unexpected create response %d", w.Code)
	}
	var category db.Category
	if err := env.db.First(&category).Error; err != nil {
		t.Fatalf("load category: %v", err)
	}
	if category.Slug != "budzet-domowy" {
		t.Fatalf("unexpected slug %q", category.Slug)
	}

	if w := env.postForm("/panel/categories", url.Values{"name": {"Budżet domowy"}}, cookie); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for duplicate, got %d", w.Code)
	}
	if w := env.postForm("/panel/categories", url.Values{"name": {""}}, cookie); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty name, got %d", w.Code)
	}

	article := env.createArticle(t, service.ArticleInput{Title: "Plan", ContentMD: "x", CategoryID: &category.ID, State: db.Published{}})
	w = env.postForm(fmt.Sprintf("/panel/categories/%d/delete", category.ID), url.Values{}, cookie)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 on delete, got %d", w.Code)
	}
	var kept db.Article
	env.db.First(&kept, article.ID)
	if kept.CategoryID != nil {
		t.Fatalf("article should lose its category, got %v", *kept.CategoryID)
	}
}

func TestTagCreateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	registerPanelRoutes(env)
	cookie := env.adminCookie(t)

	if w := env.postForm("/panel/tags", url.Values{"name": {"Konto maklerskie"}}, cookie); w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	var tag db.Tag
	if err := env.db.First(&tag).Error; err != nil || tag.Slug != "konto-maklerskie" {
		t.Fatalf("unexpected tag %+v (%v)", tag, err)
	}
	if w := env.postForm("/panel/tags", url.Values{"name": {"konto maklerskie"}}, cookie); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for duplicate tag, got %d", w.Code)
	}
	if w := env.postForm(fmt.Sprintf("/panel/tags/%d/delete", tag.ID), url.Values{}, cookie); w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 on delete, got %d", w.Code)
	}
}

func TestCommentModeration(t *testing.T) {
	env := newTestEnv(t)
	registerPanelRoutes(env)
	cookie := env.adminCookie(t)
	article := env.createArticle(t, service.ArticleInput{Title: "Post", ContentMD: "x", State: db.Published{}})

	comment := db.Comment{ArticleID: article.ID, Nickname: "Ania", Content: "hej", IsApproved: true}
	if err := env.db.Create(&comment).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if w := env.postForm(fmt.Sprintf("/panel/comments/%d/toggle", comment.ID), url.Values{}, cookie); w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	var toggled db.Comment
	env.db.First(&toggled, comment.ID)
	if toggled.IsApproved {
		t.Fatal("expected comment to be hidden")
	}

	w := env.get("/panel/comments?approved=0", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	_, data := env.html.last()
	if result := data["result"].(*service.CommentListResult); result.Total != 1 {
		t.Fatalf("expected one hidden comment, got %d", result.Total)
	}

	if w := env.postForm(fmt.Sprintf("/panel/comments/%d/delete", comment.ID), url.Values{}, cookie); w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	var count int64
	env.db.Unscoped().Model(&db.Comment{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected comment removed, found %d", count)
	}
}

func TestBlacklistManagement(t *testing.T) {
	env := newTestEnv(t)
	registerPanelRoutes(env)
	cookie := env.adminCookie(t)

	if w := env.postForm("/panel/blacklist", url.Values{"word": {"Kasyno"}}, cookie); w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if w := env.postForm("/panel/blacklist", url.Values{"word": {"kasyno"}}, cookie); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for duplicate word, got %d", w.Code)
	}
	words, err := env.api.blacklist.Words(context.Background())
	if err != nil || len(words) != 1 || words[0] != "kasyno" {
		t.Fatalf("unexpected words %v (%v)", words, err)
	}
}

func TestMessagesReadAndDelete(t *testing.T) {
	env := newTestEnv(t)
	registerPanelRoutes(env)
	cookie := env.adminCookie(t)

	msg := db.ContactMessage{Name: "Jan", Email: "jan@example.com", Subject: "Hej", Message: "Treść"}
	if err := env.db.Create(&msg).Error; err != nil {
		t.Fatalf("create message: %v", err)
	}

	if w := env.postForm(fmt.Sprintf("/panel/messages/%d/read", msg.ID), url.Values{}, cookie); w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	var read db.ContactMessage
	env.db.First(&read, msg.ID)
	if !read.IsRead {
		t.Fatal("expected message marked as read")
	}

	if w := env.postForm(fmt.Sprintf("/panel/messages/%d/delete", msg.ID), url.Values{}, cookie); w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if w := env.get("/panel/messages", cookie); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	_, data := env.html.last()
	if messages := data["messages"].([]db.ContactMessage); len(messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(messages))
	}
}

func TestSavePage(t *testing.T) {
	env := newTestEnv(t)
	registerPanelRoutes(env)
	cookie := env.adminCookie(t)

	w := env.postForm("/panel/pages/o-mnie", url.Values{"title": {"O mnie"}, "content_md": {"Jestem **inwestorem**."}}, cookie)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/panel/pages/o-mnie" {
		t.Fatalf("unexpected save response %d %q", w.Code, w.Header().Get("Location"))
	}
	page, err := env.api.pages.GetBySlug(context.Background(), "o-mnie")
	if err != nil {
		t.Fatalf("load page: %v", err)
	}
	if page.MetaDescription == "" {
		t.Fatal("expected derived meta description")
	}

	if w := env.postForm("/panel/pages/o-mnie", url.Values{"title": {""}}, cookie); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without title, got %d", w.Code)
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func multipartUpload(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write(data)
	writer.WriteField("alt_text", "wykres")
	writer.Close()
	return &body, writer.FormDataContentType()
}

func TestUploadImageForEditor(t *testing.T) {
	env := newTestEnv(t)
	registerPanelRoutes(env)
	cookie := env.adminCookie(t)

	body, contentType := multipartUpload(t, "image", "Wykres.PNG", "image/png", pngBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/panel/media/upload-image", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	w := env.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var payload struct {
		Success int `json:"success"`
		Data    struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Success != 1 || len(payload.Data.URL) == 0 {
		t.Fatalf("unexpected payload %+v", payload)
	}

	var media db.Media
	if err := env.db.First(&media).Error; err != nil {
		t.Fatalf("load media: %v", err)
	}
	if media.Width != 4 || media.Height != 3 || media.URL != payload.Data.URL {
		t.Fatalf("unexpected media %+v", media)
	}
}

func TestUploadMediaAcceptsGenericPartType(t *testing.T) {
	env := newTestEnv(t)
	registerPanelRoutes(env)
	cookie := env.adminCookie(t)

	body, contentType := multipartUpload(t, "file", "wykres.png", "application/octet-stream", pngBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/panel/media", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	w := env.do(req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}

	var media db.Media
	if err := env.db.First(&media).Error; err != nil {
		t.Fatalf("load media: %v", err)
	}
	if media.MimeType != "image/png" {
		t.Fatalf("expected sniffed image/png, got %q", media.MimeType)
	}
}

func TestUploadMediaRejectsType(t *testing.T) {
	env := newTestEnv(t)
	registerPanelRoutes(env)
	cookie := env.adminCookie(t)

	body, contentType := multipartUpload(t, "file", "notatki.txt", "text/plain", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/panel/media", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	w := env.do(req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	_, data := env.html.last()
	if data["error"] != "Niedozwolony typ pliku." {
		t.Fatalf("unexpected error %v", data["error"])
	}
}

func TestDeleteMedia(t *testing.T) {
	env := newTestEnv(t)
	registerPanelRoutes(env)
	cookie := env.adminCookie(t)

	item, err := env.api.media.Upload(context.Background(), service.UploadInput{
		Filename:    "a.png",
		ContentType: "image/png",
		Body:        bytes.NewReader(pngBytes(t)),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	w := env.postForm(fmt.Sprintf("/panel/media/%d/delete", item.ID), url.Values{}, cookie)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if _, err := env.api.media.Get(context.Background(), item.ID); err == nil {
		t.Fatal("expected media to be gone")
	}
}
