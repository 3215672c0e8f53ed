package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/projektfire/internal/auth"
	"github.com/projektfire/internal/config"
	"github.com/projektfire/internal/db"
	"github.com/projektfire/internal/ratelimit"
	"github.com/projektfire/internal/service"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var handlerDBSeq atomic.Int64

// stubHTMLRender records the last template and its data instead of rendering.
type stubHTMLRender struct {
	mu   sync.Mutex
	name string
	data gin.H
}

type stubHTMLInstance struct {
	name string
}

func (r *stubHTMLRender) Instance(name string, data interface{}) render.Render {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name = name
	r.data, _ = data.(gin.H)
	return &stubHTMLInstance{name: name}
}

func (r *stubHTMLRender) last() (string, gin.H) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name, r.data
}

func (r *stubHTMLInstance) Render(w http.ResponseWriter) error {
	_, err := io.WriteString(w, r.name)
	return err
}

func (r *stubHTMLInstance) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

type testEnv struct {
	api    *API
	db     *gorm.DB
	engine *gin.Engine
	html   *stubHTMLRender
	store  *service.LocalMediaStore
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handler-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), handlerDBSeq.Add(1))
	gdb, err := db.Open(dsn, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb := setupTestDB(t)
	store, err := service.NewLocalMediaStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("media store: %v", err)
	}

	api := NewAPI(Options{
		DB: gdb,
		Config: config.AppConfig{
			SecretKey:    "test-secret",
			SiteURL:      "https://projektfire.test",
			SiteName:     "Projekt FIRE",
			ContactEmail: "kontakt@projektfire.test",
			Timezone:     "UTC",
		},
		Logger:         zerolog.Nop(),
		LoginLimiter:   ratelimit.NewLoginLimiter(),
		CommentLimiter: ratelimit.NewCommentLimiter(),
		MediaStore:     store,
	})

	html := &stubHTMLRender{}
	engine := gin.New()
	engine.HTMLRender = html
	engine.Use(sessions.Sessions("projektfire_test", cookie.NewStore([]byte("test-secret"))))

	return &testEnv{api: api, db: gdb, engine: engine, html: html, store: store}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

func (e *testEnv) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

// adminCookie creates the admin account and returns a valid session cookie.
func (e *testEnv) adminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	if _, err := db.EnsureAdmin(e.db, "admin", "tajne-haslo"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	var user db.AdminUser
	if err := e.db.Where("username = ?", "admin").First(&user).Error; err != nil {
		t.Fatalf("load admin: %v", err)
	}
	token, err := e.api.tokens.Issue(user.ID, user.Username)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return &http.Cookie{Name: auth.SessionCookieName, Value: token}
}

func (e *testEnv) createArticle(t *testing.T, input service.ArticleInput) *db.Article {
	t.Helper()
	article, err := e.api.articles.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create article %q: %v", input.Title, err)
	}
	return article
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
