package router

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/projektfire/internal/config"
	"github.com/projektfire/internal/db"
	"github.com/projektfire/internal/handler"
	"github.com/projektfire/internal/ratelimit"
	"github.com/projektfire/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var routerDBSeq atomic.Int64

type testServer struct {
	engine    *gin.Engine
	db        *gorm.DB
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), routerDBSeq.Add(1))
	gdb, err := db.Open(dsn, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	uploadDir := t.TempDir()
	store, err := service.NewLocalMediaStore(uploadDir, "/uploads")
	require.NoError(t, err)

	cfg := config.AppConfig{
		SecretKey:     "router-test-secret",
		SiteURL:       "https://projektfire.test",
		SiteName:      "Projekt FIRE",
		ContactEmail:  "kontakt@projektfire.test",
		Timezone:      "Europe/Warsaw",
		UploadDir:     uploadDir,
		UploadURLPath: "/uploads",
		MediaStorage:  "local",
	}
	api := handler.NewAPI(handler.Options{
		DB:             gdb,
		Config:         cfg,
		Logger:         zerolog.Nop(),
		LoginLimiter:   ratelimit.NewLoginLimiter(),
		CommentLimiter: ratelimit.NewCommentLimiter(),
		MediaStore:     store,
	})

	engine, err := SetupRouter(Options{API: api, Config: cfg, Logger: zerolog.Nop()})
	require.NoError(t, err)

	return &testServer{engine: engine, db: gdb, uploadDir: uploadDir}
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.engine.ServeHTTP(rr, req)
	return rr
}

func TestSetupRouterServesUploadsAlias(t *testing.T) {
	srv := newTestServer(t)

	fileContent := []byte("hello uploads")
	require.NoError(t, os.WriteFile(filepath.Join(srv.uploadDir, "example.txt"), fileContent, 0o644))

	rr := srv.get("/uploads/example.txt")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, string(fileContent), rr.Body.String())
}

func TestSetupRouterServesEmbeddedStatic(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/static/css/site.css", "/static/css/panel.css", "/static/js/calculators.js", "/static/js/editor.js"} {
		rr := srv.get(path)
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestPublicPagesRender(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		path     string
		contains string
	}{
		{"/blog", "Brak artykułów."},
		{"/tutaj-zacznij", "Tutaj zacznij"},
		{"/kontakt", `name="csrf_token"`},
		{"/kalkulator-fire", `id="fire-calculator"`},
		{"/kalkulator-procent-skladany", `id="compound-calculator"`},
		{"/robots.txt", "Sitemap: https://projektfire.test/sitemap.xml"},
		{"/sitemap.xml", "<urlset"},
		{"/healthz", "ok"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rr := srv.get(tc.path)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.contains)
		})
	}
}

func TestRootRedirectsToBlog(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.get("/")
	assert.Equal(t, http.StatusMovedPermanently, rr.Code)
	assert.Equal(t, "/blog", rr.Header().Get("Location"))
}

func TestResponsesCarrySecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.get("/blog")
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rr.Header().Get("Referrer-Policy"))
}

func TestUnknownPathsRenderNotFoundPage(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/nie-ma-takiego-artykulu", "/a/b/c", "/o-mnie"} {
		rr := srv.get(path)
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
		assert.Contains(t, rr.Body.String(), "Nie znaleziono strony", path)
	}
}

func TestArticleSlugResolvesOnlyPublished(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	articles := service.NewArticleService(srv.db)

	published, err := articles.Create(ctx, service.ArticleInput{
		Title:     "Jak zacząć inwestować w ETF",
		ContentMD: "## Krok pierwszy\n\nOtwórz konto maklerskie.",
		State:     db.Published{},
	})
	require.NoError(t, err)
	draft, err := articles.Create(ctx, service.ArticleInput{Title: "Szkic", State: db.Draft{}})
	require.NoError(t, err)

	rr := srv.get("/" + published.Slug)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Jak zacząć inwestować w ETF")
	assert.Contains(t, body, `<h2 id="krok-pierwszy">Krok pierwszy</h2>`)
	assert.Contains(t, body, `rel="canonical" href="https://projektfire.test/`+published.Slug+`"`)

	assert.Equal(t, http.StatusNotFound, srv.get("/"+draft.Slug).Code)

	req := httptest.NewRequest(http.MethodPost, "/"+published.Slug, strings.NewReader(""))
	rr = httptest.NewRecorder()
	srv.engine.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAboutPageRendersWhenSaved(t *testing.T) {
	srv := newTestServer(t)

	_, err := service.NewPageService(srv.db).Save(context.Background(), service.AboutPageSlug, service.PageInput{
		Title:     "O mnie",
		ContentMD: "Oszczędzam **połowę** pensji.",
	})
	require.NoError(t, err)

	rr := srv.get("/o-mnie")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<strong>połowę</strong>")
}

func TestPanelRedirectsAnonymousVisitors(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/panel", "/panel/articles", "/panel/media", "/panel/pages/o-mnie"} {
		rr := srv.get(path)
		assert.Equal(t, http.StatusSeeOther, rr.Code, path)
		assert.Equal(t, "/panel/login", rr.Header().Get("Location"), path)
	}

	rr := srv.get("/panel/login")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `action="/panel/login"`)
}

func TestFormPostsWithoutTokenAreRejected(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/kontakt", "/panel/login", "/panel/articles"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("name=x"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		srv.engine.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code, path)
	}
}

func TestSearchFragment(t *testing.T) {
	srv := newTestServer(t)
	_, err := service.NewArticleService(srv.db).Create(context.Background(), service.ArticleInput{
		Title: "Poduszka finansowa krok po kroku",
		State: db.Published{},
	})
	require.NoError(t, err)

	rr := srv.get("/htmx/search?q=poduszka")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Poduszka finansowa krok po kroku")
	assert.NotContains(t, rr.Body.String(), "<html")
}
