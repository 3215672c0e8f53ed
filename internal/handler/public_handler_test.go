package handler

import (
	"context"
	"html/template"
	"net/http"
	"strings"
	"testing"

	"github.com/projektfire/internal/db"
	"github.com/projektfire/internal/service"
)

func registerPublicRoutes(env *testEnv) {
	env.engine.GET("/", env.api.RedirectHome)
	env.engine.GET("/blog", env.api.ShowBlog)
	env.engine.GET("/blog/page/:page", env.api.ShowBlogPage)
	env.engine.GET("/kategoria/:slug", env.api.ShowCategory)
	env.engine.GET("/kategoria/:slug/page/:page", env.api.ShowCategory)
	env.engine.GET("/tutaj-zacznij", env.api.ShowStartHere)
	env.engine.GET("/o-mnie", env.api.ShowAbout)
	env.engine.GET("/sitemap.xml", env.api.Sitemap)
	env.engine.GET("/robots.txt", env.api.Robots)
	env.engine.NoRoute(env.api.ResolveSlug)
}

func TestCanonicalRedirects(t *testing.T) {
	env := newTestEnv(t)
	registerPublicRoutes(env)

	cases := map[string]string{
		"/":                        "/blog",
		"/blog/page/1":             "/blog",
		"/blog/page/0":             "/blog",
		"/kategoria/fire/page/1":   "/kategoria/fire",
		"/kategoria/fire/page/abc": "/kategoria/fire",
	}
	for path, want := range cases {
		w := env.get(path)
		if w.Code != http.StatusMovedPermanently {
			t.Fatalf("%s: expected 301, got %d", path, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != want {
			t.Fatalf("%s: expected redirect to %s, got %s", path, want, loc)
		}
	}
}

func TestBlogListsOnlyPublished(t *testing.T) {
	env := newTestEnv(t)
	registerPublicRoutes(env)

	env.createArticle(t, service.ArticleInput{Title: "Widoczny", ContentMD: "a", State: db.Published{}})
	env.createArticle(t, service.ArticleInput{Title: "Ukryty", ContentMD: "b", State: db.Draft{}})

	w := env.get("/blog")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	name, data := env.html.last()
	if name != "blog_list.html" {
		t.Fatalf("unexpected template %q", name)
	}
	articles := data["articles"].([]db.Article)
	if len(articles) != 1 || articles[0].Title != "Widoczny" {
		t.Fatalf("expected only the published article, got %+v", articles)
	}
	if site, ok := data["site"]; !ok || site == nil {
		t.Fatal("expected site data in template payload")
	}

	if w := env.get("/blog/page/5"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 past the last page, got %d", w.Code)
	}
}

func TestArticleCatchAll(t *testing.T) {
	env := newTestEnv(t)
	registerPublicRoutes(env)

	published := env.createArticle(t, service.ArticleInput{Title: "Jak zacząć inwestować", ContentMD: "# Start", State: db.Published{}})
	env.createArticle(t, service.ArticleInput{Title: "Szkic", ContentMD: "x", State: db.Draft{}})

	if published.Slug != "jak-zaczac-inwestowac" {
		t.Fatalf("unexpected slug %q", published.Slug)
	}

	w := env.get("/jak-zaczac-inwestowac")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for published article, got %d", w.Code)
	}
	name, data := env.html.last()
	if name != "article.html" {
		t.Fatalf("unexpected template %q", name)
	}
	if !strings.Contains(string(data["content"].(template.HTML)), "<h1") {
		t.Fatalf("expected rendered markdown")
	}

	for _, path := range []string{"/szkic", "/nie-ma-takiego", "/a/b/c"} {
		if w := env.get(path); w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, w.Code)
		}
	}
}

func TestCategoryPage(t *testing.T) {
	env := newTestEnv(t)
	registerPublicRoutes(env)

	category, err := env.api.categories.Create(context.Background(), service.CategoryInput{Name: "Inwestowanie"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	env.createArticle(t, service.ArticleInput{Title: "ETF na start", ContentMD: "x", CategoryID: &category.ID, State: db.Published{}})
	env.createArticle(t, service.ArticleInput{Title: "Inny", ContentMD: "x", State: db.Published{}})

	w := env.get("/kategoria/inwestowanie")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	_, data := env.html.last()
	if articles := data["articles"].([]db.Article); len(articles) != 1 {
		t.Fatalf("expected one article in category, got %d", len(articles))
	}

	if w := env.get("/kategoria/brak"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown category, got %d", w.Code)
	}
}

func TestStartHereListsBeginnerArticles(t *testing.T) {
	env := newTestEnv(t)
	registerPublicRoutes(env)

	tag, err := env.api.tags.Create(context.Background(), "beginner")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}
	env.createArticle(t, service.ArticleInput{Title: "Pierwsze kroki", ContentMD: "x", TagIDs: []uint{tag.ID}, State: db.Published{}})
	env.createArticle(t, service.ArticleInput{Title: "Zaawansowane", ContentMD: "x", State: db.Published{}})

	w := env.get("/tutaj-zacznij")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	_, data := env.html.last()
	articles := data["articles"].([]db.Article)
	if len(articles) != 1 || articles[0].Title != "Pierwsze kroki" {
		t.Fatalf("unexpected start-here articles %+v", articles)
	}
}

func TestAboutPage(t *testing.T) {
	env := newTestEnv(t)
	registerPublicRoutes(env)

	if w := env.get("/o-mnie"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before the page exists, got %d", w.Code)
	}

	if _, err := env.api.pages.Save(context.Background(), service.AboutPageSlug, service.PageInput{Title: "O mnie", ContentMD: "Cześć!"}); err != nil {
		t.Fatalf("save page: %v", err)
	}
	if w := env.get("/o-mnie"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestSitemapAndRobots(t *testing.T) {
	env := newTestEnv(t)
	registerPublicRoutes(env)

	env.createArticle(t, service.ArticleInput{Title: "Top ETF", ContentMD: "x", State: db.Published{}})
	env.createArticle(t, service.ArticleInput{Title: "Szkic", ContentMD: "x", State: db.Draft{}})

	w := env.get("/sitemap.xml")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<loc>https://projektfire.test/top-etf</loc>") {
		t.Fatalf("published article missing from sitemap: %s", body)
	}
	if strings.Contains(body, "/szkic") {
		t.Fatalf("draft leaked into sitemap: %s", body)
	}

	w = env.get("/robots.txt")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Disallow: /panel/") {
		t.Fatalf("unexpected robots.txt: %d %s", w.Code, w.Body.String())
	}
}
