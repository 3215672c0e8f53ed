package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/projektfire/internal/db"
	"github.com/projektfire/internal/slug"
	"gorm.io/gorm"
)

var (
	ErrPageNotFound      = errors.New("page not found")
	ErrPageTitleRequired = errors.New("page title is required")
)

// AboutPageSlug is the static page shown at /o-mnie.
const AboutPageSlug = "o-mnie"

const metaDescriptionLimit = 160

// PageService provides access to static pages such as "o-mnie".
type PageService struct {
	db *gorm.DB
}

// PageInput represents the editable fields of a static page.
type PageInput struct {
	Title           string
	ContentMD       string
	MetaTitle       string
	MetaDescription string
}

// NewPageService returns a new PageService instance.
func NewPageService(gdb *gorm.DB) *PageService {
	return &PageService{db: gdb}
}

// GetBySlug fetches a page for a given slug.
func (s *PageService) GetBySlug(ctx context.Context, pageSlug string) (*db.StaticPage, error) {
	var page db.StaticPage
	if err := s.db.WithContext(ctx).Where("slug = ?", pageSlug).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// List returns all static pages by slug.
func (s *PageService) List(ctx context.Context) ([]db.StaticPage, error) {
	var pages []db.StaticPage
	if err := s.db.WithContext(ctx).Order("slug asc").Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// Save creates or updates the page stored under pageSlug. A blank meta
// description is filled from the content.
func (s *PageService) Save(ctx context.Context, pageSlug string, input PageInput) (*db.StaticPage, error) {
	pageSlug = slug.Generate(pageSlug)
	if pageSlug == "" {
		return nil, ErrSlugEmpty
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrPageTitleRequired
	}

	contentHTML, err := RenderMarkdown(input.ContentMD)
	if err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	metaDescription := strings.TrimSpace(input.MetaDescription)
	if metaDescription == "" {
		metaDescription = summarizeContent(input.ContentMD, metaDescriptionLimit)
	}

	var page db.StaticPage
	err = s.db.WithContext(ctx).Where("slug = ?", pageSlug).First(&page).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	page.Slug = pageSlug
	page.Title = title
	page.ContentMD = input.ContentMD
	page.ContentHTML = contentHTML
	page.MetaTitle = strings.TrimSpace(input.MetaTitle)
	page.MetaDescription = metaDescription

	if err := s.db.WithContext(ctx).Save(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

var markdownLinkPattern = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)

// summarizeContent flattens markdown into a plain single line of at most limit runes.
func summarizeContent(markdown string, limit int) string {
	text := markdownLinkPattern.ReplaceAllString(markdown, "$1")
	replacer := strings.NewReplacer(
		"#", "",
		"*", "",
		"`", "",
		"_", "",
		">", "",
	)
	plain := strings.Join(strings.Fields(replacer.Replace(text)), " ")
	if plain == "" {
		return ""
	}

	if utf8.RuneCountInString(plain) <= limit {
		return plain
	}

	runes := []rune(plain)
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
