package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/projektfire/internal/db"
	"github.com/projektfire/internal/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrArticleNotFound  = errors.New("article not found")
	ErrTitleRequired    = errors.New("article title is required")
	ErrTitleTooLong     = errors.New("article title is too long")
	ErrSlugEmpty        = errors.New("title does not contain any letters or digits")
	ErrScheduleRequired = errors.New("scheduled articles need a publish time")
	ErrInvalidStatus    = errors.New("unknown article status")
)

const (
	maxTitleLength   = 300
	maxSlugAttempts  = 3
	SearchLimit      = 10
	beginnerTagSlug  = "beginner"
	recentAdminLimit = 5
)

// ArticleService wraps article related database operations.
type ArticleService struct {
	db  *gorm.DB
	now func() time.Time
}

// ArticleFilter describes filters for listing articles.
type ArticleFilter struct {
	Status     db.ArticleStatus
	CategoryID uint
	Search     string
	Page       int
	PerPage    int
}

// ArticleListResult aggregates paginated list data.
type ArticleListResult struct {
	Articles   []db.Article
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// ArticleCounts are the dashboard counters.
type ArticleCounts struct {
	Total     int64
	Published int64
	Drafts    int64
	Scheduled int64
}

// ArticleInput represents fields accepted when creating or updating an article.
type ArticleInput struct {
	Title           string
	ContentMD       string
	Excerpt         string
	FeaturedImage   string
	MetaTitle       string
	MetaDescription string
	CategoryID      *uint
	TagIDs          []uint
	State           db.ArticleState
}

// NewArticleService creates an ArticleService instance.
func NewArticleService(gdb *gorm.DB) *ArticleService {
	return &ArticleService{db: gdb, now: time.Now}
}

// ParseArticleState builds the state from the panel form values. scheduledAt
// is only read for the scheduled status.
func ParseArticleState(status string, scheduledAt *time.Time) (db.ArticleState, error) {
	switch db.ArticleStatus(strings.ToLower(strings.TrimSpace(status))) {
	case db.ArticleStatusDraft, "":
		return db.Draft{}, nil
	case db.ArticleStatusPublished:
		return db.Published{}, nil
	case db.ArticleStatusScheduled:
		if scheduledAt == nil || scheduledAt.IsZero() {
			return nil, ErrScheduleRequired
		}
		return db.Scheduled{At: *scheduledAt}, nil
	default:
		return nil, ErrInvalidStatus
	}
}

// Get fetches an article by id with category and tags preloaded.
func (s *ArticleService) Get(ctx context.Context, id uint) (*db.Article, error) {
	var article db.Article
	if err := s.db.WithContext(ctx).Preload("Category").Preload("Tags").First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return &article, nil
}

// GetPublishedBySlug returns a visible article; drafts and scheduled ones are not found.
func (s *ArticleService) GetPublishedBySlug(ctx context.Context, articleSlug string) (*db.Article, error) {
	var article db.Article
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Tags").
		Where("slug = ? AND status = ?", articleSlug, db.ArticleStatusPublished).
		First(&article).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return &article, nil
}

// List returns articles matching the filter, newest first.
func (s *ArticleService) List(ctx context.Context, filter ArticleFilter) (*ArticleListResult, error) {
	result := &ArticleListResult{
		Page:    normalizePage(filter.Page),
		PerPage: normalizePerPage(filter.PerPage, DefaultPerPage),
	}

	query := s.db.WithContext(ctx).Model(&db.Article{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ?", like)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}
	result.TotalPages = calculateTotalPages(result.Total, result.PerPage)

	if filter.Status == db.ArticleStatusPublished {
		query = query.Order("published_at desc")
	}
	if err := query.
		Preload("Category").
		Preload("Tags").
		Order("created_at desc").
		Order("id desc").
		Limit(result.PerPage).
		Offset((result.Page - 1) * result.PerPage).
		Find(&result.Articles).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// ListPublished returns one page of published articles.
func (s *ArticleService) ListPublished(ctx context.Context, page int) (*ArticleListResult, error) {
	return s.List(ctx, ArticleFilter{Status: db.ArticleStatusPublished, Page: page, PerPage: DefaultPerPage})
}

// ListPublishedInCategory returns one page of a category's published articles.
func (s *ArticleService) ListPublishedInCategory(ctx context.Context, categoryID uint, page int) (*ArticleListResult, error) {
	return s.List(ctx, ArticleFilter{Status: db.ArticleStatusPublished, CategoryID: categoryID, Page: page, PerPage: DefaultPerPage})
}

// ListPublishedByTag returns every published article carrying the tag slug.
func (s *ArticleService) ListPublishedByTag(ctx context.Context, tagSlug string) ([]db.Article, error) {
	var articles []db.Article
	err := s.db.WithContext(ctx).
		Preload("Category").
		Joins("JOIN article_tags ON article_tags.article_id = articles.id").
		Joins("JOIN tags ON tags.id = article_tags.tag_id").
		Where("tags.slug = ? AND articles.status = ?", tagSlug, db.ArticleStatusPublished).
		Order("articles.published_at desc").
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// ListBeginner returns the articles shown on the start-here page.
func (s *ArticleService) ListBeginner(ctx context.Context) ([]db.Article, error) {
	return s.ListPublishedByTag(ctx, beginnerTagSlug)
}

// ListAllPublished returns every published article for the sitemap.
func (s *ArticleService) ListAllPublished(ctx context.Context) ([]db.Article, error) {
	var articles []db.Article
	if err := s.db.WithContext(ctx).
		Where("status = ?", db.ArticleStatusPublished).
		Order("published_at desc").
		Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

// ListRecent returns the most recently touched articles for the dashboard.
func (s *ArticleService) ListRecent(ctx context.Context) ([]db.Article, error) {
	var articles []db.Article
	if err := s.db.WithContext(ctx).Order("updated_at desc").Limit(recentAdminLimit).Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

// Search does a case-insensitive substring match over title and markdown of
// published articles.
func (s *ArticleService) Search(ctx context.Context, query string) ([]db.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []db.Article{}, nil
	}

	like := "%" + escapeLike(strings.ToLower(query)) + "%"
	var articles []db.Article
	if err := s.db.WithContext(ctx).
		Where("status = ?", db.ArticleStatusPublished).
		Where("LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(content_md) LIKE ? ESCAPE '\\'", like, like).
		Order("published_at desc").
		Limit(SearchLimit).
		Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

// Counts returns the dashboard counters.
func (s *ArticleService) Counts(ctx context.Context) (ArticleCounts, error) {
	var rows []struct {
		Status db.ArticleStatus
		Count  int64
	}
	if err := s.db.WithContext(ctx).
		Model(&db.Article{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return ArticleCounts{}, err
	}

	var counts ArticleCounts
	for _, row := range rows {
		counts.Total += row.Count
		switch row.Status {
		case db.ArticleStatusPublished:
			counts.Published = row.Count
		case db.ArticleStatusScheduled:
			counts.Scheduled = row.Count
		default:
			counts.Drafts += row.Count
		}
	}
	return counts, nil
}

// Create persists an article with its tags in one transaction. A unique-index
// conflict on the slug, caused by a concurrent create, is retried.
func (s *ArticleService) Create(ctx context.Context, input ArticleInput) (*db.Article, error) {
	if err := validateArticleInput(&input); err != nil {
		return nil, err
	}
	base := slug.Generate(input.Title)
	if base == "" {
		return nil, ErrSlugEmpty
	}
	contentHTML, err := RenderMarkdown(input.ContentMD)
	if err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var article db.Article
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		article = db.Article{}
		applyArticleInput(&article, input, contentHTML)
		article.ApplyState(input.State, s.now())

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			resolved, err := slug.EnsureUnique(tx, &db.Article{}, base, 0)
			if err != nil {
				return err
			}
			article.Slug = resolved

			if err := ensureCategoryExists(tx, input.CategoryID); err != nil {
				return err
			}
			tags, err := findTags(tx, input.TagIDs)
			if err != nil {
				return err
			}
			article.Tags = tags

			return tx.Omit("Tags.*").Create(&article).Error
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, article.ID)
}

// Update applies changes to an existing article. The slug follows the title
// only when the title's slug differs from the stored one.
func (s *ArticleService) Update(ctx context.Context, id uint, input ArticleInput) (*db.Article, error) {
	if err := validateArticleInput(&input); err != nil {
		return nil, err
	}
	derived := slug.Generate(input.Title)
	if derived == "" {
		return nil, ErrSlugEmpty
	}
	contentHTML, err := RenderMarkdown(input.ContentMD)
	if err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article db.Article
		if err := tx.First(&article, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrArticleNotFound
			}
			return err
		}

		if derived != article.Slug {
			resolved, err := slug.EnsureUnique(tx, &db.Article{}, derived, article.ID)
			if err != nil {
				return err
			}
			article.Slug = resolved
		}

		if err := ensureCategoryExists(tx, input.CategoryID); err != nil {
			return err
		}
		tags, err := findTags(tx, input.TagIDs)
		if err != nil {
			return err
		}

		applyArticleInput(&article, input, contentHTML)
		article.ApplyState(input.State, s.now())

		if err := tx.Omit(clause.Associations).Save(&article).Error; err != nil {
			return err
		}
		return tx.Model(&article).Association("Tags").Replace(tags)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Delete removes an article together with its comments and tag links.
func (s *ArticleService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article db.Article
		if err := tx.First(&article, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrArticleNotFound
			}
			return err
		}

		if err := tx.Unscoped().Where("article_id = ?", id).Delete(&db.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&article).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Unscoped().Delete(&article).Error
	})
}

// PublishScheduled promotes every scheduled article whose publish time has
// passed. All of them share now as published_at and commit together.
func (s *ArticleService) PublishScheduled(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	published := 0

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var due []db.Article
		if err := tx.
			Where("status = ? AND scheduled_publish_at <= ?", db.ArticleStatusScheduled, now).
			Find(&due).Error; err != nil {
			return err
		}

		for i := range due {
			due[i].ApplyState(db.Published{At: now}, now)
			if err := tx.Omit(clause.Associations).Save(&due[i]).Error; err != nil {
				return fmt.Errorf("publish article %d: %w", due[i].ID, err)
			}
		}
		published = len(due)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}

func validateArticleInput(input *ArticleInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(input.Title) > maxTitleLength {
		return ErrTitleTooLong
	}
	if input.State == nil {
		input.State = db.Draft{}
	}
	if scheduled, ok := input.State.(db.Scheduled); ok && scheduled.At.IsZero() {
		return ErrScheduleRequired
	}
	return nil
}

func applyArticleInput(article *db.Article, input ArticleInput, contentHTML string) {
	article.Title = input.Title
	article.ContentMD = input.ContentMD
	article.ContentHTML = contentHTML
	article.Excerpt = strings.TrimSpace(input.Excerpt)
	article.FeaturedImage = strings.TrimSpace(input.FeaturedImage)
	article.MetaTitle = strings.TrimSpace(input.MetaTitle)
	article.MetaDescription = strings.TrimSpace(input.MetaDescription)
	article.CategoryID = input.CategoryID
}

func ensureCategoryExists(tx *gorm.DB, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&db.Category{}).Where("id = ?", *categoryID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func findTags(tx *gorm.DB, ids []uint) ([]db.Tag, error) {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return []db.Tag{}, nil
	}

	var tags []db.Tag
	if err := tx.Where("id IN ?", unique).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(unique) {
		return nil, ErrTagNotFound
	}
	return tags, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
