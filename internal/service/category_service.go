package service

import (
	"context"
	"errors"
	"strings"

	"github.com/projektfire/internal/db"
	"github.com/projektfire/internal/slug"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryNameRequired = errors.New("category name is required")
	ErrCategoryExists       = errors.New("category already exists")
)

// CategoryService wraps category related operations.
type CategoryService struct {
	db *gorm.DB
}

// CategoryInput represents fields accepted when creating or updating a category.
type CategoryInput struct {
	Name        string
	Description string
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(gdb *gorm.DB) *CategoryService {
	return &CategoryService{db: gdb}
}

// List returns categories by name with their article counts.
func (s *CategoryService) List(ctx context.Context) ([]db.Category, error) {
	var categories []db.Category
	if err := s.db.WithContext(ctx).
		Model(&db.Category{}).
		Select("categories.*, COUNT(articles.id) AS article_count").
		Joins("LEFT JOIN articles ON articles.category_id = categories.id AND articles.deleted_at IS NULL").
		Group("categories.id").
		Order("categories.name asc").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Get fetches a category by id.
func (s *CategoryService) Get(ctx context.Context, id uint) (*db.Category, error) {
	var category db.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// GetBySlug fetches a category by slug.
func (s *CategoryService) GetBySlug(ctx context.Context, categorySlug string) (*db.Category, error) {
	var category db.Category
	if err := s.db.WithContext(ctx).Where("slug = ?", categorySlug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Count returns the number of categories.
func (s *CategoryService) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&db.Category{}).Count(&count).Error
	return count, err
}

// Create inserts a category with a unique slug.
func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*db.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrCategoryNameRequired
	}
	base := slug.Generate(name)
	if base == "" {
		return nil, ErrSlugEmpty
	}

	var category db.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := categoryNameTaken(tx, name, 0); err != nil {
			return err
		} else if taken {
			return ErrCategoryExists
		}
		resolved, err := slug.EnsureUnique(tx, &db.Category{}, base, 0)
		if err != nil {
			return err
		}
		category = db.Category{
			Name:        name,
			Slug:        resolved,
			Description: strings.TrimSpace(input.Description),
		}
		return tx.Create(&category).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}
	return &category, nil
}

// Update changes name and description; the slug follows the name.
func (s *CategoryService) Update(ctx context.Context, id uint, input CategoryInput) (*db.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrCategoryNameRequired
	}
	derived := slug.Generate(name)
	if derived == "" {
		return nil, ErrSlugEmpty
	}

	var category db.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
		if taken, err := categoryNameTaken(tx, name, category.ID); err != nil {
			return err
		} else if taken {
			return ErrCategoryExists
		}
		if derived != category.Slug {
			resolved, err := slug.EnsureUnique(tx, &db.Category{}, derived, category.ID)
			if err != nil {
				return err
			}
			category.Slug = resolved
		}
		category.Name = name
		category.Description = strings.TrimSpace(input.Description)
		return tx.Save(&category).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}
	return &category, nil
}

// Delete removes a category; its articles stay, without a category.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category db.Category
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
		if err := tx.Model(&db.Article{}).
			Where("category_id = ?", id).
			UpdateColumn("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&category).Error
	})
}

func categoryNameTaken(tx *gorm.DB, name string, excludeID uint) (bool, error) {
	query := tx.Model(&db.Category{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
