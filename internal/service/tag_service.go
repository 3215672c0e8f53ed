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
	ErrTagExists       = errors.New("tag already exists")
	ErrTagNotFound     = errors.New("tag not found")
	ErrTagNameRequired = errors.New("tag name is required")
)

// TagService wraps tag related operations.
type TagService struct {
	db *gorm.DB
}

// NewTagService creates a TagService instance.
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb}
}

// List returns tags by name with the number of articles using each.
func (s *TagService) List(ctx context.Context) ([]db.Tag, error) {
	var tags []db.Tag
	if err := s.db.WithContext(ctx).
		Model(&db.Tag{}).
		Select("tags.*, COUNT(article_tags.article_id) AS article_count").
		Joins("LEFT JOIN article_tags ON article_tags.tag_id = tags.id").
		Group("tags.id").
		Order("tags.name asc").
		Order("tags.id asc").
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// GetBySlug fetches a tag by slug.
func (s *TagService) GetBySlug(ctx context.Context, tagSlug string) (*db.Tag, error) {
	var tag db.Tag
	if err := s.db.WithContext(ctx).Where("slug = ?", tagSlug).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// Create inserts a new tag with a unique name and slug.
func (s *TagService) Create(ctx context.Context, name string) (*db.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTagNameRequired
	}
	base := slug.Generate(name)
	if base == "" {
		return nil, ErrSlugEmpty
	}

	var tag db.Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := tagNameTaken(tx, name, 0); err != nil {
			return err
		} else if taken {
			return ErrTagExists
		}

		resolved, err := slug.EnsureUnique(tx, &db.Tag{}, base, 0)
		if err != nil {
			return err
		}
		tag = db.Tag{Name: name, Slug: resolved}
		return tx.Create(&tag).Error
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// Update renames a tag; the slug follows the new name.
func (s *TagService) Update(ctx context.Context, id uint, name string) (*db.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTagNameRequired
	}
	derived := slug.Generate(name)
	if derived == "" {
		return nil, ErrSlugEmpty
	}

	var tag db.Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tag, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTagNotFound
			}
			return err
		}
		if taken, err := tagNameTaken(tx, name, id); err != nil {
			return err
		} else if taken {
			return ErrTagExists
		}

		if derived != tag.Slug {
			resolved, err := slug.EnsureUnique(tx, &db.Tag{}, derived, tag.ID)
			if err != nil {
				return err
			}
			tag.Slug = resolved
		}
		tag.Name = name
		return tx.Save(&tag).Error
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// Delete removes a tag and its article links.
func (s *TagService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag db.Tag
		if err := tx.First(&tag, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTagNotFound
			}
			return err
		}
		if err := tx.Model(&tag).Association("Articles").Clear(); err != nil {
			return err
		}
		return tx.Unscoped().Delete(&tag).Error
	})
}

func tagNameTaken(tx *gorm.DB, name string, excludeID uint) (bool, error) {
	query := tx.Model(&db.Tag{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
