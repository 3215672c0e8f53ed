package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ArticleStatus is the persisted discriminator of ArticleState.
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
	ArticleStatusScheduled ArticleStatus = "scheduled"
)

// ErrInvalidArticleState is returned when the status column disagrees with
// the schedule/publication columns.
var ErrInvalidArticleState = errors.New("article status does not match its timestamps")

// ArticleState is one of Draft, Published or Scheduled.
type ArticleState interface {
	Status() ArticleStatus
	isArticleState()
}

// Draft is an unpublished article.
type Draft struct{}

// Published is a visible article. A zero At keeps an existing publication time.
type Published struct {
	At time.Time
}

// Scheduled becomes Published once At has passed.
type Scheduled struct {
	At time.Time
}

func (Draft) Status() ArticleStatus     { return ArticleStatusDraft }
func (Published) Status() ArticleStatus { return ArticleStatusPublished }
func (Scheduled) Status() ArticleStatus { return ArticleStatusScheduled }

func (Draft) isArticleState()     {}
func (Published) isArticleState() {}
func (Scheduled) isArticleState() {}

// Article is a blog post.
type Article struct {
	gorm.Model
	Title              string        `gorm:"size:300;not null"`
	Slug               string        `gorm:"size:350;uniqueIndex;not null"`
	ContentMD          string        `gorm:"type:text;not null"`
	ContentHTML        string        `gorm:"type:text;not null"`
	Excerpt            string        `gorm:"size:500"`
	FeaturedImage      string        `gorm:"size:500"`
	MetaTitle          string        `gorm:"size:200"`
	MetaDescription    string        `gorm:"size:300"`
	Status             ArticleStatus `gorm:"size:20;not null;default:draft;index"`
	ScheduledPublishAt *time.Time    `gorm:"index"`
	PublishedAt        *time.Time    `gorm:"index"`
	CategoryID         *uint         `gorm:"index"`
	Category           *Category
	Tags               []Tag     `gorm:"many2many:article_tags;"`
	Comments           []Comment `gorm:"constraint:OnDelete:CASCADE;"`
}

// State decodes the status columns into an ArticleState.
func (a *Article) State() ArticleState {
	switch a.Status {
	case ArticleStatusPublished:
		if a.PublishedAt != nil {
			return Published{At: *a.PublishedAt}
		}
		return Published{}
	case ArticleStatusScheduled:
		if a.ScheduledPublishAt != nil {
			return Scheduled{At: *a.ScheduledPublishAt}
		}
		return Scheduled{}
	default:
		return Draft{}
	}
}

// ApplyState writes state into the status columns. published_at is never
// cleared once set.
func (a *Article) ApplyState(state ArticleState, now time.Time) {
	switch s := state.(type) {
	case Published:
		a.Status = ArticleStatusPublished
		a.ScheduledPublishAt = nil
		switch {
		case !s.At.IsZero():
			at := s.At.UTC()
			a.PublishedAt = &at
		case a.PublishedAt == nil:
			at := now.UTC()
			a.PublishedAt = &at
		}
	case Scheduled:
		a.Status = ArticleStatusScheduled
		at := s.At.UTC()
		a.ScheduledPublishAt = &at
	default:
		a.Status = ArticleStatusDraft
		a.ScheduledPublishAt = nil
	}
}

// IsPublished reports whether the article is publicly visible.
func (a *Article) IsPublished() bool {
	return a.Status == ArticleStatusPublished
}

// LastModified is the most recent of updated, published and created times.
func (a *Article) LastModified() time.Time {
	latest := a.CreatedAt
	if a.PublishedAt != nil && a.PublishedAt.After(latest) {
		latest = *a.PublishedAt
	}
	if a.UpdatedAt.After(latest) {
		latest = a.UpdatedAt
	}
	return latest
}

// ValidateState checks the status/timestamp invariant.
func (a *Article) ValidateState() error {
	switch a.Status {
	case ArticleStatusDraft, "":
		if a.ScheduledPublishAt != nil {
			return fmt.Errorf("%w: draft with schedule", ErrInvalidArticleState)
		}
	case ArticleStatusPublished:
		if a.ScheduledPublishAt != nil {
			return fmt.Errorf("%w: published with schedule", ErrInvalidArticleState)
		}
		if a.PublishedAt == nil {
			return fmt.Errorf("%w: published without publication time", ErrInvalidArticleState)
		}
	case ArticleStatusScheduled:
		if a.ScheduledPublishAt == nil {
			return fmt.Errorf("%w: scheduled without publish time", ErrInvalidArticleState)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidArticleState, a.Status)
	}
	return nil
}

// BeforeSave rejects rows that violate the state invariant.
func (a *Article) BeforeSave(*gorm.DB) error {
	return a.ValidateState()
}
