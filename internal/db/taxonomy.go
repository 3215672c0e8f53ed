package db

import "gorm.io/gorm"

// Category groups articles; an article has at most one.
type Category struct {
	gorm.Model
	Name         string    `gorm:"size:100;not null"`
	Slug         string    `gorm:"size:120;uniqueIndex;not null"`
	Description  string    `gorm:"type:text"`
	Articles     []Article `gorm:"constraint:OnDelete:SET NULL;"`
	ArticleCount int64     `gorm:"->;-:migration"`
}

// Tag labels articles.
type Tag struct {
	gorm.Model
	Name         string    `gorm:"size:100;not null"`
	Slug         string    `gorm:"size:120;uniqueIndex;not null"`
	Articles     []Article `gorm:"many2many:article_tags;"`
	ArticleCount int64     `gorm:"->;-:migration"`
}
