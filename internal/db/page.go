package db

import "gorm.io/gorm"

// StaticPage represents a standalone content page such as "o-mnie".
type StaticPage struct {
	gorm.Model
	Slug            string `gorm:"size:200;uniqueIndex;not null"`
	Title           string `gorm:"size:300;not null"`
	ContentMD       string `gorm:"type:text;not null"`
	ContentHTML     string `gorm:"type:text;not null"`
	MetaTitle       string `gorm:"size:200"`
	MetaDescription string `gorm:"size:300"`
}
