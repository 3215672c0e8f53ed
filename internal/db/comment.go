package db

import "gorm.io/gorm"

// Comment 属于一篇文章，默认直接通过审核。
type Comment struct {
	gorm.Model
	ArticleID  uint   `gorm:"index;not null"`
	Article    *Article
	Nickname   string `gorm:"size:100;not null"`
	Content    string `gorm:"type:text;not null"`
	IsApproved bool   `gorm:"not null;default:true"`
	IPAddress  string `gorm:"size:45"`
}

// BlacklistedWord 是小写的屏蔽子串。
type BlacklistedWord struct {
	gorm.Model
	Word string `gorm:"size:200;uniqueIndex;not null"`
}
