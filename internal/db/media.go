package db

import "gorm.io/gorm"

// Media 记录一次上传的文件。删除记录时必须同时删除存储中的文件。
type Media struct {
	gorm.Model
	Filename     string `gorm:"size:255;uniqueIndex;not null"`
	OriginalName string `gorm:"size:255;not null"`
	StorageKey   string `gorm:"size:500;not null"`
	URL          string `gorm:"size:500;not null"`
	FileSize     int64  `gorm:"not null"`
	MimeType     string `gorm:"size:100;not null"`
	Width        int
	Height       int
	AltText      string `gorm:"size:300"`
}
