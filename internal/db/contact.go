package db

import "gorm.io/gorm"

// ContactMessage 是联系表单提交的留言。
type ContactMessage struct {
	gorm.Model
	Name      string `gorm:"size:100;not null"`
	Email     string `gorm:"size:255;not null"`
	Subject   string `gorm:"size:300;not null"`
	Message   string `gorm:"type:text;not null"`
	IPAddress string `gorm:"size:45"`
	IsRead    bool   `gorm:"not null;default:false;index"`
}
