package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminUser is the single panel account.
type AdminUser struct {
	gorm.Model
	Username     string `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func (u *AdminUser) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// EnsureAdmin creates the admin account or resets its password so that the
// stored hash always matches the configured credentials. Blank credentials
// are ignored.
func EnsureAdmin(gdb *gorm.DB, username, password string) (bool, error) {
	trimmedUser := strings.TrimSpace(username)
	if trimmedUser == "" || password == "" {
		return false, nil
	}
	if gdb == nil {
		return false, errors.New("database not initialized")
	}

	var existing AdminUser
	err := gdb.Where("username = ?", trimmedUser).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if err == nil && existing.CheckPassword(password) {
		return false, nil
	}

	hashed, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if hashErr != nil {
		return false, hashErr
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, gdb.Create(&AdminUser{Username: trimmedUser, PasswordHash: string(hashed)}).Error
	}

	return true, gdb.Model(&existing).Update("password_hash", string(hashed)).Error
}
