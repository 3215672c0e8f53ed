package service

import (
	"context"
	"errors"
	"strings"

	"github.com/projektfire/internal/db"
	"gorm.io/gorm"
)

var (
	ErrWordRequired = errors.New("blacklisted word is required")
	ErrWordExists   = errors.New("word is already blacklisted")
	ErrWordNotFound = errors.New("blacklisted word not found")
)

// BlacklistService manages the forbidden comment words.
type BlacklistService struct {
	db *gorm.DB
}

// NewBlacklistService creates a BlacklistService instance.
func NewBlacklistService(gdb *gorm.DB) *BlacklistService {
	return &BlacklistService{db: gdb}
}

// List returns all words alphabetically.
func (s *BlacklistService) List(ctx context.Context) ([]db.BlacklistedWord, error) {
	var words []db.BlacklistedWord
	if err := s.db.WithContext(ctx).Order("word asc").Find(&words).Error; err != nil {
		return nil, err
	}
	return words, nil
}

// Words returns the current word list. It is read on every call so edits in
// the panel take effect immediately.
func (s *BlacklistService) Words(ctx context.Context) ([]string, error) {
	var words []string
	if err := s.db.WithContext(ctx).Model(&db.BlacklistedWord{}).Pluck("word", &words).Error; err != nil {
		return nil, err
	}
	return words, nil
}

// Add stores a lowercase word.
func (s *BlacklistService) Add(ctx context.Context, word string) (*db.BlacklistedWord, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return nil, ErrWordRequired
	}

	entry := db.BlacklistedWord{Word: word}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrWordExists
		}
		return nil, err
	}
	return &entry, nil
}

// Delete removes a word.
func (s *BlacklistService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Unscoped().Delete(&db.BlacklistedWord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWordNotFound
	}
	return nil
}

// matchBlacklisted returns the first word contained in text, ignoring case.
func matchBlacklisted(text string, words []string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, word := range words {
		if word != "" && strings.Contains(lowered, strings.ToLower(word)) {
			return word, true
		}
	}
	return "", false
}
