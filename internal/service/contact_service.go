package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/projektfire/internal/db"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrContactFieldsMissing = errors.New("all contact fields are required")
	ErrContactFieldTooLong  = errors.New("contact field is too long")
	ErrContactEmailInvalid  = errors.New("contact email is invalid")
	ErrMessageNotFound      = errors.New("contact message not found")
)

var contactValidate = validator.New()

// ContactService stores messages from the contact form.
type ContactService struct {
	db  *gorm.DB
	log zerolog.Logger
}

// ContactInput is a contact form submission.
type ContactInput struct {
	Name      string
	Email     string
	Subject   string
	Message   string
	Honeypot  string
	IPAddress string
}

// NewContactService creates a ContactService instance.
func NewContactService(gdb *gorm.DB, log zerolog.Logger) *ContactService {
	return &ContactService{db: gdb, log: log}
}

// Submit validates and stores a message. A filled honeypot returns
// (nil, nil) so bots see the same success page as people.
func (s *ContactService) Submit(ctx context.Context, input ContactInput) (*db.ContactMessage, error) {
	if input.Honeypot != "" {
		s.log.Info().Str("ip", input.IPAddress).Msg("contact honeypot triggered")
		return nil, nil
	}

	msg := db.ContactMessage{
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Subject:   strings.TrimSpace(input.Subject),
		Message:   strings.TrimSpace(input.Message),
		IPAddress: input.IPAddress,
	}
	if msg.Name == "" || msg.Email == "" || msg.Subject == "" || msg.Message == "" {
		return nil, ErrContactFieldsMissing
	}
	if utf8.RuneCountInString(msg.Name) > 100 || utf8.RuneCountInString(msg.Email) > 255 ||
		utf8.RuneCountInString(msg.Subject) > 300 || utf8.RuneCountInString(msg.Message) > 5000 {
		return nil, ErrContactFieldTooLong
	}
	if err := contactValidate.Var(msg.Email, "email"); err != nil {
		return nil, ErrContactEmailInvalid
	}

	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	s.log.Info().
		Uint("id", msg.ID).
		Str("email", msg.Email).
		Str("subject", msg.Subject).
		Msg("contact message received")
	return &msg, nil
}

// List returns messages, unread first and newest first within each group.
func (s *ContactService) List(ctx context.Context) ([]db.ContactMessage, error) {
	var messages []db.ContactMessage
	if err := s.db.WithContext(ctx).Order("is_read asc").Order("created_at desc").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// UnreadCount returns the number of unread messages.
func (s *ContactService) UnreadCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&db.ContactMessage{}).Where("is_read = ?", false).Count(&count).Error
	return count, err
}

// MarkRead flags a message as read.
func (s *ContactService) MarkRead(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&db.ContactMessage{}).Where("id = ?", id).Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Delete removes a message.
func (s *ContactService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Unscoped().Delete(&db.ContactMessage{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}
