package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projektfire/internal/db"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"
	"gorm.io/gorm"
)

var (
	ErrMediaNotFound       = errors.New("media not found")
	ErrMediaFileMissing    = errors.New("media file is required")
	ErrMediaTooLarge       = errors.New("media file exceeds 5 MB")
	ErrMediaTypeNotAllowed = errors.New("media type is not allowed")
)

// MaxMediaSize is the upload limit in bytes.
const MaxMediaSize = 5 << 20

var allowedMediaTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// MediaService handles uploads and the media library.
type MediaService struct {
	db    *gorm.DB
	store MediaStore
	log   zerolog.Logger
}

// MediaFilter describes filters for listing media.
type MediaFilter struct {
	Search  string
	Page    int
	PerPage int
}

// MediaListResult aggregates paginated media results.
type MediaListResult struct {
	Items      []db.Media
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// UploadInput is a file received from the panel.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	AltText     string
}

// NewMediaService creates a MediaService instance.
func NewMediaService(gdb *gorm.DB, store MediaStore, log zerolog.Logger) *MediaService {
	return &MediaService{db: gdb, store: store, log: log}
}

// List returns media newest first.
func (s *MediaService) List(ctx context.Context, filter MediaFilter) (MediaListResult, error) {
	result := MediaListResult{
		Page:    normalizePage(filter.Page),
		PerPage: normalizePerPage(filter.PerPage, 24),
	}

	query := s.db.WithContext(ctx).Model(&db.Media{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where("LOWER(original_name) LIKE ? ESCAPE '\\' OR LOWER(alt_text) LIKE ? ESCAPE '\\'", like, like)
	}
	if err := query.Count(&result.Total).Error; err != nil {
		return result, err
	}
	result.TotalPages = calculateTotalPages(result.Total, result.PerPage)

	if err := query.Order("created_at desc").
		Limit(result.PerPage).
		Offset((result.Page - 1) * result.PerPage).
		Find(&result.Items).Error; err != nil {
		return result, err
	}
	return result, nil
}

// Get fetches a media record by id.
func (s *MediaService) Get(ctx context.Context, id uint) (*db.Media, error) {
	var item db.Media
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	return &item, nil
}

// Upload validates the file, stores it and records it. Raster images get
// their dimensions decoded.
func (s *MediaService) Upload(ctx context.Context, input UploadInput) (*db.Media, error) {
	if input.Body == nil {
		return nil, ErrMediaFileMissing
	}
	if input.Size > MaxMediaSize {
		return nil, ErrMediaTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(input.Body, MaxMediaSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrMediaFileMissing
	}
	if len(data) > MaxMediaSize {
		return nil, ErrMediaTooLarge
	}

	contentType := detectMediaType(data, input.ContentType, input.Filename)
	ext, ok := allowedMediaTypes[contentType]
	if !ok {
		return nil, ErrMediaTypeNotAllowed
	}
	filename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), strings.ReplaceAll(uuid.New().String(), "-", ""), ext)

	width, height := 0, 0
	if contentType != "image/svg+xml" {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			width, height = cfg.Width, cfg.Height
		} else {
			s.log.Warn().Err(err).Str("file", input.Filename).Msg("could not read image dimensions")
		}
	}

	url, err := s.store.Save(ctx, filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("store media: %w", err)
	}

	item := db.Media{
		Filename:     filename,
		OriginalName: filepath.Base(strings.TrimSpace(input.Filename)),
		StorageKey:   filename,
		URL:          url,
		FileSize:     int64(len(data)),
		MimeType:     contentType,
		Width:        width,
		Height:       height,
		AltText:      strings.TrimSpace(input.AltText),
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		if delErr := s.store.Delete(ctx, filename); delErr != nil {
			s.log.Error().Err(delErr).Str("key", filename).Msg("orphaned media file")
		}
		return nil, err
	}

	s.log.Info().Str("file", filename).Int64("size", item.FileSize).Msg("media uploaded")
	return &item, nil
}

// detectMediaType sniffs the upload. SVG has no magic bytes, so the declared
// type or extension is trusted only when the body is text holding an <svg> root.
func detectMediaType(data []byte, declared, filename string) string {
	sniffed := strings.SplitN(http.DetectContentType(data), ";", 2)[0]
	if _, ok := allowedMediaTypes[sniffed]; ok {
		return sniffed
	}

	declared = strings.ToLower(strings.TrimSpace(strings.SplitN(declared, ";", 2)[0]))
	svgClaimed := declared == "image/svg+xml" || strings.EqualFold(filepath.Ext(filename), ".svg")
	if svgClaimed && strings.HasPrefix(sniffed, "text/") && bytes.Contains(bytes.ToLower(data), []byte("<svg")) {
		return "image/svg+xml"
	}
	return sniffed
}

// Delete removes the record and its stored file. The record stays when the
// file cannot be removed.
func (s *MediaService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item db.Media
		if err := tx.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMediaNotFound
			}
			return err
		}
		if err := tx.Unscoped().Delete(&item).Error; err != nil {
			return err
		}
		return s.store.Delete(ctx, item.StorageKey)
	})
}
