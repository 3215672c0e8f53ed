package service

import (
	"context"
	"errors"

	"github.com/projektfire/internal/db"
	"gorm.io/gorm"
)

var ErrCommentNotFound = errors.New("comment not found")

// CommentService stores and moderates comments.
type CommentService struct {
	db   *gorm.DB
	gate *SpamGate
}

// CommentFilter describes filters for the moderation list.
type CommentFilter struct {
	Approved *bool
	Page     int
	PerPage  int
}

// CommentListResult aggregates paginated comments.
type CommentListResult struct {
	Comments   []db.Comment
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// NewCommentService creates a CommentService instance.
func NewCommentService(gdb *gorm.DB, gate *SpamGate) *CommentService {
	return &CommentService{db: gdb, gate: gate}
}

// Submit runs the spam gate and stores the comment. It returns (nil, nil)
// when the submission was silently discarded.
func (s *CommentService) Submit(ctx context.Context, sub CommentSubmission) (*db.Comment, error) {
	outcome := s.gate.Evaluate(ctx, &sub)
	switch outcome.Verdict {
	case VerdictDiscard:
		return nil, nil
	case VerdictReject:
		return nil, outcome.Err
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&db.Article{}).
		Where("id = ? AND status = ?", sub.ArticleID, db.ArticleStatusPublished).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrArticleNotFound
	}

	s.gate.Record(sub)

	comment := db.Comment{
		ArticleID:  sub.ArticleID,
		Nickname:   sub.Nickname,
		Content:    sub.Content,
		IsApproved: true,
		IPAddress:  sub.IPAddress,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListApproved returns an article's visible comments, oldest first.
func (s *CommentService) ListApproved(ctx context.Context, articleID uint) ([]db.Comment, error) {
	var comments []db.Comment
	if err := s.db.WithContext(ctx).
		Where("article_id = ? AND is_approved = ?", articleID, true).
		Order("created_at asc").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// List returns comments for moderation, newest first.
func (s *CommentService) List(ctx context.Context, filter CommentFilter) (*CommentListResult, error) {
	result := &CommentListResult{
		Page:    normalizePage(filter.Page),
		PerPage: normalizePerPage(filter.PerPage, 20),
	}

	query := s.db.WithContext(ctx).Model(&db.Comment{})
	if filter.Approved != nil {
		query = query.Where("is_approved = ?", *filter.Approved)
	}
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}
	result.TotalPages = calculateTotalPages(result.Total, result.PerPage)

	if err := query.
		Preload("Article").
		Order("created_at desc").
		Limit(result.PerPage).
		Offset((result.Page - 1) * result.PerPage).
		Find(&result.Comments).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the number of stored comments.
func (s *CommentService) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&db.Comment{}).Count(&count).Error
	return count, err
}

// ToggleApproval flips is_approved and returns the new value.
func (s *CommentService) ToggleApproval(ctx context.Context, id uint) (bool, error) {
	var approved bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment db.Comment
		if err := tx.First(&comment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}
		approved = !comment.IsApproved
		return tx.Model(&comment).Update("is_approved", approved).Error
	})
	return approved, err
}

// Delete removes a comment.
func (s *CommentService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Unscoped().Delete(&db.Comment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}
