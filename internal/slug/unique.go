package slug

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrEmpty is returned when there is nothing to make unique.
var ErrEmpty = errors.New("slug is empty")

// EnsureUnique returns candidate, or the first of candidate-2, candidate-3, ...
// that no other row of model's table uses. Soft-deleted rows count as taken.
// excludeID skips the row being updated; pass 0 on create.
func EnsureUnique(tx *gorm.DB, model interface{}, candidate string, excludeID uint) (string, error) {
	if candidate == "" {
		return "", ErrEmpty
	}

	slug := candidate
	for n := 2; ; n++ {
		taken, err := exists(tx, model, slug, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", candidate, n)
	}
}

func exists(tx *gorm.DB, model interface{}, slug string, excludeID uint) (bool, error) {
	query := tx.Unscoped().Model(model).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("probe slug %q: %w", slug, err)
	}
	return count > 0, nil
}
