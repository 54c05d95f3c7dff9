// Package relation holds the shared add/remove logic for the pair tables
// (follow, favorite, shopping cart). The three kinds differ only in their
// row type and failure messages, captured by a Descriptor.
package relation

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Descriptor struct {
	Kind        string
	ErrConflict error
	ErrMissing  error
}

// Add inserts the pair row. A storage-level uniqueness violation means the
// relation already exists and is reported as the descriptor's conflict error,
// never as a silent success.
func Add(ctx context.Context, db *gorm.DB, d Descriptor, row any) error {
	if err := db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return d.ErrConflict
		}
		return err
	}
	return nil
}

// Remove deletes the row matching cond. cond must carry the actor's own id so
// a user can only ever remove their own relation rows. Zero rows affected is
// the descriptor's missing error.
func Remove[T any](ctx context.Context, db *gorm.DB, d Descriptor, cond map[string]any) error {
	res := db.WithContext(ctx).Where(cond).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return d.ErrMissing
	}
	return nil
}
