package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/bookwell-inc/bookwell/internal/shared/errors"
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// createError translates unique-key violations into conflict errors.
func createError(entity string, err error) error {
	if apperrors.IsDuplicateError(err) {
		return apperrors.NewConflictError(fmt.Sprintf("%s already exists", entity), err.Error())
	}
	return fmt.Errorf("failed to create %s: %w", entity, err)
}
