// Package postgres holds what the bun repositories share.
package postgres

import (
	"attendance/workforce/internal/entity"

	"github.com/pkg/errors"
	"github.com/uptrace/bun/driver/pgdriver"
)

var ErrNotFound = entity.ErrNotFound

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a postgres unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == uniqueViolation
	}
	return false
}
