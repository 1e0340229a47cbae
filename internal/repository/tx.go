package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNoRowsAffected is returned by conditional updates whose WHERE guard
// matched nothing (e.g. not enough stock left).
var ErrNoRowsAffected = errors.New("repository: conditional update matched no rows")

// Transactor opens request-scoped transactions. The tx handle is passed
// explicitly to every *Tx repository method; there is no ambient transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTransactor struct{ db *gorm.DB }

func NewTransactor(db *gorm.DB) Transactor { return &gormTransactor{db: db} }

// WithinTx commits when fn returns nil and rolls back otherwise.
func (t *gormTransactor) WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

// IsNotFound reports whether err is GORM's record-not-found error.
func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

// IsDuplicateKey reports whether err is a unique-constraint violation.
// Requires gorm.Config.TranslateError.
func IsDuplicateKey(err error) bool { return errors.Is(err, gorm.ErrDuplicatedKey) }

func normalizePage(page, limit, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > max {
		limit = def
	}
	return page, limit
}
