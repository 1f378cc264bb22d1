// internal/repository/repository.go
package repository

import (
	"errors"
	"fmt"

	"github.com/dangerclosesec/partnerhub/internal/domain"
	"gorm.io/gorm"
)

// DefaultPageSize is applied when a list query does not set a limit.
const DefaultPageSize = 50

// Page is a limit/offset window over a list query.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	q = q.Limit(limit)
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	return q
}

// translate maps store errors onto the domain taxonomy. notFound is
// returned for a missing row; unique violations become conflict.
func translate(err error, notFound error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s", domain.ErrConflict, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConflict(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, domain.ErrConflict)
}
