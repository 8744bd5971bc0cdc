package postgres

import (
	"brigade/internal/core/apperror"
	"brigade/internal/core/id"
)

// notFound converts a missing row into the domain NOT_FOUND error.
func notFound(entity string, entityID id.ID) error {
	return apperror.NewNotFound(entity, entityID.String())
}

// nullIfEmpty maps "" to NULL for nullable text columns.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
