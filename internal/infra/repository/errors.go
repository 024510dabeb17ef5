package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
)

// notFound maps gorm's miss to the domain error the use cases check for.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrNotFound
	}
	return err
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || httperr.IsUniqueViolation(err)
}

// forUpdate adds SELECT ... FOR UPDATE where the dialect has row locks.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() != "postgres" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
