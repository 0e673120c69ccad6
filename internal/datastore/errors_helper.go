package datastore

import (
	"github.com/ecosante/ecosante-go/internal/errors"
)

// dbError wraps a database error with component and category metadata.
func dbError(err error, operation string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}
