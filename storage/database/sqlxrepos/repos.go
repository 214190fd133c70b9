// Package sqlxrepos implements the domain repositories on PostgreSQL via
// sqlx. Every method takes an optional core.DBExecutor override so services
// can compose calls inside one transaction.
package sqlxrepos

import (
	"database/sql"

	"github.com/pkg/errors"
)

// trapNoRowsErrAs maps psql "no rows" err to the domain's not-found error.
func trapNoRowsErrAs(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}
