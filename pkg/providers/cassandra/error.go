package cassandra

import (
	"github.com/doublecloud/mysql2cass/pkg/errors"
	"github.com/doublecloud/mysql2cass/pkg/errors/categories"
	"github.com/gocql/gocql"
	"golang.org/x/xerrors"
)

func isAlreadyExists(err error) bool {
	var exists *gocql.RequestErrAlreadyExists
	return xerrors.As(err, &exists)
}

// ClassifyError wraps a CQL error with its category. Rejected statements are query errors;
// timeouts, unavailable replicas, missing hosts and credential failures are connectivity.
func ClassifyError(err error, format string, a ...any) error {
	args := append(a, err)
	var reqErr gocql.RequestError
	if xerrors.As(err, &reqErr) {
		switch reqErr.Code() {
		case gocql.ErrCodeSyntax, gocql.ErrCodeInvalid, gocql.ErrCodeUnauthorized, gocql.ErrCodeConfig, gocql.ErrCodeAlreadyExists:
			return errors.CategorizedErrorf(categories.Query, format+": %w", args...)
		}
	}
	return errors.CategorizedErrorf(categories.Connectivity, format+": %w", args...)
}
