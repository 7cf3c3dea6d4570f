package mysql

import (
	"github.com/doublecloud/mysql2cass/pkg/errors"
	"github.com/doublecloud/mysql2cass/pkg/errors/categories"
	"github.com/go-sql-driver/mysql"
	"golang.org/x/xerrors"
)

const (
	errCodeDBAccessDenied     = 1044
	errCodeAccessDenied       = 1045
	errCodeTooManyConnections = 1040
)

func IsErrorCode(err error, errNumber uint16) bool {
	var mysqlErr *mysql.MySQLError
	if !xerrors.As(err, &mysqlErr) {
		return false
	}
	return mysqlErr.Number == errNumber
}

// ClassifyError wraps a driver error with its category. Server-side rejections of a
// statement are query errors, everything that prevents talking to the server is connectivity.
func ClassifyError(err error, format string, a ...any) error {
	args := append(a, err)
	if categoryOf(err) == categories.Query {
		return errors.CategorizedErrorf(categories.Query, format+": %w", args...)
	}
	return errors.CategorizedErrorf(categories.Connectivity, format+": %w", args...)
}

func categoryOf(err error) categories.Category {
	if IsErrorCode(err, errCodeAccessDenied) || IsErrorCode(err, errCodeDBAccessDenied) || IsErrorCode(err, errCodeTooManyConnections) {
		return categories.Connectivity
	}
	var mysqlErr *mysql.MySQLError
	if xerrors.As(err, &mysqlErr) {
		return categories.Query
	}
	// bad connections, timeouts, dns failures and the like
	return categories.Connectivity
}
