package mysql

import (
	"database/sql/driver"
	"testing"

	"github.com/doublecloud/mysql2cass/pkg/errors"
	"github.com/doublecloud/mysql2cass/pkg/errors/categories"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestIsErrorCode(t *testing.T) {
	correctErr := &mysql.MySQLError{Number: 1}
	require.False(t, IsErrorCode(xerrors.New("irrelevant"), 0), "irrelevant errors")
	require.False(t, IsErrorCode(&mysql.MySQLError{Number: 0}, 1), "different code errors")
	require.True(t, IsErrorCode(correctErr, 1), "equal code errors")
	require.True(t, IsErrorCode(xerrors.Errorf("oh: %w", correctErr), 1), "wrapped equal code errors")
}

func TestClassifyError(t *testing.T) {
	syntax := ClassifyError(&mysql.MySQLError{Number: 1064, Message: "syntax"}, "unable to read %s", "t")
	require.True(t, errors.IsCategory(syntax, categories.Query))
	require.Contains(t, syntax.Error(), "unable to read t")

	denied := ClassifyError(&mysql.MySQLError{Number: errCodeAccessDenied}, "unable to connect")
	require.True(t, errors.IsCategory(denied, categories.Connectivity))

	badConn := ClassifyError(xerrors.Errorf("ping: %w", driver.ErrBadConn), "unable to connect")
	require.True(t, errors.IsCategory(badConn, categories.Connectivity))
	require.True(t, xerrors.Is(badConn, driver.ErrBadConn))
}
