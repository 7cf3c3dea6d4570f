package errors

import (
	"testing"

	"github.com/doublecloud/mysql2cass/pkg/errors/categories"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestCategorizedErrorf(t *testing.T) {
	base := xerrors.New("connection refused")
	err := CategorizedErrorf(categories.Connectivity, "unable to connect: %w", base)
	require.Error(t, err)
	require.True(t, xerrors.Is(err, base))
	require.Equal(t, categories.Connectivity, CategoryOf(err))
	require.Contains(t, err.Error(), "connection refused")
}

func TestInnermostCategoryWins(t *testing.T) {
	inner := CategorizedErrorf(categories.DataFormat, "bad datetime %q", "2012-13-45")
	outer := CategorizedErrorf(categories.Connectivity, "write cell: %w", inner)
	require.Equal(t, categories.DataFormat, CategoryOf(outer))
	require.True(t, IsDataFormat(xerrors.Errorf("wrapped: %w", outer)))
	require.False(t, IsRetriable(outer))
}

func TestUncategorizedIsInternal(t *testing.T) {
	err := xerrors.New("boom")
	require.Nil(t, ToCategorized(err))
	require.Equal(t, categories.Internal, CategoryOf(err))
	require.True(t, IsRetriable(err))
	require.False(t, IsRetriable(nil))
	require.False(t, IsCategory(nil, categories.Internal))
}

func TestQueryErrorsAreRetriable(t *testing.T) {
	err := CategorizedErrorf(categories.Query, "bad statement")
	require.True(t, IsCategory(err, categories.Query))
	require.True(t, IsRetriable(err))
}
