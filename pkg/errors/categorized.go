package errors

import (
	"github.com/doublecloud/mysql2cass/pkg/errors/categories"
	"golang.org/x/xerrors"
)

// Categorized is an error with an attached category
type Categorized interface {
	error
	xerrors.Wrapper

	Category() categories.Category
}

type categorizedImpl struct {
	error
	category categories.Category
}

// CategorizedErrorf produces a xerrors-wrapped error with a given assigned category.
// The innermost category wins: wrapping an already categorized error keeps its category.
func CategorizedErrorf(category categories.Category, format string, a ...any) error {
	errorf := xerrors.Errorf(format, a...)
	var categorized Categorized = nil
	if xerrors.As(errorf, &categorized) {
		return xerrors.Errorf(format, a...) // do not return `errorf` in order to comply with the descriptive errors linter
	}
	return &categorizedImpl{
		error:    errorf,
		category: category,
	}
}

func (i *categorizedImpl) Unwrap() error {
	return i.error
}

func (i *categorizedImpl) Category() categories.Category {
	return i.category
}

// ToCategorized returns the outermost categorized error in the chain, if any.
func ToCategorized(err error) Categorized {
	var categorized Categorized
	if xerrors.As(err, &categorized) {
		return categorized
	}
	return nil
}

// CategoryOf returns the category of err, or categories.Internal for uncategorized errors.
func CategoryOf(err error) categories.Category {
	if c := ToCategorized(err); c != nil {
		return c.Category()
	}
	return categories.Internal
}

func IsCategory(err error, category categories.Category) bool {
	return err != nil && CategoryOf(err) == category
}

func IsDataFormat(err error) bool {
	return IsCategory(err, categories.DataFormat)
}

// IsRetriable reports whether the replication loop must retry err. Query errors are
// retried as well, the same way connectivity errors are.
func IsRetriable(err error) bool {
	return err != nil && !IsDataFormat(err)
}
