package mysql

import (
	"fmt"
	"strings"

	"github.com/doublecloud/mysql2cass/pkg/abstract/model"
	"github.com/doublecloud/mysql2cass/pkg/util/set"
)

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func BuildTruncateQuery(table string) string {
	return fmt.Sprintf("TRUNCATE TABLE %s", quoteIdentifier(table))
}

// selectColumns returns the key column followed by the mapped columns, without duplicates.
func selectColumns(keyColumn string, columns []model.ColumnSpec) []string {
	res := make([]string, 0, len(columns)+1)
	seen := set.New(keyColumn)
	res = append(res, keyColumn)
	for _, c := range columns {
		if seen.AddNew(c.Name) {
			res = append(res, c.Name)
		}
	}
	return res
}

// BuildReadBatchQuery selects rows above the cursor. Arguments are the cursor and the limit.
// No ORDER BY: rows are sorted by the reader.
func BuildReadBatchQuery(table, keyColumn string, columns []model.ColumnSpec) string {
	cols := selectColumns(keyColumn, columns)
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdentifier(c)
	}
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s.%s > ? LIMIT ?",
		strings.Join(quoted, ", "),
		quoteIdentifier(table),
		quoteIdentifier(table),
		quoteIdentifier(keyColumn),
	)
}
