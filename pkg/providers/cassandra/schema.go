package cassandra

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/doublecloud/mysql2cass/pkg/abstract/model"
	"github.com/doublecloud/mysql2cass/pkg/errors"
	"github.com/doublecloud/mysql2cass/pkg/errors/categories"
	"github.com/gocql/gocql"
)

// KeyColumn is the name of the row key column of every replicated table.
const KeyColumn = "key"

const (
	cqlText     = "text"
	cqlVarint   = "varint"
	cqlTimeUUID = "timeuuid"
)

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func qualifiedTable(keyspace, table string) string {
	return quoteIdentifier(keyspace) + "." + quoteIdentifier(table)
}

// ColumnType maps a declared value type to its native column type:
// string -> UTF8, int -> arbitrary precision integer, datetime -> time based UUID.
func ColumnType(vt model.ValueType) string {
	switch vt {
	case model.ValueTypeInt:
		return cqlVarint
	case model.ValueTypeDatetime:
		return cqlTimeUUID
	default:
		return cqlText
	}
}

func KeyType(kt model.KeysType) string {
	if kt == model.KeysTypeInt {
		return cqlVarint
	}
	return cqlText
}

// IndexName is global for the cluster, hence the keyspace and table prefix.
func IndexName(keyspace, table, column string) string {
	return fmt.Sprintf("%s__%s__%s__name", keyspace, table, column)
}

func BuildDropKeyspaceQuery(keyspace string) string {
	return fmt.Sprintf("DROP KEYSPACE IF EXISTS %s", quoteIdentifier(keyspace))
}

func BuildCreateKeyspaceQuery(keyspace string, replicationFactor int) string {
	return fmt.Sprintf(
		"CREATE KEYSPACE %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}",
		quoteIdentifier(keyspace), replicationFactor,
	)
}

func BuildCreateTableQuery(keysType model.KeysType, keyspace, table string, columns []model.ColumnSpec) string {
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, fmt.Sprintf("%s %s PRIMARY KEY", KeyColumn, KeyType(keysType)))
	for _, c := range columns {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdentifier(c.Name), ColumnType(c.Type)))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", qualifiedTable(keyspace, table), strings.Join(defs, ", "))
}

func BuildCreateIndexQuery(keyspace, table, column string) string {
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		IndexName(keyspace, table, column), qualifiedTable(keyspace, table), quoteIdentifier(column),
	)
}

func BuildInsertCellQuery(keyspace, table, column string) string {
	return fmt.Sprintf(
		"INSERT INTO %s (%s, %s) VALUES (?, ?)",
		qualifiedTable(keyspace, table), KeyColumn, quoteIdentifier(column),
	)
}

// RowKey encodes the same logical key either as an integer or as its plain decimal string.
func RowKey(keysType model.KeysType, key int64) interface{} {
	if keysType == model.KeysTypeInt {
		return key
	}
	return strconv.FormatInt(key, 10)
}

// TimeUUIDFromValue parses value with model.DatetimeLayout in loc and derives a
// time based UUID from that instant.
func TimeUUIDFromValue(value string, loc *time.Location) (gocql.UUID, error) {
	if loc == nil {
		loc = time.Local
	}
	ts, err := time.ParseInLocation(model.DatetimeLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return gocql.UUID{}, errors.CategorizedErrorf(categories.DataFormat, "value %q is not a datetime (%s): %w", value, model.DatetimeLayout, err)
	}
	return gocql.UUIDFromTime(ts), nil
}

// CellValue converts the source string to the native value for vt.
func CellValue(vt model.ValueType, value string, loc *time.Location) (interface{}, error) {
	switch vt {
	case model.ValueTypeInt:
		n, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
		if !ok {
			return nil, errors.CategorizedErrorf(categories.DataFormat, "value %q is not an integer", value)
		}
		return n, nil
	case model.ValueTypeDatetime:
		return TimeUUIDFromValue(value, loc)
	default:
		return value, nil
	}
}
