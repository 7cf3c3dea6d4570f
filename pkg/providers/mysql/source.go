package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/doublecloud/mysql2cass/pkg/abstract/model"
	"github.com/doublecloud/mysql2cass/pkg/errors"
	"github.com/doublecloud/mysql2cass/pkg/errors/categories"
	mysql_driver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.ytsaurus.tech/library/go/core/log"
	"golang.org/x/xerrors"
)

const driverName = "mysql"

type openFunc func(params *ConnectionParams) (*sql.DB, error)

func openDB(params *ConnectionParams) (*sql.DB, error) {
	connector, err := mysql_driver.NewConnector(params.DriverConfig())
	if err != nil {
		return nil, xerrors.Errorf("unable to init connector to source storage: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// Reader is a single-session view of a source table. A worker connects, reads and
// closes once per poll cycle; nothing is pooled across cycles.
type Reader struct {
	logger log.Logger
	open   openFunc

	db       *sqlx.DB
	location *time.Location
}

func NewReader(lgr log.Logger) *Reader {
	return &Reader{
		logger:   lgr,
		open:     openDB,
		db:       nil,
		location: time.Local,
	}
}

func (r *Reader) Connect(ctx context.Context, params *ConnectionParams) error {
	if r.db != nil {
		if err := r.Close(); err != nil {
			r.logger.Warn("Unable to close previous source session", log.Error(err))
		}
	}
	db, err := r.open(params)
	if err != nil {
		return errors.CategorizedErrorf(categories.Connectivity, "unable to open mysql %s: %w", params.Addr(), err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			r.logger.Warn("Unable to close source db after failed ping", log.Error(cerr))
		}
		return ClassifyError(err, "unable to connect to mysql %s/%s", params.Addr(), params.Database)
	}
	r.db = sqlx.NewDb(db, driverName)
	if params.Location != nil {
		r.location = params.Location
	}
	r.logger.Debug("Connected to mysql", log.String("addr", params.Addr()), log.String("db", params.Database))
	return nil
}

func (r *Reader) Truncate(ctx context.Context, table string) error {
	if r.db == nil {
		return errors.CategorizedErrorf(categories.Connectivity, "truncate %s: source is not connected", table)
	}
	query := BuildTruncateQuery(table)
	r.logger.Info("Truncating table", log.String("table", table))
	r.logger.Debug(query)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return ClassifyError(err, "unable to truncate table %s", table)
	}
	return nil
}

// ReadBatch returns at most batchSize rows whose key is above cursor, in ascending key order.
// The cursor itself is not tracked here.
func (r *Reader) ReadBatch(ctx context.Context, table, keyColumn string, cursor int64, batchSize int, columns []model.ColumnSpec) (model.RowBatch, error) {
	if r.db == nil {
		return nil, errors.CategorizedErrorf(categories.Connectivity, "read %s: source is not connected", table)
	}
	query := BuildReadBatchQuery(table, keyColumn, columns)
	r.logger.Debug(query, log.Int64("cursor", cursor), log.Int("limit", batchSize))

	rows, err := r.db.QueryxContext(ctx, query, cursor, batchSize)
	if err != nil {
		return nil, ClassifyError(err, "unable to select from %s", table)
	}
	defer rows.Close()

	batch := make(model.RowBatch, 0, batchSize)
	invalidKeys := 0
	for rows.Next() {
		values := map[string]interface{}{}
		if err := rows.MapScan(values); err != nil {
			return nil, ClassifyError(err, "unable to scan row of %s", table)
		}
		rawKey, _ := r.cellValue(values[keyColumn])
		key, err := strconv.ParseInt(rawKey, 10, 64)
		if err != nil {
			invalidKeys++
			r.logger.Error("Skipping row whose key is not a 64-bit integer", log.String("table", table), log.String("key_column", keyColumn),
				log.Any("key", values[keyColumn]), log.Int64("cursor", cursor))
			continue
		}
		if key <= cursor {
			r.logger.Warn("Skipping row at or below cursor", log.String("table", table), log.Int64("key", key), log.Int64("cursor", cursor))
			continue
		}
		row := model.Row{Key: key, Cells: make([]model.Cell, 0, len(columns))}
		for _, col := range columns {
			if value, ok := r.cellValue(values[col.Name]); ok {
				row.Cells = append(row.Cells, model.Cell{Column: col.Name, Value: value})
			}
		}
		batch = append(batch, row)
	}
	if err := rows.Err(); err != nil {
		return nil, ClassifyError(err, "unable to iterate rows of %s", table)
	}

	// the cursor cannot pass rows it cannot parse, so such a batch would be read again forever
	if len(batch) == 0 && invalidKeys > 0 {
		return nil, errors.CategorizedErrorf(categories.Query,
			"all %d rows of %s above cursor %d have a %s that is not a 64-bit integer", invalidKeys, table, cursor, keyColumn)
	}

	sort.SliceStable(batch, func(i, j int) bool { return batch[i].Key < batch[j].Key })
	return batch, nil
}

// cellValue renders a scanned value as a string; NULL and empty values are absent.
func (r *Reader) cellValue(v interface{}) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case []byte:
		s = string(t)
	case string:
		s = t
	case time.Time:
		s = t.In(r.location).Format(model.DatetimeLayout)
	default:
		s = fmt.Sprint(t)
	}
	return s, len(s) > 0
}

// Close is idempotent and safe after a failed Connect.
func (r *Reader) Close() error {
	if r.db == nil {
		return nil
	}
	db := r.db
	r.db = nil
	if err := db.Close(); err != nil {
		return xerrors.Errorf("unable to close source connection: %w", err)
	}
	return nil
}
