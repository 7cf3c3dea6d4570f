package cassandra

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/doublecloud/mysql2cass/pkg/abstract/model"
	"github.com/doublecloud/mysql2cass/pkg/errors"
	"github.com/doublecloud/mysql2cass/pkg/errors/categories"
	"go.ytsaurus.tech/library/go/core/log"
)

const DefaultReplicationFactor = 1

// Writer owns one cluster session and performs schema setup and single cell writes.
type Writer struct {
	logger     log.Logger
	newSession sessionFactory
	location   *time.Location

	session     Session
	clusterName string
	addr        string
}

// NewWriter builds a writer; loc is used to parse datetime values.
func NewWriter(lgr log.Logger, loc *time.Location) *Writer {
	if loc == nil {
		loc = time.Local
	}
	return &Writer{
		logger:      lgr,
		newSession:  newGocqlSession,
		location:    loc,
		session:     nil,
		clusterName: "",
		addr:        "",
	}
}

// ConnectCluster is a no-op when a session to the same host and port is already open.
func (w *Writer) ConnectCluster(ctx context.Context, clusterName, host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	if w.session != nil && w.addr == addr {
		return nil
	}
	if w.session != nil {
		w.closeSession()
	}
	session, err := w.newSession(host, port)
	if err != nil {
		return errors.CategorizedErrorf(categories.Connectivity, "unable to connect to cluster %s at %s: %w", clusterName, addr, err)
	}
	w.session = session
	w.clusterName = clusterName
	w.addr = addr
	w.logger.Info("Connected to cassandra", log.String("cluster", clusterName), log.String("addr", addr))
	return nil
}

func (w *Writer) exec(ctx context.Context, stmt string, values ...interface{}) error {
	if w.session == nil {
		return errors.CategorizedErrorf(categories.Connectivity, "cluster %s is not connected", w.clusterName)
	}
	w.logger.Debug(stmt)
	return w.session.Exec(ctx, stmt, values...)
}

// DropKeyspaceIfExists succeeds when the keyspace does not exist.
func (w *Writer) DropKeyspaceIfExists(ctx context.Context, keyspace string) error {
	w.logger.Info("Dropping keyspace if it exists", log.String("keyspace", keyspace))
	if err := w.exec(ctx, BuildDropKeyspaceQuery(keyspace)); err != nil {
		return ClassifyError(err, "unable to drop keyspace %s", keyspace)
	}
	return nil
}

// CreateKeyspace treats an existing keyspace as success.
func (w *Writer) CreateKeyspace(ctx context.Context, keyspace string, replicationFactor int) error {
	err := w.exec(ctx, BuildCreateKeyspaceQuery(keyspace, replicationFactor))
	switch {
	case err == nil:
		w.logger.Info("Keyspace created", log.String("keyspace", keyspace), log.Int("replication_factor", replicationFactor))
		return nil
	case isAlreadyExists(err):
		w.logger.Info("Keyspace already exists. Not a problem.", log.String("keyspace", keyspace))
		return nil
	default:
		return ClassifyError(err, "unable to create keyspace %s", keyspace)
	}
}

// CreateSchema creates the typed table and its secondary indexes. An existing table is
// kept as is, so workers sharing a keyspace can all run it.
func (w *Writer) CreateSchema(ctx context.Context, keysType model.KeysType, keyspace, table string, columns []model.ColumnSpec) error {
	err := w.exec(ctx, BuildCreateTableQuery(keysType, keyspace, table, columns))
	switch {
	case err == nil:
		w.logger.Info("Table created", log.String("keyspace", keyspace), log.String("table", table), log.Int("columns", len(columns)))
	case isAlreadyExists(err):
		w.logger.Info("Table already exists. Not a problem.", log.String("keyspace", keyspace), log.String("table", table))
	default:
		return ClassifyError(err, "unable to create table %s.%s", keyspace, table)
	}

	for _, c := range columns {
		if !c.SecondaryIndex {
			continue
		}
		if err := w.exec(ctx, BuildCreateIndexQuery(keyspace, table, c.Name)); err != nil && !isAlreadyExists(err) {
			return ClassifyError(err, "unable to create index on %s.%s(%s)", keyspace, table, c.Name)
		}
		w.logger.Info("Secondary index ready", log.String("index", IndexName(keyspace, table, c.Name)))
	}
	return nil
}

// WriteCell writes one typed cell and returns after the cluster acknowledged it.
// A value that does not match valueType fails with a data_format error.
func (w *Writer) WriteCell(ctx context.Context, keysType model.KeysType, keyspace, table string, key int64, column, value string, valueType model.ValueType) error {
	native, err := CellValue(valueType, value, w.location)
	if err != nil {
		return err
	}
	if err := w.exec(ctx, BuildInsertCellQuery(keyspace, table, column), RowKey(keysType, key), native); err != nil {
		return ClassifyError(err, "unable to write %s.%s[%d][%s]", keyspace, table, key, column)
	}
	return nil
}

func (w *Writer) closeSession() {
	w.session.Close()
	w.session = nil
	w.logger.Info("Cassandra connection closed.", log.String("addr", w.addr))
	w.addr = ""
}

func (w *Writer) Close() error {
	if w.session != nil {
		w.closeSession()
	}
	return nil
}
