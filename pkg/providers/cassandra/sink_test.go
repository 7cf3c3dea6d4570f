package cassandra

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/doublecloud/mysql2cass/internal/logger"
	"github.com/doublecloud/mysql2cass/pkg/abstract/model"
	"github.com/doublecloud/mysql2cass/pkg/errors"
	"github.com/doublecloud/mysql2cass/pkg/errors/categories"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

type execCall struct {
	stmt   string
	values []interface{}
}

type fakeSession struct {
	calls  []execCall
	errs   map[string]error
	closed bool
}

func (s *fakeSession) Exec(_ context.Context, stmt string, values ...interface{}) error {
	s.calls = append(s.calls, execCall{stmt: stmt, values: values})
	return s.errs[stmt]
}

func (s *fakeSession) Close() {
	s.closed = true
}

// queryRejected mimics a server side syntax error.
type queryRejected struct{}

func (queryRejected) Code() int       { return gocql.ErrCodeSyntax }
func (queryRejected) Message() string { return "line 1:0 no viable alternative" }
func (queryRejected) Error() string   { return "line 1:0 no viable alternative" }

var testColumns = []model.ColumnSpec{
	{Name: "name", Type: model.ValueTypeString},
	{Name: "age", Type: model.ValueTypeInt, SecondaryIndex: true},
	{Name: "created", Type: model.ValueTypeDatetime},
}

func newTestWriter(t *testing.T) (*Writer, *fakeSession, *int) {
	session := &fakeSession{errs: map[string]error{}}
	sessions := 0
	w := NewWriter(logger.Log, time.UTC)
	w.newSession = func(host string, port int) (Session, error) {
		sessions++
		return session, nil
	}
	require.NoError(t, w.ConnectCluster(context.Background(), DefaultClusterName, "cass1", 9042))
	return w, session, &sessions
}

func TestConnectClusterIdempotent(t *testing.T) {
	w, session, sessions := newTestWriter(t)
	require.NoError(t, w.ConnectCluster(context.Background(), DefaultClusterName, "cass1", 9042))
	require.Equal(t, 1, *sessions)

	require.NoError(t, w.ConnectCluster(context.Background(), DefaultClusterName, "cass2", 9042))
	require.Equal(t, 2, *sessions)
	require.True(t, session.closed)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestConnectClusterFailure(t *testing.T) {
	w := NewWriter(logger.Log, nil)
	w.newSession = func(string, int) (Session, error) { return nil, gocql.ErrNoConnectionsStarted }
	err := w.ConnectCluster(context.Background(), DefaultClusterName, "cass1", 9042)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, categories.Connectivity))

	err = w.DropKeyspaceIfExists(context.Background(), "ns1")
	require.True(t, errors.IsCategory(err, categories.Connectivity))
}

func TestKeyspaceStatements(t *testing.T) {
	w, session, _ := newTestWriter(t)
	ctx := context.Background()

	require.NoError(t, w.DropKeyspaceIfExists(ctx, "shop"))
	require.NoError(t, w.CreateKeyspace(ctx, "shop", DefaultReplicationFactor))
	require.Equal(t, []execCall{
		{stmt: `DROP KEYSPACE IF EXISTS "shop"`},
		{stmt: `CREATE KEYSPACE "shop" WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`},
	}, session.calls)
}

func TestCreateKeyspaceTwice(t *testing.T) {
	w, session, _ := newTestWriter(t)
	ctx := context.Background()

	require.NoError(t, w.CreateKeyspace(ctx, "shop", 1))
	session.errs[BuildCreateKeyspaceQuery("shop", 1)] = &gocql.RequestErrAlreadyExists{Keyspace: "shop"}
	require.NoError(t, w.CreateKeyspace(ctx, "shop", 1))
}

func TestCreateKeyspaceFailure(t *testing.T) {
	w, session, _ := newTestWriter(t)
	session.errs[BuildCreateKeyspaceQuery("shop", 1)] = gocql.ErrTimeoutNoResponse
	err := w.CreateKeyspace(context.Background(), "shop", 1)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, categories.Connectivity))
	require.True(t, xerrors.Is(err, gocql.ErrTimeoutNoResponse))
}

func TestCreateSchema(t *testing.T) {
	w, session, _ := newTestWriter(t)
	require.NoError(t, w.CreateSchema(context.Background(), model.KeysTypeInt, "shop", "customers", testColumns))
	require.Equal(t, []execCall{
		{stmt: `CREATE TABLE "shop"."customers" (key varint PRIMARY KEY, "name" text, "age" varint, "created" timeuuid)`},
		{stmt: `CREATE INDEX IF NOT EXISTS shop__customers__age__name ON "shop"."customers" ("age")`},
	}, session.calls)
}

func TestCreateSchemaStringKeysExistingTable(t *testing.T) {
	w, session, _ := newTestWriter(t)
	createTable := BuildCreateTableQuery(model.KeysTypeString, "shop", "customers", testColumns)
	require.Contains(t, createTable, "key text PRIMARY KEY")
	session.errs[createTable] = &gocql.RequestErrAlreadyExists{Keyspace: "shop", Table: "customers"}
	require.NoError(t, w.CreateSchema(context.Background(), model.KeysTypeString, "shop", "customers", testColumns))
	require.Len(t, session.calls, 2)
}

func TestCreateSchemaRejected(t *testing.T) {
	w, session, _ := newTestWriter(t)
	session.errs[BuildCreateIndexQuery("shop", "customers", "age")] = queryRejected{}
	err := w.CreateSchema(context.Background(), model.KeysTypeInt, "shop", "customers", testColumns)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, categories.Query))
}

func TestWriteCellKeyEncoding(t *testing.T) {
	w, session, _ := newTestWriter(t)
	ctx := context.Background()

	require.NoError(t, w.WriteCell(ctx, model.KeysTypeInt, "shop", "customers", 42, "name", "alice", model.ValueTypeString))
	require.NoError(t, w.WriteCell(ctx, model.KeysTypeString, "shop", "customers", 42, "age", "31", model.ValueTypeInt))

	require.Len(t, session.calls, 2)
	require.Equal(t, `INSERT INTO "shop"."customers" (key, "name") VALUES (?, ?)`, session.calls[0].stmt)
	require.Equal(t, []interface{}{int64(42), "alice"}, session.calls[0].values)

	require.Equal(t, `INSERT INTO "shop"."customers" (key, "age") VALUES (?, ?)`, session.calls[1].stmt)
	require.Equal(t, "42", session.calls[1].values[0])
	require.Equal(t, 0, big.NewInt(31).Cmp(session.calls[1].values[1].(*big.Int)))
}

func TestWriteCellDatetime(t *testing.T) {
	w, session, _ := newTestWriter(t)
	require.NoError(t, w.WriteCell(context.Background(), model.KeysTypeInt, "shop", "customers", 1, "created", "2012-07-01 21:30:00", model.ValueTypeDatetime))
	require.Len(t, session.calls, 1)
	id, ok := session.calls[0].values[1].(gocql.UUID)
	require.True(t, ok)
	require.Equal(t, time.Date(2012, 7, 1, 21, 30, 0, 0, time.UTC), id.Time().UTC())
}

func TestWriteCellDataFormatErrors(t *testing.T) {
	w, session, _ := newTestWriter(t)
	ctx := context.Background()

	err := w.WriteCell(ctx, model.KeysTypeInt, "shop", "customers", 1, "age", "abc", model.ValueTypeInt)
	require.Error(t, err)
	require.True(t, errors.IsDataFormat(err))

	err = w.WriteCell(ctx, model.KeysTypeInt, "shop", "customers", 1, "created", "01/07/2012", model.ValueTypeDatetime)
	require.Error(t, err)
	require.True(t, errors.IsDataFormat(err))

	require.Empty(t, session.calls, "nothing is sent for unconvertible values")
}

func TestWriteCellUnavailable(t *testing.T) {
	w, session, _ := newTestWriter(t)
	session.errs[BuildInsertCellQuery("shop", "customers", "name")] = &gocql.RequestErrUnavailable{Required: 1, Alive: 0}
	err := w.WriteCell(context.Background(), model.KeysTypeInt, "shop", "customers", 1, "name", "x", model.ValueTypeString)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, categories.Connectivity))
}

func TestTimeUUIDStrictlyIncreasing(t *testing.T) {
	values := []string{
		"1999-12-31 23:59:59",
		"2000-01-01 00:00:00",
		"2000-01-01 00:00:01",
		"2012-07-01 13:00:00",
		"2012-07-01 14:00:00",
	}
	var prev *uuid.UUID
	for _, v := range values {
		id, err := TimeUUIDFromValue(v, time.UTC)
		require.NoError(t, err)
		u := uuid.UUID(id)
		require.Equal(t, uuid.Version(1), u.Version())
		if prev != nil {
			require.Less(t, int64(prev.Time()), int64(u.Time()), "uuid for %s must be after the previous one", v)
		}
		prev = &u
	}
}

func TestTimeUUID24HourClock(t *testing.T) {
	morning, err := TimeUUIDFromValue("2012-07-01 01:00:00", time.UTC)
	require.NoError(t, err)
	evening, err := TimeUUIDFromValue("2012-07-01 13:00:00", time.UTC)
	require.NoError(t, err)
	require.Equal(t, 12*time.Hour, evening.Time().Sub(morning.Time()))
}

func TestIndexName(t *testing.T) {
	require.Equal(t, "ns__tbl__email__name", IndexName("ns", "tbl", "email"))
}
