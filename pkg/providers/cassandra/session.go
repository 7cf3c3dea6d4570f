package cassandra

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/gocql/gocql"
	"golang.org/x/xerrors"
)

const (
	DefaultClusterName = "mysql2cass_cluster"

	defaultTimeout        = 10 * time.Second
	defaultConnectTimeout = 10 * time.Second
)

// Session is the subset of a CQL session used by the writer.
type Session interface {
	Exec(ctx context.Context, stmt string, values ...interface{}) error
	Close()
}

type sessionFactory func(host string, port int) (Session, error)

type gocqlSession struct {
	session *gocql.Session
}

func (s *gocqlSession) Exec(ctx context.Context, stmt string, values ...interface{}) error {
	return s.session.Query(stmt, values...).WithContext(ctx).Exec()
}

func (s *gocqlSession) Close() {
	s.session.Close()
}

func newGocqlSession(host string, port int) (Session, error) {
	cluster := gocql.NewCluster(host)
	cluster.Port = port
	cluster.Consistency = gocql.One
	cluster.Timeout = defaultTimeout
	cluster.ConnectTimeout = defaultConnectTimeout
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, xerrors.Errorf("unable to create session to %s: %w", net.JoinHostPort(host, strconv.Itoa(port)), err)
	}
	return &gocqlSession{session: session}, nil
}
