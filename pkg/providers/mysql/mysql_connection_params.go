package mysql

import (
	"net"
	"strconv"
	"time"

	"github.com/doublecloud/mysql2cass/pkg/abstract/model"
	mysql_driver "github.com/go-sql-driver/mysql"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultIOTimeout      = time.Minute
)

type ConnectionParams struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// Location is used by the driver to render DATETIME values.
	Location       *time.Location
	ConnectTimeout time.Duration
	IOTimeout      time.Duration
}

func NewConnectionParams(src model.SourceParams) *ConnectionParams {
	return &ConnectionParams{
		Host:           src.Host,
		Port:           src.Port,
		User:           src.User,
		Password:       src.Password,
		Database:       src.Database,
		Location:       time.Local,
		ConnectTimeout: defaultConnectTimeout,
		IOTimeout:      defaultIOTimeout,
	}
}

func (params *ConnectionParams) Addr() string {
	return net.JoinHostPort(params.Host, strconv.Itoa(params.Port))
}

// DriverConfig renders params for go-sql-driver. Parameters are interpolated on the
// client so every value comes back over the text protocol as a string.
func (params *ConnectionParams) DriverConfig() *mysql_driver.Config {
	connConf := mysql_driver.NewConfig()
	connConf.Net = "tcp"
	connConf.Addr = params.Addr()
	connConf.User = params.User
	connConf.Passwd = params.Password
	connConf.DBName = params.Database
	connConf.InterpolateParams = true
	connConf.Timeout = params.ConnectTimeout
	connConf.ReadTimeout = params.IOTimeout
	connConf.WriteTimeout = params.IOTimeout
	if params.Location != nil {
		connConf.Loc = params.Location
	}
	return connConf
}
