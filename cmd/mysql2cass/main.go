package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/doublecloud/mysql2cass/cmd/mysql2cass/replicate"
	"github.com/doublecloud/mysql2cass/cmd/mysql2cass/validate"
	"github.com/doublecloud/mysql2cass/internal/logger"
	"github.com/doublecloud/mysql2cass/pkg/cobraaux"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.ytsaurus.tech/library/go/core/log"
)

var (
	defaultLogLevel  = "info"
	defaultLogConfig = logger.FormatConsole
)

func main() {
	logLevel := defaultLogLevel
	logConfig := defaultLogConfig
	metricsAddr := ""

	rootCommand := &cobra.Command{
		Use:          "mysql2cass",
		Short:        "Incremental MySQL to Cassandra replication",
		Example:      "./mysql2cass replicate --config mappings.yaml",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Setup(logLevel, logConfig); err != nil {
				return err
			}
			if _, err := maxprocs.Set(maxprocs.Logger(logger.Log.Infof)); err != nil {
				logger.Log.Warn("unable to set GOMAXPROCS", log.Error(err))
			}
			return nil
		},
	}
	cobraaux.RegisterCommand(rootCommand, replicate.ReplicateCommand(&metricsAddr))
	cobraaux.RegisterCommand(rootCommand, validate.ValidateCommand())

	rootCommand.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "Specifies logging level for output logs (\"panic\", \"fatal\", \"error\", \"warning\", \"info\", \"debug\")")
	rootCommand.PersistentFlags().StringVar(&logConfig, "log-config", defaultLogConfig, "Specifies logging config for output logs (\"console\", \"json\", \"minimal\")")
	rootCommand.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Address for the prometheus /metrics endpoint, empty disables it")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCommand.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
