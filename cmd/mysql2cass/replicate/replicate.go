package replicate

import (
	"context"

	"github.com/doublecloud/mysql2cass/cmd/mysql2cass/config"
	"github.com/doublecloud/mysql2cass/internal/logger"
	"github.com/doublecloud/mysql2cass/internal/metrics"
	"github.com/doublecloud/mysql2cass/pkg/abstract/model"
	"github.com/doublecloud/mysql2cass/pkg/runtime/local"
	"github.com/spf13/cobra"
	"go.ytsaurus.tech/library/go/core/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

func ReplicateCommand(metricsAddr *string) *cobra.Command {
	var configPath string
	var mappings []*model.Mapping
	replicationCommand := &cobra.Command{
		Use:               "replicate",
		Short:             "Start replication of every configured mapping",
		PersistentPreRunE: loadMappings(&configPath, &mappings),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunReplication(cmd.Context(), mappings, *metricsAddr)
		},
	}
	replicationCommand.Flags().StringVar(&configPath, "config", "./mappings.yaml", "path to yaml file with mappings configuration")
	return replicationCommand
}

// loadMappings runs after the root pre-run, so the logger is already configured.
func loadMappings(configPath *string, mappings *[]*model.Mapping) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadMappings(*configPath)
		if err != nil {
			return xerrors.Errorf("unable to load mappings: %w", err)
		}
		for _, m := range loaded {
			logger.Log.Info("mapping loaded", log.String("id", m.ID()), log.String("mapping", m.String()))
		}
		*mappings = loaded
		return nil
	}
}

// RunReplication blocks until ctx is cancelled. An empty metricsAddr disables the exporter.
func RunReplication(ctx context.Context, mappings []*model.Mapping, metricsAddr string) error {
	registry := metrics.NewRegistry()
	g, gctx := errgroup.WithContext(ctx)
	if metricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, metricsAddr, registry)
		})
	}
	g.Go(func() error {
		return local.NewSupervisor(mappings, registry, logger.Log).Run(gctx)
	})
	if err := g.Wait(); err != nil {
		return xerrors.Errorf("replication failed: %w", err)
	}
	return nil
}
