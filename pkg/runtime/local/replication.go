package local

import (
	"context"

	"github.com/doublecloud/mysql2cass/pkg/abstract/coordinator"
	"github.com/doublecloud/mysql2cass/pkg/abstract/model"
	"github.com/doublecloud/mysql2cass/pkg/stats"
	"github.com/prometheus/client_golang/prometheus"
	"go.ytsaurus.tech/library/go/core/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

type WorkerFactory func(mapping *model.Mapping, cp coordinator.KeyspaceInitCoordinator, st *stats.ReplicationStats, lgr log.Logger) *ReplicationWorker

// Supervisor runs one ReplicationWorker per mapping. All workers share one keyspace
// init coordinator, so a keyspace used by several mappings is dropped only once.
type Supervisor struct {
	mappings  []*model.Mapping
	cp        *coordinator.CoordinatorInMemory
	stats     *stats.ReplicationStats
	logger    log.Logger
	newWorker WorkerFactory
}

func NewSupervisor(mappings []*model.Mapping, registry prometheus.Registerer, lgr log.Logger) *Supervisor {
	return &Supervisor{
		mappings:  mappings,
		cp:        coordinator.NewCoordinatorInMemory(),
		stats:     stats.NewReplicationStats(registry),
		logger:    lgr,
		newWorker: NewDefaultReplicationWorker,
	}
}

// WithWorkerFactory replaces the way workers are built.
func (s *Supervisor) WithWorkerFactory(f WorkerFactory) *Supervisor {
	s.newWorker = f
	return s
}

// Run blocks until ctx is cancelled and every worker has returned.
// Cancellation is a normal shutdown and yields nil.
func (s *Supervisor) Run(ctx context.Context) error {
	if len(s.mappings) == 0 {
		return xerrors.New("no mappings to replicate")
	}
	s.logger.Infof("Starting %d replication workers", len(s.mappings))

	g, gctx := errgroup.WithContext(ctx)
	for _, mapping := range s.mappings {
		worker := s.newWorker(mapping, s.cp, s.stats, s.logger)
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}
	err := g.Wait()
	if err != nil && ctx.Err() != nil && xerrors.Is(err, ctx.Err()) {
		s.logger.Info("All replication workers stopped")
		return nil
	}
	if err != nil {
		return xerrors.Errorf("replication stopped: %w", err)
	}
	return nil
}
