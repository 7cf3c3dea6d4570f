package local

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/doublecloud/mysql2cass/internal/logger"
	"github.com/doublecloud/mysql2cass/pkg/abstract/coordinator"
	"github.com/doublecloud/mysql2cass/pkg/abstract/model"
	"github.com/doublecloud/mysql2cass/pkg/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.ytsaurus.tech/library/go/core/log"
)

func TestSupervisorRunsEveryMapping(t *testing.T) {
	mappings := []*model.Mapping{testMapping("ns1"), testMapping("ns1"), testMapping("ns2")}
	mappings[1].Source.Table = "orders"
	mappings[1].Target.Table = "orders"
	mappings[2].Source.Port = 3307

	var mu sync.Mutex
	targets := map[string]*fakeTarget{}
	reg := prometheus.NewRegistry()
	supervisor := NewSupervisor(mappings, reg, logger.Log).WithWorkerFactory(
		func(m *model.Mapping, cp coordinator.KeyspaceInitCoordinator, st *stats.ReplicationStats, lgr log.Logger) *ReplicationWorker {
			src := newFakeSource(map[int64][]model.Cell{7: {{Column: "name", Value: m.Source.Table}}})
			dst := newFakeTarget()
			mu.Lock()
			targets[m.ID()] = dst
			mu.Unlock()
			return NewReplicationWorker(m, cp, src, dst, st.ForMapping(m.ID()), lgr)
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- supervisor.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		if len(targets) != len(mappings) {
			return false
		}
		for _, dst := range targets {
			if len(dst.written()) != 1 {
				return false
			}
		}
		return true
	}, 5*time.Second, time.Millisecond)
	require.Equal(t, float64(3), testutil.ToFloat64(supervisor.stats.RunningWorkers))

	cancel()
	require.NoError(t, <-done)
	require.Equal(t, float64(0), testutil.ToFloat64(supervisor.stats.RunningWorkers))

	drops := map[string]int{}
	for _, dst := range targets {
		require.True(t, dst.closed)
		drops["ns1"] += dst.count("drop ns1")
		drops["ns2"] += dst.count("drop ns2")
	}
	require.Equal(t, map[string]int{"ns1": 1, "ns2": 1}, drops)
}

func TestSupervisorWithoutMappings(t *testing.T) {
	err := NewSupervisor(nil, nil, logger.Log).Run(context.Background())
	require.Error(t, err)
}
