package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mysql2cass"

// ReplicationStats holds the metric families shared by every worker of the process.
type ReplicationStats struct {
	RunningWorkers prometheus.Gauge
	RowsRead       *prometheus.CounterVec
	CellsWritten   *prometheus.CounterVec
	CellsAbandoned *prometheus.CounterVec
	Retries        *prometheus.CounterVec
	Cursor         *prometheus.GaugeVec
	ReadTime       *prometheus.HistogramVec
	WriteTime      *prometheus.HistogramVec
}

func NewReplicationStats(reg prometheus.Registerer) *ReplicationStats {
	s := &ReplicationStats{
		RunningWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "workers_running", Help: "Replication workers currently running.",
		}),
		RowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_read_total", Help: "Rows read from the source table.",
		}, []string{"mapping"}),
		CellsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cells_written_total", Help: "Cells acknowledged by the target.",
		}, []string{"mapping"}),
		CellsAbandoned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cells_abandoned_total", Help: "Cells dropped because the value did not match its type.",
		}, []string{"mapping"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "retries_total", Help: "Failed attempts that were retried.",
		}, []string{"mapping", "store"}),
		Cursor: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cursor", Help: "Last replicated source key.",
		}, []string{"mapping"}),
		ReadTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "batch_read_seconds", Help: "Time to read one batch.", Buckets: prometheus.DefBuckets,
		}, []string{"mapping"}),
		WriteTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "batch_write_seconds", Help: "Time to write one batch.", Buckets: prometheus.DefBuckets,
		}, []string{"mapping"}),
	}
	if reg != nil {
		reg.MustRegister(s.RunningWorkers, s.RowsRead, s.CellsWritten, s.CellsAbandoned, s.Retries, s.Cursor, s.ReadTime, s.WriteTime)
	}
	return s
}

const (
	StoreSource = "source"
	StoreTarget = "target"
)

// MappingStats is the per-worker view of ReplicationStats.
type MappingStats struct {
	RowsRead       prometheus.Counter
	CellsWritten   prometheus.Counter
	CellsAbandoned prometheus.Counter
	SourceRetries  prometheus.Counter
	TargetRetries  prometheus.Counter
	Cursor         prometheus.Gauge
	ReadTime       prometheus.Observer
	WriteTime      prometheus.Observer
	running        prometheus.Gauge
}

func (s *ReplicationStats) ForMapping(mappingID string) *MappingStats {
	return &MappingStats{
		RowsRead:       s.RowsRead.WithLabelValues(mappingID),
		CellsWritten:   s.CellsWritten.WithLabelValues(mappingID),
		CellsAbandoned: s.CellsAbandoned.WithLabelValues(mappingID),
		SourceRetries:  s.Retries.WithLabelValues(mappingID, StoreSource),
		TargetRetries:  s.Retries.WithLabelValues(mappingID, StoreTarget),
		Cursor:         s.Cursor.WithLabelValues(mappingID),
		ReadTime:       s.ReadTime.WithLabelValues(mappingID),
		WriteTime:      s.WriteTime.WithLabelValues(mappingID),
		running:        s.RunningWorkers,
	}
}

func (m *MappingStats) Started() {
	m.running.Inc()
}

func (m *MappingStats) Stopped() {
	m.running.Dec()
}
