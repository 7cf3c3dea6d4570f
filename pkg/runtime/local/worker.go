package local

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/doublecloud/mysql2cass/pkg/abstract/coordinator"
	"github.com/doublecloud/mysql2cass/pkg/abstract/model"
	"github.com/doublecloud/mysql2cass/pkg/errors"
	"github.com/doublecloud/mysql2cass/pkg/providers/cassandra"
	"github.com/doublecloud/mysql2cass/pkg/providers/mysql"
	"github.com/doublecloud/mysql2cass/pkg/stats"
	"github.com/doublecloud/mysql2cass/pkg/util"
	"github.com/dustin/go-humanize"
	"go.ytsaurus.tech/library/go/core/log"
	"golang.org/x/xerrors"
)

// Source is the relational side of a mapping. One session is opened and closed per operation.
type Source interface {
	Connect(ctx context.Context, params *mysql.ConnectionParams) error
	Truncate(ctx context.Context, table string) error
	ReadBatch(ctx context.Context, table, keyColumn string, cursor int64, batchSize int, columns []model.ColumnSpec) (model.RowBatch, error)
	Close() error
}

// Target is the column store side of a mapping. The session stays open for the worker lifetime.
type Target interface {
	ConnectCluster(ctx context.Context, clusterName, host string, port int) error
	DropKeyspaceIfExists(ctx context.Context, keyspace string) error
	CreateKeyspace(ctx context.Context, keyspace string, replicationFactor int) error
	CreateSchema(ctx context.Context, keysType model.KeysType, keyspace, table string, columns []model.ColumnSpec) error
	WriteCell(ctx context.Context, keysType model.KeysType, keyspace, table string, key int64, column, value string, valueType model.ValueType) error
	Close() error
}

// ReplicationWorker copies one mapping: it prepares both sides once and then polls
// the source for rows above its cursor forever.
type ReplicationWorker struct {
	mapping *model.Mapping
	source  Source
	target  Target
	cp      coordinator.KeyspaceInitCoordinator
	stats   *stats.MappingStats
	logger  log.Logger

	sourceParams *mysql.ConnectionParams
	sourceRetry  util.RetryPolicy
	targetRetry  util.RetryPolicy

	cursor int64
	// set once this worker won the keyspace claim, cleared after the drop succeeded
	dropPending bool
}

func NewReplicationWorker(
	mapping *model.Mapping,
	cp coordinator.KeyspaceInitCoordinator,
	source Source,
	target Target,
	mappingStats *stats.MappingStats,
	lgr log.Logger,
) *ReplicationWorker {
	if mappingStats == nil {
		mappingStats = stats.NewReplicationStats(nil).ForMapping(mapping.ID())
	}
	sourceParams := mysql.NewConnectionParams(mapping.Source)
	// source datetimes are rendered in the zone the target parses them in
	if mapping.Target.Location != nil {
		sourceParams.Location = mapping.Target.Location
	}
	return &ReplicationWorker{
		mapping:      mapping,
		source:       source,
		target:       target,
		cp:           cp,
		stats:        mappingStats,
		logger:       log.With(lgr, log.String("mapping", mapping.ID())),
		sourceParams: sourceParams,
		// every source failure is retried, a broken query included
		sourceRetry: util.NewRetryPolicy(mapping.Source.RetryDelay, nil),
		targetRetry: util.NewRetryPolicy(mapping.Target.RetryDelay, errors.IsRetriable),
		cursor:      model.InitialCursor,
		dropPending: false,
	}
}

// NewDefaultReplicationWorker wires the mysql reader and the cassandra writer.
func NewDefaultReplicationWorker(mapping *model.Mapping, cp coordinator.KeyspaceInitCoordinator, st *stats.ReplicationStats, lgr log.Logger) *ReplicationWorker {
	return NewReplicationWorker(
		mapping,
		cp,
		mysql.NewReader(lgr),
		cassandra.NewWriter(lgr, mapping.Target.Location),
		st.ForMapping(mapping.ID()),
		lgr,
	)
}

// Cursor is the largest source key handed to the target so far.
func (w *ReplicationWorker) Cursor() int64 {
	return w.cursor
}

// Run returns only when ctx is done; the returned error is ctx.Err().
func (w *ReplicationWorker) Run(ctx context.Context) error {
	w.stats.Started()
	defer w.stats.Stopped()
	defer func() {
		if err := w.target.Close(); err != nil {
			w.logger.Warn("Unable to close target", log.Error(err))
		}
	}()

	w.logger.Info("This worker is assigned to: " + w.mapping.String())

	if err := w.initSource(ctx); err != nil {
		return err
	}
	if err := w.initTarget(ctx); err != nil {
		return err
	}

	for {
		if err := w.iteration(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error("Replication iteration failed, will try again on the next poll", log.Error(err))
		}
		w.logger.Debugf("Sleeping for %v", w.mapping.PollInterval)
		if err := util.Sleep(ctx, w.mapping.PollInterval); err != nil {
			return err
		}
	}
}

func (w *ReplicationWorker) iteration(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Errorf("Panic: %v", r)
			w.logger.Error("Replication iteration panic", log.Error(err), log.String("stacktrace", string(debug.Stack())))
		}
	}()
	_, err = w.replicateBatch(ctx)
	return err
}

func (w *ReplicationWorker) notify(store, msg string) func(error, time.Duration) {
	logRetry := util.BackoffLoggerWarn(w.logger, msg)
	retries := w.stats.SourceRetries
	if store == stats.StoreTarget {
		retries = w.stats.TargetRetries
	}
	return func(err error, sleep time.Duration) {
		retries.Inc()
		logRetry(err, sleep)
	}
}

func (w *ReplicationWorker) closeSource() {
	if err := w.source.Close(); err != nil {
		w.logger.Warn("Unable to close source", log.Error(err))
	}
}

// initSource truncates the source table when the mapping asks for it.
func (w *ReplicationWorker) initSource(ctx context.Context) error {
	if !w.mapping.Source.TruncateOnStart {
		return nil
	}
	return w.sourceRetry.Do(ctx, func() error {
		defer w.closeSource()
		if err := w.source.Connect(ctx, w.sourceParams); err != nil {
			return xerrors.Errorf("unable to connect to source: %w", err)
		}
		if err := w.source.Truncate(ctx, w.mapping.Source.Table); err != nil {
			return xerrors.Errorf("unable to truncate source: %w", err)
		}
		return nil
	}, w.notify(stats.StoreSource, "source truncate"))
}

// initTarget prepares keyspace, table and indexes. Any failing step restarts the whole
// sequence. Only the worker that won the keyspace claim drops it; the others create
// nothing in the keyspace until that drop has finished.
func (w *ReplicationWorker) initTarget(ctx context.Context) error {
	tgt := w.mapping.Target
	return w.targetRetry.Do(ctx, func() error {
		if err := w.target.ConnectCluster(ctx, tgt.ClusterName, tgt.Host, tgt.Port); err != nil {
			return xerrors.Errorf("unable to connect to target: %w", err)
		}
		if w.cp.TryClaimInit(tgt.Keyspace) {
			w.dropPending = true
		}
		if w.dropPending {
			if err := w.target.DropKeyspaceIfExists(ctx, tgt.Keyspace); err != nil {
				return xerrors.Errorf("unable to drop keyspace: %w", err)
			}
			w.dropPending = false
			w.cp.MarkDropped(tgt.Keyspace)
		} else if err := w.cp.WaitDropped(ctx, tgt.Keyspace); err != nil {
			return xerrors.Errorf("keyspace drop by another worker did not finish: %w", err)
		}
		if err := w.target.CreateKeyspace(ctx, tgt.Keyspace, cassandra.DefaultReplicationFactor); err != nil {
			return xerrors.Errorf("unable to create keyspace: %w", err)
		}
		if err := w.target.CreateSchema(ctx, tgt.KeysType, tgt.Keyspace, tgt.Table, w.mapping.Columns); err != nil {
			return xerrors.Errorf("unable to create schema: %w", err)
		}
		return nil
	}, w.notify(stats.StoreTarget, "target init"))
}

// replicateBatch reads the next batch above the cursor, writes it cell by cell and
// moves the cursor to the largest key of the batch.
func (w *ReplicationWorker) replicateBatch(ctx context.Context) (model.RowBatch, error) {
	readStart := time.Now()
	batch, err := w.readBatch(ctx)
	if err != nil {
		return nil, err
	}
	if batch.Empty() {
		w.logger.Info("Nothing new to write", log.Int64("cursor", w.cursor))
		return batch, nil
	}
	readTime := time.Since(readStart)
	w.stats.ReadTime.Observe(readTime.Seconds())
	w.stats.RowsRead.Add(float64(len(batch)))
	w.logger.Infof("Read %s rows in %v (%v per row)",
		humanize.Comma(int64(len(batch))), readTime, perElement(readTime, len(batch)))

	writeStart := time.Now()
	written, err := w.writeBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	writeTime := time.Since(writeStart)
	w.stats.WriteTime.Observe(writeTime.Seconds())
	w.logger.Infof("Wrote %s of %s cells in %v (%v per row)",
		humanize.Comma(int64(written)), humanize.Comma(int64(batch.CellCount())), writeTime, perElement(writeTime, len(batch)))

	w.cursor = batch.Advance(w.cursor)
	w.stats.Cursor.Set(float64(w.cursor))
	w.logger.Debug("Cursor advanced", log.Int64("cursor", w.cursor))
	return batch, nil
}

func perElement(total time.Duration, n int) time.Duration {
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}

func (w *ReplicationWorker) readBatch(ctx context.Context) (model.RowBatch, error) {
	src := w.mapping.Source
	var batch model.RowBatch
	err := w.sourceRetry.Do(ctx, func() error {
		defer w.closeSource()
		if err := w.source.Connect(ctx, w.sourceParams); err != nil {
			return xerrors.Errorf("unable to connect to source: %w", err)
		}
		b, err := w.source.ReadBatch(ctx, src.Table, src.KeyColumn, w.cursor, w.mapping.BatchSize, w.mapping.Columns)
		if err != nil {
			return xerrors.Errorf("unable to read batch: %w", err)
		}
		batch = b
		return nil
	}, w.notify(stats.StoreSource, "source read"))
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// writeBatch writes rows in ascending key order. Cells whose value does not match the
// declared type are abandoned; everything else is retried until it lands.
func (w *ReplicationWorker) writeBatch(ctx context.Context, batch model.RowBatch) (int, error) {
	written := 0
	for _, row := range batch {
		for _, cell := range row.Cells {
			ok, err := w.writeCell(ctx, row.Key, cell)
			if err != nil {
				return written, err
			}
			if ok {
				written++
			}
		}
	}
	return written, nil
}

func (w *ReplicationWorker) writeCell(ctx context.Context, key int64, cell model.Cell) (bool, error) {
	column, ok := w.mapping.Column(cell.Column)
	if !ok {
		return false, xerrors.Errorf("column %s is not part of the mapping", cell.Column)
	}
	tgt := w.mapping.Target
	err := w.targetRetry.Do(ctx, func() error {
		return w.target.WriteCell(ctx, tgt.KeysType, tgt.Keyspace, tgt.Table, key, cell.Column, cell.Value, column.Type)
	}, w.notify(stats.StoreTarget, "cell write"))
	switch {
	case err == nil:
		w.stats.CellsWritten.Inc()
		return true, nil
	case errors.IsDataFormat(err):
		w.stats.CellsAbandoned.Inc()
		w.logger.Warn("Abandoning cell with a malformed value",
			log.Int64("key", key), log.String("column", cell.Column), log.String("value", cell.Value), log.Error(err))
		return false, nil
	default:
		return false, err
	}
}
