package coordinator

import "context"

// KeyspaceInitCoordinator decides which worker performs the destructive keyspace drop.
// It is shared by every worker built from the same configuration.
type KeyspaceInitCoordinator interface {
	// TryClaimInit returns true exactly once per keyspace name for the lifetime of the
	// coordinator; the caller that gets true drops the keyspace, everyone else skips the drop.
	TryClaimInit(keyspace string) bool
	// MarkDropped is called by the claim winner once its drop has succeeded.
	MarkDropped(keyspace string)
	// WaitDropped blocks until the claimed keyspace has been dropped or ctx is done.
	// Workers that lost the claim must not create anything in the keyspace before that.
	WaitDropped(ctx context.Context, keyspace string) error
}
