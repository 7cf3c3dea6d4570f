package categories

// Category tells how a store error is handled by the replication loop.
type Category string

const (
	// Connectivity is a transient failure talking to a store: refused
	// connection, timeout, authentication failure. Always retried.
	Connectivity Category = "connectivity"
	// Query is a malformed or rejected statement. Retried like Connectivity.
	Query Category = "query"
	// DataFormat is a value that cannot be converted to its declared type.
	// Never retried.
	DataFormat Category = "data_format"
	// Internal is anything unexpected inside the replicator itself.
	Internal Category = "internal"
)

func (c Category) ID() string {
	return string(c)
}
