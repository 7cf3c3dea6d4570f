package model

// InitialCursor is below any real key, so the first read starts from the beginning of the table.
const InitialCursor int64 = -1

type Cell struct {
	Column string
	Value  string
}

// Row is a sparse row: columns whose source value was NULL or empty are not present.
// Cells keep the configured column order.
type Row struct {
	Key   int64
	Cells []Cell
}

// RowBatch holds rows in ascending key order, all strictly above the cursor they were read with.
type RowBatch []Row

func (b RowBatch) Empty() bool {
	return len(b) == 0
}

// MaxKey returns the largest key of the batch, false for an empty batch.
func (b RowBatch) MaxKey() (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	maxKey := b[0].Key
	for _, r := range b[1:] {
		if r.Key > maxKey {
			maxKey = r.Key
		}
	}
	return maxKey, true
}

func (b RowBatch) CellCount() int {
	n := 0
	for _, r := range b {
		n += len(r.Cells)
	}
	return n
}

// Advance returns the cursor after processing b: its maximum key, or cursor itself for an empty batch.
func (b RowBatch) Advance(cursor int64) int64 {
	if maxKey, ok := b.MaxKey(); ok && maxKey > cursor {
		return maxKey
	}
	return cursor
}
