package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRowBatchAdvance(t *testing.T) {
	require.Equal(t, InitialCursor, RowBatch(nil).Advance(InitialCursor))
	require.Equal(t, int64(7), RowBatch{}.Advance(7))

	batch := RowBatch{{Key: 3}, {Key: 10}, {Key: 4}}
	maxKey, ok := batch.MaxKey()
	require.True(t, ok)
	require.Equal(t, int64(10), maxKey)
	require.Equal(t, int64(10), batch.Advance(InitialCursor))
	// never goes backwards
	require.Equal(t, int64(20), batch.Advance(20))
}

func TestRowBatchCellCount(t *testing.T) {
	batch := RowBatch{
		{Key: 1, Cells: []Cell{{Column: "name", Value: "bob"}}},
		{Key: 2},
		{Key: 3, Cells: []Cell{{Column: "name", Value: "eve"}, {Column: "age", Value: "30"}}},
	}
	require.Equal(t, 3, batch.CellCount())
	require.Zero(t, RowBatch(nil).CellCount())
}

func TestParseTypes(t *testing.T) {
	vt, err := ParseValueType("DateTime")
	require.NoError(t, err)
	require.Equal(t, ValueTypeDatetime, vt)
	_, err = ParseValueType("float")
	require.Error(t, err)

	kt, err := ParseKeysType("string")
	require.NoError(t, err)
	require.Equal(t, KeysTypeString, kt)
	_, err = ParseKeysType("uuid")
	require.Error(t, err)
}

func TestMappingID(t *testing.T) {
	m := Mapping{
		Source: SourceParams{Host: "mysql1", Port: 3306, Database: "shop", Table: "customers", Password: "secret"},
		Target: TargetParams{Host: "cass1", Port: 9042},
	}
	require.Equal(t, "mysql1:3306__shop_customers__cass1:9042", m.ID())
	require.NotContains(t, m.String(), "secret")
}
