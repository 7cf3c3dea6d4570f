package model

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

// DatetimeLayout is the only accepted datetime format: four-digit year, 24-hour clock.
const DatetimeLayout = "2006-01-02 15:04:05"

// ValueType is the declared type of a replicated column.
type ValueType string

const (
	ValueTypeString   ValueType = "string"
	ValueTypeInt      ValueType = "int"
	ValueTypeDatetime ValueType = "datetime"
)

func ParseValueType(s string) (ValueType, error) {
	switch vt := ValueType(strings.ToLower(strings.TrimSpace(s))); vt {
	case ValueTypeString, ValueTypeInt, ValueTypeDatetime:
		return vt, nil
	default:
		return "", xerrors.Errorf("unknown column type %q, expected one of string, int, datetime", s)
	}
}

// KeysType selects the physical encoding of the row key in the target table.
type KeysType string

const (
	KeysTypeInt    KeysType = "int"
	KeysTypeString KeysType = "string"
)

func ParseKeysType(s string) (KeysType, error) {
	switch kt := KeysType(strings.ToLower(strings.TrimSpace(s))); kt {
	case KeysTypeInt, KeysTypeString:
		return kt, nil
	default:
		return "", xerrors.Errorf("unknown keys type %q, expected one of int, string", s)
	}
}

type ColumnSpec struct {
	Name           string
	Type           ValueType
	SecondaryIndex bool
}

type SourceParams struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	Table           string
	KeyColumn       string
	TruncateOnStart bool
	RetryDelay      time.Duration
}

type TargetParams struct {
	ClusterName string
	Host        string
	Port        int
	Keyspace    string
	Table       string
	KeysType    KeysType
	RetryDelay  time.Duration
	Location    *time.Location
}

// Mapping pairs one source table with one target keyspace/table. It is built once
// by the config loader and never changed afterwards.
type Mapping struct {
	Source       SourceParams
	Target       TargetParams
	PollInterval time.Duration
	BatchSize    int
	Columns      []ColumnSpec
}

// ID identifies the mapping; two mappings with the same ID are duplicates.
func (m *Mapping) ID() string {
	return fmt.Sprintf("%s:%d__%s_%s__%s:%d",
		m.Source.Host, m.Source.Port, m.Source.Database, m.Source.Table, m.Target.Host, m.Target.Port)
}

func (m *Mapping) Column(name string) (ColumnSpec, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// String is safe to log: the source password is masked.
func (m *Mapping) String() string {
	cols := make([]string, 0, len(m.Columns))
	for _, c := range m.Columns {
		cols = append(cols, fmt.Sprintf("%s:%s(index=%t)", c.Name, c.Type, c.SecondaryIndex))
	}
	return fmt.Sprintf(
		"truncate:%t keysType:%s sourceRetryDelay:%s targetRetryDelay:%s pollInterval:%s batchSize:%d "+
			"mysql:%s@%s:%d/%s.%s key:%s cassandra:%s:%d/%s.%s columns:[%s]",
		m.Source.TruncateOnStart, m.Target.KeysType, m.Source.RetryDelay, m.Target.RetryDelay, m.PollInterval, m.BatchSize,
		m.Source.User, m.Source.Host, m.Source.Port, m.Source.Database, m.Source.Table, m.Source.KeyColumn,
		m.Target.Host, m.Target.Port, m.Target.Keyspace, m.Target.Table, strings.Join(cols, ", "),
	)
}
