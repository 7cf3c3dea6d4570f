package config

import (
	"fmt"
	"strings"

	"github.com/doublecloud/mysql2cass/pkg/abstract/model"
	"github.com/doublecloud/mysql2cass/pkg/providers/cassandra"
	"github.com/doublecloud/mysql2cass/pkg/util"
	"github.com/doublecloud/mysql2cass/pkg/util/set"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/xerrors"
)

const minColumns = 2

type ColumnYamlView struct {
	Name           string `yaml:"name"`
	Type           string `yaml:"type"`
	SecondaryIndex bool   `yaml:"secondary_index"`
}

type SourceYamlView struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	Table           string `yaml:"table"`
	KeyColumn       string `yaml:"key_column"`
	TruncateOnStart bool   `yaml:"truncate_on_start"`
	RetryDelayMs    int    `yaml:"retry_delay_ms"`
}

type TargetYamlView struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	KeysType     string `yaml:"keys_type"`
	RetryDelayMs int    `yaml:"retry_delay_ms"`
	ClusterName  string `yaml:"cluster_name"`
	Keyspace     string `yaml:"keyspace"`
	Table        string `yaml:"table"`
	Timezone     string `yaml:"timezone"`
}

type MappingYamlView struct {
	PollIntervalMs int              `yaml:"poll_interval_ms"`
	BatchSize      int              `yaml:"batch_size"`
	Source         SourceYamlView   `yaml:"source"`
	Target         TargetYamlView   `yaml:"target"`
	Columns        []ColumnYamlView `yaml:"columns"`
}

type ConfigYamlView struct {
	Mappings []MappingYamlView `yaml:"mappings"`
}

func required(errs error, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return multierror.Append(errs, xerrors.Errorf("%s is required", field))
	}
	return errs
}

func positive(errs error, field string, value int) error {
	if value <= 0 {
		return multierror.Append(errs, xerrors.Errorf("%s must be positive, got %d", field, value))
	}
	return errs
}

func port(errs error, field string, value int) error {
	if value < 1 || value > 65535 {
		return multierror.Append(errs, xerrors.Errorf("%s must be in 1..65535, got %d", field, value))
	}
	return errs
}

// Validate reports every problem of the mapping at once.
func (v MappingYamlView) Validate() error {
	var errs error
	errs = positive(errs, "poll_interval_ms", v.PollIntervalMs)
	errs = positive(errs, "batch_size", v.BatchSize)

	errs = required(errs, "source.host", v.Source.Host)
	errs = port(errs, "source.port", v.Source.Port)
	errs = required(errs, "source.user", v.Source.User)
	errs = required(errs, "source.database", v.Source.Database)
	errs = required(errs, "source.table", v.Source.Table)
	errs = required(errs, "source.key_column", v.Source.KeyColumn)
	errs = positive(errs, "source.retry_delay_ms", v.Source.RetryDelayMs)

	errs = required(errs, "target.host", v.Target.Host)
	errs = port(errs, "target.port", v.Target.Port)
	errs = positive(errs, "target.retry_delay_ms", v.Target.RetryDelayMs)
	if _, err := model.ParseKeysType(v.Target.KeysType); err != nil {
		errs = multierror.Append(errs, xerrors.Errorf("target.keys_type: %w", err))
	}
	if _, err := loadLocation(v.Target.Timezone); err != nil {
		errs = multierror.Append(errs, xerrors.Errorf("target.timezone: %w", err))
	}

	if len(v.Columns) < minColumns {
		errs = multierror.Append(errs, xerrors.Errorf("at least %d columns are required, got %d", minColumns, len(v.Columns)))
	}
	seen := set.New[string]()
	for i, c := range v.Columns {
		field := fmt.Sprintf("columns[%d]", i)
		errs = required(errs, field+".name", c.Name)
		if _, err := model.ParseValueType(c.Type); err != nil {
			errs = multierror.Append(errs, xerrors.Errorf("%s.type: %w", field, err))
		}
		if strings.EqualFold(c.Name, cassandra.KeyColumn) {
			errs = multierror.Append(errs, xerrors.Errorf("%s: column name %q is reserved for the row key", field, c.Name))
		}
		if !seen.AddNew(c.Name) && c.Name != "" {
			errs = multierror.Append(errs, xerrors.Errorf("%s: duplicate column %q", field, c.Name))
		}
	}
	return errs
}

// Mapping converts a validated view, filling the optional target fields.
func (v MappingYamlView) Mapping() (*model.Mapping, error) {
	keysType, err := model.ParseKeysType(v.Target.KeysType)
	if err != nil {
		return nil, err
	}
	loc, err := loadLocation(v.Target.Timezone)
	if err != nil {
		return nil, err
	}
	columns := make([]model.ColumnSpec, 0, len(v.Columns))
	for _, c := range v.Columns {
		vt, err := model.ParseValueType(c.Type)
		if err != nil {
			return nil, err
		}
		columns = append(columns, model.ColumnSpec{Name: c.Name, Type: vt, SecondaryIndex: c.SecondaryIndex})
	}

	target := model.TargetParams{
		ClusterName: v.Target.ClusterName,
		Host:        v.Target.Host,
		Port:        v.Target.Port,
		Keyspace:    v.Target.Keyspace,
		Table:       v.Target.Table,
		KeysType:    keysType,
		RetryDelay:  util.Milliseconds(v.Target.RetryDelayMs),
		Location:    loc,
	}
	if target.ClusterName == "" {
		target.ClusterName = cassandra.DefaultClusterName
	}
	if target.Keyspace == "" {
		target.Keyspace = v.Source.Database
	}
	if target.Table == "" {
		target.Table = v.Source.Table
	}

	return &model.Mapping{
		Source: model.SourceParams{
			Host:            v.Source.Host,
			Port:            v.Source.Port,
			User:            v.Source.User,
			Password:        v.Source.Password,
			Database:        v.Source.Database,
			Table:           v.Source.Table,
			KeyColumn:       v.Source.KeyColumn,
			TruncateOnStart: v.Source.TruncateOnStart,
			RetryDelay:      util.Milliseconds(v.Source.RetryDelayMs),
		},
		Target:       target,
		PollInterval: util.Milliseconds(v.PollIntervalMs),
		BatchSize:    v.BatchSize,
		Columns:      columns,
	}, nil
}
