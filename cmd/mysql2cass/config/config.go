package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/doublecloud/mysql2cass/internal/logger"
	"github.com/doublecloud/mysql2cass/pkg/abstract/model"
	"github.com/hashicorp/go-multierror"
	"go.ytsaurus.tech/library/go/core/log"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// LoadMappings reads, validates and converts the configuration file at path.
func LoadMappings(path string) ([]*model.Mapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("unable to read yaml config file: %w", err)
	}
	mappings, err := ParseMappings(raw)
	if err != nil {
		return nil, xerrors.Errorf("invalid config %s: %w", path, err)
	}
	return mappings, nil
}

func ParseMappings(raw []byte) ([]*model.Mapping, error) {
	view, err := ParseConfigYaml(raw)
	if err != nil {
		return nil, xerrors.Errorf("unable to parse yaml: %w", err)
	}
	if len(view.Mappings) == 0 {
		return nil, xerrors.New("config has no mappings")
	}

	var errs error
	mappings := make([]*model.Mapping, 0, len(view.Mappings))
	ids := map[string]int{}
	for i, mv := range view.Mappings {
		if err := mv.Validate(); err != nil {
			errs = multierror.Append(errs, prefixed(fmt.Sprintf("mappings[%d]", i), err)...)
			continue
		}
		mapping, err := mv.Mapping()
		if err != nil {
			errs = multierror.Append(errs, xerrors.Errorf("mappings[%d]: %w", i, err))
			continue
		}
		if prev, ok := ids[mapping.ID()]; ok {
			errs = multierror.Append(errs, xerrors.Errorf("mappings[%d]: duplicates mappings[%d] (%s)", i, prev, mapping.ID()))
			continue
		}
		ids[mapping.ID()] = i
		mappings = append(mappings, mapping)
	}
	if errs != nil {
		return nil, errs
	}
	logger.Log.Info("config loaded", log.Int("mappings", len(mappings)))
	return mappings, nil
}

// ParseConfigYaml decodes the file into its yaml view. ${VAR} references in string
// values are replaced from the environment; unknown keys are rejected.
func ParseConfigYaml(raw []byte) (*ConfigYamlView, error) {
	var tree map[string]interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	expanded, err := yaml.Marshal(substituteEnv(tree))
	if err != nil {
		return nil, xerrors.Errorf("unable to re-encode config: %w", err)
	}

	var view ConfigYamlView
	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&view); err != nil {
		return nil, err
	}
	return &view, nil
}

// substituteEnv recursively iterates over an interface{} (which might be a string,
// a map, or a slice) and applies os.ExpandEnv to all string values.
func substituteEnv(val interface{}) interface{} {
	switch v := val.(type) {
	case string:
		return os.ExpandEnv(v)
	case map[string]interface{}:
		for key, inner := range v {
			v[key] = substituteEnv(inner)
		}
		return v
	case []interface{}:
		for i, inner := range v {
			v[i] = substituteEnv(inner)
		}
		return v
	default:
		return v
	}
}

func prefixed(prefix string, err error) []error {
	var merr *multierror.Error
	if !xerrors.As(err, &merr) {
		return []error{xerrors.Errorf("%s: %w", prefix, err)}
	}
	res := make([]error, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		res = append(res, xerrors.Errorf("%s: %w", prefix, e))
	}
	return res
}

func loadLocation(name string) (*time.Location, error) {
	switch strings.TrimSpace(name) {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(name)
	}
}
