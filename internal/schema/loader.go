package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"db-transfer/internal/dialect"
	"db-transfer/internal/failure"

	"gopkg.in/yaml.v3"
)

// Load reads a table definition from a JSON or YAML file:
//
//	{ "table_name": "parcels", "columns": { "id": "INTEGER", "geom": "GEOMETRY(MULTIPOLYGON, 31370)" } }
//
// Column order in the file is preserved.
func Load(path string) (*TableDef, error) {
	const op = "load schema file"

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, failure.New(failure.NotFound, op, "file %s does not exist", path)
		}
		return nil, failure.Wrap(failure.Input, op, err)
	}

	var raw struct {
		Name    *string     `json:"table_name" yaml:"table_name"`
		Columns *ColumnSpec `json:"columns" yaml:"columns"`
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, failure.New(failure.Input, op, "%s: %v", path, err)
	}

	if raw.Name == nil || *raw.Name == "" {
		return nil, failure.New(failure.Input, op, "%s: missing \"table_name\"", path)
	}
	if raw.Columns == nil {
		return nil, failure.New(failure.Input, op, "%s: missing \"columns\"", path)
	}
	if err := dialect.ValidateIdentifier(*raw.Name); err != nil {
		return nil, failure.Wrap(failure.Input, op, err)
	}
	if err := raw.Columns.Validate(); err != nil {
		return nil, failure.Wrap(failure.Input, op, err)
	}

	return &TableDef{Name: *raw.Name, Columns: *raw.Columns}, nil
}
