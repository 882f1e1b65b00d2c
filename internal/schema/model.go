package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"db-transfer/internal/dialect"

	"gopkg.in/yaml.v3"
)

// Column is one entry of a table definition: a name and its SQL type descriptor.
type Column struct {
	Name string
	Type string
}

// ColumnSpec is an ordered column list. Order drives the CREATE TABLE column order,
// and names are unique case-insensitively.
type ColumnSpec []Column

// Location names a table inside a schema.
type Location struct {
	Schema string
	Table  string
}

func (l Location) String() string {
	if l.Schema == "" {
		return l.Table
	}
	return l.Schema + "." + l.Table
}

// TableDef is the content of a schema file.
type TableDef struct {
	Name    string     `json:"table_name" yaml:"table_name"`
	Columns ColumnSpec `json:"columns" yaml:"columns"`
}

// ColumnType is what the catalog reports for one column, upper-cased.
type ColumnType struct {
	UDTName  string
	DataType string
}

// Snapshot maps lower-cased column names to their catalog types.
type Snapshot map[string]ColumnType

// Add appends a column, rejecting a name already present in any case.
func (s *ColumnSpec) Add(name, typ string) error {
	if _, ok := s.Lookup(name); ok {
		return fmt.Errorf("duplicate column %q", name)
	}
	*s = append(*s, Column{Name: name, Type: typ})
	return nil
}

// Lookup finds a column by case-insensitive name.
func (s ColumnSpec) Lookup(name string) (Column, bool) {
	for _, c := range s {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// Names returns the column names in order.
func (s ColumnSpec) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Validate checks every name is a usable identifier and every type descriptor is safe to splice.
func (s ColumnSpec) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("column list is empty")
	}
	seen := make(map[string]bool, len(s))
	for _, c := range s {
		if err := dialect.ValidateIdentifier(c.Name); err != nil {
			return err
		}
		key := strings.ToLower(c.Name)
		if seen[key] {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[key] = true
		if err := ValidateType(c.Type); err != nil {
			return fmt.Errorf("column %q: %w", c.Name, err)
		}
	}
	return nil
}

// UnmarshalJSON reads a JSON object of name -> type, keeping key order.
func (s *ColumnSpec) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("columns must be a JSON object")
	}

	var out ColumnSpec
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name := tok.(string)

		var typ string
		if err := dec.Decode(&typ); err != nil {
			return fmt.Errorf("column %q: type must be a string", name)
		}
		if err := out.Add(name, typ); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}

// UnmarshalYAML reads a YAML mapping of name -> type, keeping key order.
func (s *ColumnSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: columns must be a mapping", node.Line)
	}

	var out ColumnSpec
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: column %q: type must be a string", val.Line, key.Value)
		}
		if err := out.Add(key.Value, val.Value); err != nil {
			return err
		}
	}

	*s = out
	return nil
}
