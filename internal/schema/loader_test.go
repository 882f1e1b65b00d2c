package schema_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"db-transfer/internal/failure"
	"db-transfer/internal/schema"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		content   string
		wantTable string
		wantCols  []string
		wantKind  failure.Kind
	}{
		{
			name:      "json",
			file:      "adressen.json",
			content:   `{"table_name": "adressen", "columns": {"Naam": "TEXT", "Adres": "TEXT", "geometry": "GEOMETRY(MULTIPOINT, 0)"}}`,
			wantTable: "adressen",
			wantCols:  []string{"Naam", "Adres", "geometry"},
		},
		{
			name:      "yaml",
			file:      "roads.yaml",
			content:   "table_name: roads\ncolumns:\n  id: INTEGER\n  name: TEXT\n",
			wantTable: "roads",
			wantCols:  []string{"id", "name"},
		},
		{
			name:     "missing table_name",
			file:     "a.json",
			content:  `{"columns": {"a": "TEXT"}}`,
			wantKind: failure.Input,
		},
		{
			name:     "missing columns",
			file:     "a.json",
			content:  `{"table_name": "a"}`,
			wantKind: failure.Input,
		},
		{
			name:     "malformed",
			file:     "a.json",
			content:  `{"table_name": "a", "columns": {`,
			wantKind: failure.Input,
		},
		{
			name:     "invalid table name",
			file:     "a.json",
			content:  `{"table_name": "a b", "columns": {"a": "TEXT"}}`,
			wantKind: failure.Input,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := schema.Load(writeFile(t, tt.file, tt.content))
			if tt.wantKind != failure.Unknown {
				if failure.KindOf(err) != tt.wantKind {
					t.Fatalf("Load() error = %v, want kind %s", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if def.Name != tt.wantTable {
				t.Errorf("Name = %q, want %q", def.Name, tt.wantTable)
			}
			if got := def.Columns.Names(); !reflect.DeepEqual(got, tt.wantCols) {
				t.Errorf("Columns = %v, want %v", got, tt.wantCols)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := schema.Load(filepath.Join(t.TempDir(), "nope.json"))
	if failure.KindOf(err) != failure.NotFound {
		t.Errorf("Load() error = %v, want not-found", err)
	}
}
