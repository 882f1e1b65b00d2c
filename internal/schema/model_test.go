package schema_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"db-transfer/internal/schema"

	"gopkg.in/yaml.v3"
)

func TestColumnSpecUnmarshalJSONKeepsOrder(t *testing.T) {
	data := []byte(`{"zeta": "TEXT", "alpha": "INTEGER", "geom": "GEOMETRY(MULTIPOINT, 0)", "mid": "TEXT"}`)

	var spec schema.ColumnSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := []string{"zeta", "alpha", "geom", "mid"}
	if got := spec.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if spec[2].Type != "GEOMETRY(MULTIPOINT, 0)" {
		t.Errorf("geom type = %q", spec[2].Type)
	}
}

func TestColumnSpecUnmarshalYAMLKeepsOrder(t *testing.T) {
	data := []byte("b: TEXT\na: INTEGER\nc: GEOMETRY(MULTIPOLYGON, 31370)\n")

	var spec schema.ColumnSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := schema.ColumnSpec{
		{Name: "b", Type: "TEXT"},
		{Name: "a", Type: "INTEGER"},
		{Name: "c", Type: "GEOMETRY(MULTIPOLYGON, 31370)"},
	}
	if !reflect.DeepEqual(spec, want) {
		t.Errorf("got %v, want %v", spec, want)
	}
}

func TestColumnSpecUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"array", `["a", "b"]`},
		{"non-string type", `{"a": 1}`},
		{"case-insensitive duplicate", `{"Name": "TEXT", "name": "TEXT"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var spec schema.ColumnSpec
			if err := json.Unmarshal([]byte(tt.data), &spec); err == nil {
				t.Errorf("expected error, got %v", spec)
			}
		})
	}
}

func TestColumnSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    schema.ColumnSpec
		wantErr bool
	}{
		{"valid", schema.ColumnSpec{{"id", "INTEGER"}, {"geom", "GEOMETRY(MULTIPOINT, 0)"}}, false},
		{"empty", schema.ColumnSpec{}, true},
		{"bad name", schema.ColumnSpec{{"my col", "TEXT"}}, true},
		{"duplicate", schema.ColumnSpec{{"a", "TEXT"}, {"A", "TEXT"}}, true},
		{"statement terminator", schema.ColumnSpec{{"a", "TEXT); DROP TABLE x;"}}, true},
		{"comment", schema.ColumnSpec{{"a", "TEXT -- trailing"}}, true},
		{"empty type", schema.ColumnSpec{{"a", " "}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestColumnSpecLookup(t *testing.T) {
	spec := schema.ColumnSpec{{"Naam", "TEXT"}}

	if c, ok := spec.Lookup("naam"); !ok || c.Type != "TEXT" {
		t.Errorf("Lookup(naam) = %v, %v", c, ok)
	}
	if _, ok := spec.Lookup("adres"); ok {
		t.Error("Lookup(adres) should not find a column")
	}
}

func TestLocationString(t *testing.T) {
	if got := (schema.Location{Schema: "public", Table: "parcels"}).String(); got != "public.parcels" {
		t.Errorf("String() = %q", got)
	}
	if got := (schema.Location{Table: "parcels"}).String(); got != "parcels" {
		t.Errorf("String() = %q", got)
	}
}
