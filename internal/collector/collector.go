// Package collector builds a column list from interactive answers.
package collector

import (
	"fmt"
	"io"
	"strings"

	"db-transfer/internal/dialect"
	"db-transfer/internal/schema"

	"github.com/fatih/color"
	"github.com/siddontang/go-log/log"
)

// Prompter is the console the collector talks to.
type Prompter interface {
	Ask(question string) (string, error)
	Confirm(question string) (bool, error)
}

const (
	askContinue = "Do you want to add a column to the table? (yes/no): "
	askName     = "Enter column name: "
	askType     = "Enter column type (T for TEXT, I for INTEGER, G for GEOMETRY): "
	askSubtype  = "Enter the geometry type (A for MULTIPOINT, B for MULTILINESTRING, C for MULTIPOLYGON): "
	askSRID     = "Enter SRID (default 0, type 'default' or specific number): "
)

// Collect asks for columns until the operator declines to add another or input ends.
// Unknown subtype codes fall back to MULTIPOINT and unusable SRIDs to 0.
// A column whose name is not a valid identifier, or repeats an earlier one, is skipped.
func Collect(p Prompter, warn io.Writer) (schema.ColumnSpec, error) {
	var spec schema.ColumnSpec
	for {
		more, err := p.Confirm(askContinue)
		if err != nil {
			return nil, err
		}
		if !more {
			return spec, nil
		}

		col, err := collectColumn(p, warn)
		if err == io.EOF {
			return spec, nil
		}
		if err != nil {
			return nil, err
		}
		if col == nil {
			continue
		}
		if err := spec.Add(col.Name, col.Type); err != nil {
			color.New(color.FgYellow).Fprintf(warn, "Skipping column: %v\n", err)
		}
	}
}

func collectColumn(p Prompter, warn io.Writer) (*schema.Column, error) {
	name, err := p.Ask(askName)
	if err != nil {
		return nil, err
	}

	code, err := p.Ask(askType)
	if err != nil {
		return nil, err
	}
	typ := schema.TypeFromCode(code)

	if typ == schema.TypeGeometry {
		subCode, err := p.Ask(askSubtype)
		if err != nil && err != io.EOF {
			return nil, err
		}
		rawSRID, err := p.Ask(askSRID)
		if err != nil && err != io.EOF {
			return nil, err
		}
		srid, perr := schema.ParseSRID(rawSRID)
		if perr != nil {
			log.Warnf("%v, using 0", perr)
			color.New(color.FgYellow).Fprintf(warn, "%v, using SRID 0\n", perr)
		}
		typ = schema.GeometryType(schema.SubtypeFromCode(subCode), srid)
	}

	if err := dialect.ValidateIdentifier(name); err != nil {
		color.New(color.FgYellow).Fprintf(warn, "Skipping column: %v\n", err)
		return nil, nil
	}
	if err := schema.ValidateType(typ); err != nil {
		color.New(color.FgYellow).Fprintf(warn, "Skipping column %s: %v\n", name, err)
		return nil, nil
	}
	return &schema.Column{Name: name, Type: typ}, nil
}

// Describe renders a column list the way the reconciler prints structures.
func Describe(spec schema.ColumnSpec) string {
	var b strings.Builder
	for _, c := range spec {
		fmt.Fprintf(&b, "  %s: %s\n", c.Name, c.Type)
	}
	return b.String()
}
