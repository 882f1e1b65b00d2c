// Package reconcile makes a destination table match a desired column list.
package reconcile

import (
	"fmt"
	"strings"

	"db-transfer/internal/schema"
)

// Catalog type markers used by PostGIS; other dialects map their spatial types onto them.
const (
	UserDefined    = "USER-DEFINED"
	GeometryMarker = "GEOMETRY"
	// Missing is reported as the found type of a desired column the table lacks.
	Missing = "<missing>"
)

// Mismatch describes a desired column whose catalog type differs.
type Mismatch struct {
	Column   string
	Expected string
	Found    string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("Column: %s, Expected Type: %s, Found Type: %s", m.Column, m.Expected, m.Found)
}

// Compare checks every desired column against the snapshot, in desired order.
//
// Geometry columns match when the catalog reports USER-DEFINED and the
// underlying type is GEOMETRY or contains the desired subtype. The SRID is not
// checked. Other columns match when the first token of the desired type equals
// the catalog data type. Catalog columns not in desired are ignored.
func Compare(desired schema.ColumnSpec, actual schema.Snapshot) []Mismatch {
	var mismatches []Mismatch
	for _, col := range desired {
		expected := strings.ToUpper(strings.TrimSpace(col.Type))
		got, ok := actual[strings.ToLower(col.Name)]
		if !ok {
			mismatches = append(mismatches, Mismatch{Column: col.Name, Expected: expected, Found: Missing})
			continue
		}

		udt := strings.ToUpper(got.UDTName)
		dataType := strings.ToUpper(got.DataType)

		if schema.IsGeometry(expected) {
			if !geometryMatches(expected, udt, dataType) {
				mismatches = append(mismatches, Mismatch{
					Column:   col.Name,
					Expected: expected,
					Found:    fmt.Sprintf("%s (%s)", dataType, udt),
				})
			}
			continue
		}

		if schema.BaseType(expected) != dataType {
			mismatches = append(mismatches, Mismatch{Column: col.Name, Expected: expected, Found: dataType})
		}
	}
	return mismatches
}

func geometryMatches(expected, udt, dataType string) bool {
	if dataType != UserDefined {
		return false
	}
	if udt == GeometryMarker {
		return true
	}
	// A bare GEOMETRY has no subtype and accepts any user-defined column.
	return strings.Contains(udt, schema.GeometrySubtype(expected))
}
