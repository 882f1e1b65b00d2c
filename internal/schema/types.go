package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeGeometry is the keyword that marks a PostGIS geometry column.
const TypeGeometry = "GEOMETRY"

// DefaultSubtype is used when a geometry subtype code is not recognised.
const DefaultSubtype = "MULTIPOINT"

var typeCodes = map[string]string{
	"T": "TEXT",
	"I": "INTEGER",
	"G": TypeGeometry,
}

var subtypeCodes = map[string]string{
	"A": "MULTIPOINT",
	"B": "MULTILINESTRING",
	"C": "MULTIPOLYGON",
}

// TypeFromCode expands a one-letter type code. Any other input is returned upper-cased.
func TypeFromCode(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if t, ok := typeCodes[c]; ok {
		return t
	}
	return c
}

// SubtypeFromCode expands a geometry subtype code, falling back to DefaultSubtype.
func SubtypeFromCode(code string) string {
	if t, ok := subtypeCodes[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return t
	}
	return DefaultSubtype
}

// ParseSRID accepts a non-negative integer, or "default"/"" for 0.
func ParseSRID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "default") {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid SRID %q", s)
	}
	return n, nil
}

// GeometryType renders GEOMETRY(<subtype>, <srid>).
func GeometryType(subtype string, srid int) string {
	return fmt.Sprintf("%s(%s, %d)", TypeGeometry, subtype, srid)
}

// IsGeometry reports whether a type descriptor names a geometry column.
func IsGeometry(typ string) bool {
	return strings.Contains(strings.ToUpper(typ), TypeGeometry)
}

// GeometrySubtype extracts the subtype token from GEOMETRY(<subtype>, ...).
// It returns "" for a bare GEOMETRY.
func GeometrySubtype(typ string) string {
	t := strings.ToUpper(typ)
	open := strings.Index(t, "(")
	if open < 0 {
		return ""
	}
	inner := t[open+1:]
	if end := strings.IndexAny(inner, ",)"); end >= 0 {
		inner = inner[:end]
	}
	return strings.TrimSpace(inner)
}

// BaseType is the first whitespace-separated token of a descriptor, upper-cased.
func BaseType(typ string) string {
	fields := strings.Fields(strings.ToUpper(typ))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ValidateType rejects descriptors that could terminate or comment out the surrounding statement.
func ValidateType(typ string) error {
	if strings.TrimSpace(typ) == "" {
		return fmt.Errorf("type is empty")
	}
	for _, bad := range []string{";", "--", "/*", "*/"} {
		if strings.Contains(typ, bad) {
			return fmt.Errorf("type %q contains forbidden token %q", typ, bad)
		}
	}
	return nil
}
