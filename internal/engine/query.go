package engine

import (
	"fmt"
	"strings"

	"db-transfer/internal/dialect"
	"db-transfer/internal/schema"
)

// qualify validates and renders a table location.
func qualify(d dialect.Dialect, loc schema.Location) (string, error) {
	if loc.Schema != "" {
		if err := dialect.ValidateIdentifier(loc.Schema); err != nil {
			return "", fmt.Errorf("schema: %w", err)
		}
	}
	if err := dialect.ValidateIdentifier(loc.Table); err != nil {
		return "", fmt.Errorf("table: %w", err)
	}
	return d.Qualify(loc.Schema, loc.Table), nil
}

func columnList(d dialect.Dialect, cols []string) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("column list is empty")
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		if err := dialect.ValidateIdentifier(c); err != nil {
			return "", err
		}
		quoted[i] = d.Ident(c)
	}
	return strings.Join(quoted, ", "), nil
}

// CreateTableQuery builds CREATE TABLE with one "<column> <type>" fragment per
// column, in ColumnSpec order.
func CreateTableQuery(d dialect.Dialect, loc schema.Location, cols schema.ColumnSpec) (string, error) {
	table, err := qualify(d, loc)
	if err != nil {
		return "", err
	}
	if err := cols.Validate(); err != nil {
		return "", err
	}

	fragments := make([]string, len(cols))
	for i, c := range cols {
		fragments[i] = d.Ident(c.Name) + " " + strings.TrimSpace(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(fragments, ", ")), nil
}

func DropTableQuery(d dialect.Dialect, loc schema.Location) (string, error) {
	table, err := qualify(d, loc)
	if err != nil {
		return "", err
	}
	return "DROP TABLE " + table, nil
}

func SelectQuery(d dialect.Dialect, loc schema.Location, cols []string) (string, error) {
	table, err := qualify(d, loc)
	if err != nil {
		return "", err
	}
	list, err := columnList(d, cols)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT %s FROM %s", list, table), nil
}

// InsertQuery builds a parameterized INSERT with rows value tuples.
func InsertQuery(d dialect.Dialect, loc schema.Location, cols []string, rows int) (string, error) {
	table, err := qualify(d, loc)
	if err != nil {
		return "", err
	}
	list, err := columnList(d, cols)
	if err != nil {
		return "", err
	}
	if rows < 1 {
		return "", fmt.Errorf("row count must be positive, got %d", rows)
	}

	tuples := make([]string, rows)
	for r := 0; r < rows; r++ {
		offset := r * len(cols)
		tuples[r] = "(" + dialect.GeneratePlaceholders(len(cols), func(i int) string {
			return d.Placeholder(offset + i)
		}) + ")"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, list, strings.Join(tuples, ", ")), nil
}

// RowsPerStatement is how many rows of width columns fit in one INSERT.
// It returns 1 for dialects without multi-row VALUES.
func RowsPerStatement(d dialect.Dialect, columns int) int {
	limit := d.MaxParams()
	if limit <= 0 || columns <= 0 {
		return 1
	}
	n := limit / columns
	if n < 1 {
		return 1
	}
	return n
}
