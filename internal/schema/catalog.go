package schema

import (
	"context"
	"database/sql"
	"strings"

	"db-transfer/internal/dialect"
	"db-transfer/internal/failure"
)

// Queryer is the read side of a database handle.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Catalog reads table metadata through the dialect's catalog queries.
// Nothing is cached; every call goes to the database.
type Catalog struct {
	q Queryer
	d dialect.Dialect
}

func NewCatalog(q Queryer, d dialect.Dialect) *Catalog {
	return &Catalog{q: q, d: d}
}

// TableExists reports whether loc names an existing base table.
func (c *Catalog) TableExists(ctx context.Context, loc Location) (bool, error) {
	query, args := c.d.TableExistsQuery(loc.Schema, loc.Table)

	var n int64
	if err := c.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, failure.Wrap(failure.SQL, "check table "+loc.String(), err)
	}
	return n > 0, nil
}

// Snapshot returns the current column types of loc, keyed by lower-cased column name.
func (c *Catalog) Snapshot(ctx context.Context, loc Location) (Snapshot, error) {
	op := "read columns of " + loc.String()
	query, args := c.d.ColumnsQuery(loc.Schema, loc.Table)

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, failure.Wrap(failure.SQL, op, err)
	}
	defer rows.Close()

	snap := make(Snapshot)
	for rows.Next() {
		var name, udt, dataType sql.NullString
		if err := rows.Scan(&name, &udt, &dataType); err != nil {
			return nil, failure.Wrap(failure.SQL, op, err)
		}
		if !name.Valid {
			continue
		}
		snap[strings.ToLower(name.String)] = ColumnType{
			UDTName:  strings.ToUpper(udt.String),
			DataType: strings.ToUpper(dataType.String),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, failure.Wrap(failure.SQL, op, err)
	}
	return snap, nil
}

// Tables lists the base tables of a schema.
func (c *Catalog) Tables(ctx context.Context, schemaName string) ([]string, error) {
	op := "list tables"
	query, args := c.d.TablesQuery(schemaName)

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, failure.Wrap(failure.SQL, op, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, failure.Wrap(failure.SQL, op, err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, failure.Wrap(failure.SQL, op, err)
	}
	return tables, nil
}
