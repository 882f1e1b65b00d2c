package dialect

import "strings"

// SqliteDialect has a single namespace per file; the schema part of a location is ignored.
type SqliteDialect struct{}

func (d *SqliteDialect) Driver() string { return "sqlite3" }

func (d *SqliteDialect) DefaultPort() int { return 0 }

func (d *SqliteDialect) DefaultSchema() string { return "" }

// DSN is the database file path taken from DBName.
func (d *SqliteDialect) DSN(t Target) (string, error) {
	if t.DBName == "" {
		return "", errEmptyPath
	}
	return t.DBName, nil
}

func (d *SqliteDialect) Fold(name string) string { return strings.ToLower(name) }

func (d *SqliteDialect) Ident(name string) string { return quoteWith(d.Fold(name), `"`, `"`) }

func (d *SqliteDialect) Qualify(_, table string) string { return d.Ident(table) }

func (d *SqliteDialect) TableExistsQuery(_, table string) (string, []interface{}) {
	return `SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)`,
		[]interface{}{d.Fold(table)}
}

func (d *SqliteDialect) ColumnsQuery(_, table string) (string, []interface{}) {
	// Declared types are returned verbatim; GEOMETRY declarations map to USER-DEFINED.
	return `SELECT name, type, CASE WHEN upper(type) LIKE 'GEOMETRY%' THEN 'USER-DEFINED' ELSE type END FROM pragma_table_info(?) ORDER BY cid`,
		[]interface{}{d.Fold(table)}
}

func (d *SqliteDialect) TablesQuery(_ string) (string, []interface{}) {
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`, nil
}

func (d *SqliteDialect) Placeholder(index int) string {
	return "?"
}

// SQLITE_MAX_VARIABLE_NUMBER for builds before 3.32.
func (d *SqliteDialect) MaxParams() int { return 999 }

func (d *SqliteDialect) TransactionalDDL() bool { return true }
