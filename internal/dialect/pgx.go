package dialect

import "github.com/jackc/pgx/v5"

// PgxDialect is PostgresDialect served by the pgx stdlib driver.
type PgxDialect struct {
	PostgresDialect
}

func (d *PgxDialect) Driver() string { return "pgx" }

func (d *PgxDialect) DSN(t Target) (string, error) {
	return postgresURL(t, d.DefaultPort()), nil
}

func (d *PgxDialect) Ident(name string) string {
	return pgx.Identifier{d.Fold(name)}.Sanitize()
}

func (d *PgxDialect) Qualify(schema, table string) string {
	if schema == "" {
		schema = d.DefaultSchema()
	}
	return pgx.Identifier{d.Fold(schema), d.Fold(table)}.Sanitize()
}
