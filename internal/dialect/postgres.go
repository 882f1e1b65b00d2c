package dialect

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// PostgresDialect targets lib/pq. Unquoted Postgres identifiers fold to lower case,
// so names are folded before quoting to keep catalog lookups consistent.
type PostgresDialect struct{}

func (d *PostgresDialect) Driver() string { return "postgres" }

func (d *PostgresDialect) DefaultPort() int { return 5432 }

func (d *PostgresDialect) DefaultSchema() string { return "public" }

func (d *PostgresDialect) DSN(t Target) (string, error) {
	return postgresURL(t, d.DefaultPort()), nil
}

func (d *PostgresDialect) Fold(name string) string { return strings.ToLower(name) }

func (d *PostgresDialect) Ident(name string) string { return pq.QuoteIdentifier(d.Fold(name)) }

func (d *PostgresDialect) Qualify(schema, table string) string {
	if schema == "" {
		schema = d.DefaultSchema()
	}
	return d.Ident(schema) + "." + d.Ident(table)
}

func (d *PostgresDialect) TableExistsQuery(schema, table string) (string, []interface{}) {
	return `SELECT CASE WHEN EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2) THEN 1 ELSE 0 END`,
		[]interface{}{d.Fold(d.schemaOr(schema)), d.Fold(table)}
}

func (d *PostgresDialect) ColumnsQuery(schema, table string) (string, []interface{}) {
	// udt_name carries the PostGIS type name for USER-DEFINED columns.
	return `SELECT column_name, udt_name, data_type FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position`,
		[]interface{}{d.Fold(d.schemaOr(schema)), d.Fold(table)}
}

func (d *PostgresDialect) TablesQuery(schema string) (string, []interface{}) {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE' ORDER BY table_name`,
		[]interface{}{d.Fold(d.schemaOr(schema))}
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (d *PostgresDialect) MaxParams() int { return 65535 }

func (d *PostgresDialect) TransactionalDDL() bool { return true }

func (d *PostgresDialect) schemaOr(schema string) string {
	if schema == "" {
		return d.DefaultSchema()
	}
	return schema
}

// postgresURL is shared by lib/pq and pgx, which both accept the URL form.
func postgresURL(t Target, defPort int) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(t.Host, strconv.Itoa(portOr(t.Port, defPort))),
		Path:   "/" + t.DBName,
	}
	if t.Password != "" {
		u.User = url.UserPassword(t.User, t.Password)
	} else if t.User != "" {
		u.User = url.User(t.User)
	}
	sslmode := t.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u.RawQuery = url.Values{"sslmode": {sslmode}}.Encode()
	return u.String()
}
