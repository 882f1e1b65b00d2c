package dialect

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

type MSSQLDialect struct{}

// Helper: MSSQL Driver (go-mssqldb) prefers @p1, @p2 named parameters over ?
// especially when prepared statements are involved or simple Exec.

func (d *MSSQLDialect) Driver() string { return "sqlserver" }

func (d *MSSQLDialect) DefaultPort() int { return 1433 }

func (d *MSSQLDialect) DefaultSchema() string { return "dbo" }

func (d *MSSQLDialect) DSN(t Target) (string, error) {
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(t.User, t.Password),
		Host:     net.JoinHostPort(t.Host, strconv.Itoa(portOr(t.Port, d.DefaultPort()))),
		RawQuery: url.Values{"database": {t.DBName}}.Encode(),
	}
	return u.String(), nil
}

// SQL Server compares identifiers through the database collation, so names keep their case.
func (d *MSSQLDialect) Fold(name string) string { return name }

func (d *MSSQLDialect) Ident(name string) string { return quoteWith(name, "[", "]") }

func (d *MSSQLDialect) Qualify(schema, table string) string {
	if schema == "" {
		schema = d.DefaultSchema()
	}
	return d.Ident(schema) + "." + d.Ident(table)
}

func (d *MSSQLDialect) TableExistsQuery(schema, table string) (string, []interface{}) {
	return `SELECT CASE WHEN EXISTS (SELECT 1 FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2) THEN 1 ELSE 0 END`,
		[]interface{}{d.schemaOr(schema), table}
}

func (d *MSSQLDialect) ColumnsQuery(schema, table string) (string, []interface{}) {
	// geometry and geography are CLR types; report them as USER-DEFINED like PostGIS.
	return `SELECT COLUMN_NAME, DATA_TYPE, CASE WHEN DATA_TYPE IN ('geometry', 'geography') THEN 'USER-DEFINED' ELSE DATA_TYPE END FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2 ORDER BY ORDINAL_POSITION`,
		[]interface{}{d.schemaOr(schema), table}
}

func (d *MSSQLDialect) TablesQuery(schema string) (string, []interface{}) {
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`,
		[]interface{}{d.schemaOr(schema)}
}

func (d *MSSQLDialect) Placeholder(index int) string {
	return fmt.Sprintf("@p%d", index+1)
}

// SQL Server caps a request at 2100 parameters.
func (d *MSSQLDialect) MaxParams() int { return 2000 }

func (d *MSSQLDialect) TransactionalDDL() bool { return true }

func (d *MSSQLDialect) schemaOr(schema string) string {
	if schema == "" {
		return d.DefaultSchema()
	}
	return schema
}
