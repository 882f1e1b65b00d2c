package dialect

import (
	"fmt"
	"strings"

	go_ora "github.com/sijms/go-ora/v2"
)

// OracleDialect folds identifiers to upper case, which is how Oracle stores unquoted names.
// An empty schema means the connected user's schema.
type OracleDialect struct{}

func (d *OracleDialect) Driver() string { return "oracle" }

func (d *OracleDialect) DefaultPort() int { return 1521 }

func (d *OracleDialect) DefaultSchema() string { return "" }

// DSN uses DBName as the service name.
func (d *OracleDialect) DSN(t Target) (string, error) {
	return go_ora.BuildUrl(t.Host, portOr(t.Port, d.DefaultPort()), t.DBName, t.User, t.Password, nil), nil
}

func (d *OracleDialect) Fold(name string) string { return strings.ToUpper(name) }

func (d *OracleDialect) Ident(name string) string { return quoteWith(d.Fold(name), `"`, `"`) }

func (d *OracleDialect) Qualify(schema, table string) string {
	if schema == "" {
		return d.Ident(table)
	}
	return d.Ident(schema) + "." + d.Ident(table)
}

// Oracle treats '' as NULL, so NVL falls back to the session user.
func (d *OracleDialect) TableExistsQuery(schema, table string) (string, []interface{}) {
	return `SELECT COUNT(*) FROM ALL_TABLES WHERE OWNER = NVL(:1, USER) AND TABLE_NAME = :2`,
		[]interface{}{d.Fold(schema), d.Fold(table)}
}

func (d *OracleDialect) ColumnsQuery(schema, table string) (string, []interface{}) {
	// SDO_GEOMETRY is an object type; DATA_TYPE_OWNER is set for object types.
	return `SELECT COLUMN_NAME, DATA_TYPE, CASE WHEN DATA_TYPE_OWNER IS NOT NULL THEN 'USER-DEFINED' ELSE DATA_TYPE END FROM ALL_TAB_COLUMNS WHERE OWNER = NVL(:1, USER) AND TABLE_NAME = :2 ORDER BY COLUMN_ID`,
		[]interface{}{d.Fold(schema), d.Fold(table)}
}

func (d *OracleDialect) TablesQuery(schema string) (string, []interface{}) {
	return `SELECT TABLE_NAME FROM ALL_TABLES WHERE OWNER = NVL(:1, USER) ORDER BY TABLE_NAME`,
		[]interface{}{d.Fold(schema)}
}

func (d *OracleDialect) Placeholder(index int) string {
	// Oracle uses :1, :2, etc. (1-based index)
	return fmt.Sprintf(":%d", index+1)
}

// Oracle has no multi-row VALUES list; rows are inserted one statement at a time.
func (d *OracleDialect) MaxParams() int { return 0 }

// DDL (CREATE/DROP) implicitly commits the transaction in Oracle.
func (d *OracleDialect) TransactionalDDL() bool { return false }
