package dialect

import (
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MysqlDialect treats the database name as the schema. An empty schema means
// the database selected in the DSN.
type MysqlDialect struct{}

// mysqlSpatial types are reported as USER-DEFINED so geometry comparison behaves as on PostGIS.
const mysqlSpatial = `'geometry','point','linestring','polygon','multipoint','multilinestring','multipolygon','geometrycollection'`

func (d *MysqlDialect) Driver() string { return "mysql" }

func (d *MysqlDialect) DefaultPort() int { return 3306 }

func (d *MysqlDialect) DefaultSchema() string { return "" }

func (d *MysqlDialect) DSN(t Target) (string, error) {
	cfg := mysql.NewConfig()
	cfg.User = t.User
	cfg.Passwd = t.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(t.Host, strconv.Itoa(portOr(t.Port, d.DefaultPort())))
	cfg.DBName = t.DBName
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func (d *MysqlDialect) Fold(name string) string { return strings.ToLower(name) }

func (d *MysqlDialect) Ident(name string) string { return quoteWith(d.Fold(name), "`", "`") }

func (d *MysqlDialect) Qualify(schema, table string) string {
	if schema == "" {
		return d.Ident(table)
	}
	return d.Ident(schema) + "." + d.Ident(table)
}

func (d *MysqlDialect) TableExistsQuery(schema, table string) (string, []interface{}) {
	return `SELECT EXISTS (SELECT 1 FROM information_schema.TABLES WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE()) AND TABLE_NAME = ?)`,
		[]interface{}{d.Fold(schema), d.Fold(table)}
}

func (d *MysqlDialect) ColumnsQuery(schema, table string) (string, []interface{}) {
	return `SELECT COLUMN_NAME, DATA_TYPE, CASE WHEN DATA_TYPE IN (` + mysqlSpatial + `) THEN 'USER-DEFINED' ELSE DATA_TYPE END FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE()) AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`,
		[]interface{}{d.Fold(schema), d.Fold(table)}
}

func (d *MysqlDialect) TablesQuery(schema string) (string, []interface{}) {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE()) AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`,
		[]interface{}{d.Fold(schema)}
}

func (d *MysqlDialect) Placeholder(index int) string {
	return "?"
}

func (d *MysqlDialect) MaxParams() int { return 65535 }

// DDL statements commit implicitly in MySQL.
func (d *MysqlDialect) TransactionalDDL() bool { return false }
