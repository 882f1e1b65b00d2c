package dialect

import (
	"fmt"
	"strings"
)

// GetDialect returns the Dialect implementation for a configured driver name.
func GetDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "postgres", "postgresql":
		return &PostgresDialect{}, nil
	case "pgx":
		return &PgxDialect{}, nil
	case "mysql":
		return &MysqlDialect{}, nil
	case "sqlserver", "mssql":
		return &MSSQLDialect{}, nil
	case "oracle":
		return &OracleDialect{}, nil
	case "sqlite", "sqlite3":
		return &SqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// Ensure interface implementation
var _ Dialect = (*PostgresDialect)(nil)
var _ Dialect = (*PgxDialect)(nil)
var _ Dialect = (*MysqlDialect)(nil)
var _ Dialect = (*MSSQLDialect)(nil)
var _ Dialect = (*OracleDialect)(nil)
var _ Dialect = (*SqliteDialect)(nil)
