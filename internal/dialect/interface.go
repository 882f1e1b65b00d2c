package dialect

// Target describes where a database lives. Fields a driver does not need are ignored.
type Target struct {
	Host     string
	Port     int
	DBName   string
	User     string
	Password string
	SSLMode  string
}

// Dialect abstracts database-specific operations.
type Dialect interface {
	// Driver is the name registered with database/sql.
	Driver() string
	DSN(t Target) (string, error)
	DefaultPort() int
	DefaultSchema() string

	// Identifiers
	Fold(name string) string
	Ident(name string) string
	Qualify(schema, table string) string

	// Metadata Queries (Catalog Introspection)
	// Each returns the statement and its bound arguments.
	TableExistsQuery(schema, table string) (string, []interface{})
	ColumnsQuery(schema, table string) (string, []interface{})
	TablesQuery(schema string) (string, []interface{})

	// Query Generation
	Placeholder(index int) string // Returns ?, $1, @p1, :1
	MaxParams() int               // 0 means one row per statement
	TransactionalDDL() bool
}
