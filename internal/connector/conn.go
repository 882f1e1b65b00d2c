package connector

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"db-transfer/internal/dialect"
	"db-transfer/internal/failure"

	"github.com/siddontang/go-log/log"
)

// Conn is an open database handle. Every statement run through it is echoed
// as "Executing SQL: <stmt>" before execution.
type Conn struct {
	db      *sql.DB
	dialect dialect.Dialect
	name    string
	dbName  string
	out     io.Writer
	tunnel  io.Closer
}

// Dialect returns the SQL dialect of the connection.
func (c *Conn) Dialect() dialect.Dialect { return c.dialect }

// Name is the configuration key the connection was opened from.
func (c *Conn) Name() string { return c.name }

// DBName is the database name on the server.
func (c *Conn) DBName() string { return c.dbName }

// maxEcho bounds the echoed text; multi-row INSERTs can carry thousands of placeholders.
const maxEcho = 400

func (c *Conn) echo(query string) {
	if len(query) > maxEcho {
		fmt.Fprintf(c.out, "Executing SQL: %s ... (%d chars)\n", query[:maxEcho], len(query))
		return
	}
	fmt.Fprintf(c.out, "Executing SQL: %s\n", query)
}

func (c *Conn) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	c.echo(query)
	return c.db.ExecContext(ctx, query, args...)
}

func (c *Conn) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	c.echo(query)
	return c.db.QueryContext(ctx, query, args...)
}

func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	c.echo(query)
	return c.db.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction whose statements are echoed like the Conn's.
func (c *Conn) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, failure.Wrap(failure.SQL, "begin transaction", err)
	}
	return &Tx{tx: tx, conn: c}, nil
}

// Ping checks the connection is still alive.
func (c *Conn) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return failure.Wrap(failure.Connection, "ping "+c.dbName, err)
	}
	return nil
}

// Close releases the pool and any SSH tunnel. It is safe to call more than once.
func (c *Conn) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if c.tunnel != nil {
		if terr := c.tunnel.Close(); terr != nil {
			log.Warnf("closing ssh tunnel for %s: %v", c.dbName, terr)
		}
		c.tunnel = nil
	}
	log.Debugf("connection to %s closed", c.dbName)
	return err
}

// Tx is a transaction on a Conn.
type Tx struct {
	tx   *sql.Tx
	conn *Conn
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	t.conn.echo(query)
	return t.tx.ExecContext(ctx, query, args...)
}

// PrepareContext echoes the statement once; executions are not echoed again.
func (t *Tx) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	t.conn.echo(query)
	return t.tx.PrepareContext(ctx, query)
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}
