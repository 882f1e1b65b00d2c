package reconcile

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"

	"db-transfer/internal/connector"
	"db-transfer/internal/dialect"
	"db-transfer/internal/engine"
	"db-transfer/internal/failure"
	"db-transfer/internal/schema"

	"github.com/fatih/color"
	"github.com/siddontang/go-log/log"
)

// Outcome is the result of EnsureTable.
type Outcome int

const (
	Created Outcome = iota + 1
	Unchanged
	Recreated
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Unchanged:
		return "unchanged"
	case Recreated:
		return "recreated"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

const askRecreate = "Do you want to drop and recreate the table? (yes/no): "

// Catalog answers existence and structure questions about tables.
type Catalog interface {
	TableExists(ctx context.Context, loc schema.Location) (bool, error)
	Snapshot(ctx context.Context, loc schema.Location) (schema.Snapshot, error)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// Conn is the destination connection.
type Conn interface {
	Dialect() dialect.Dialect
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	BeginTx(ctx context.Context) (*connector.Tx, error)
}

// Reconciler creates or recreates destination tables.
type Reconciler struct {
	conn    Conn
	catalog Catalog
	confirm Confirmer
	out     io.Writer
}

func New(conn Conn, catalog Catalog, confirm Confirmer, out io.Writer) *Reconciler {
	return &Reconciler{conn: conn, catalog: catalog, confirm: confirm, out: out}
}

// EnsureTable makes loc exist with the desired columns. An existing table whose
// structure differs is only dropped and recreated if the operator agrees.
func (r *Reconciler) EnsureTable(ctx context.Context, loc schema.Location, desired schema.ColumnSpec) (Outcome, error) {
	d := r.conn.Dialect()
	createSQL, err := engine.CreateTableQuery(d, loc, desired)
	if err != nil {
		return 0, failure.Wrap(failure.Input, "ensure table "+loc.String(), err)
	}

	exists, err := r.catalog.TableExists(ctx, loc)
	if err != nil {
		return 0, err
	}

	if !exists {
		if _, err := r.conn.ExecContext(ctx, createSQL); err != nil {
			return 0, failure.Wrap(failure.SQL, "create table "+loc.String(), err)
		}
		color.New(color.FgGreen).Fprintf(r.out, "Table '%s' created successfully.\n", loc)
		log.Infof("created table %s", loc)
		return Created, nil
	}

	actual, err := r.catalog.Snapshot(ctx, loc)
	if err != nil {
		return 0, err
	}
	r.printStructures(loc, actual, desired)

	mismatches := Compare(desired, actual)
	if len(mismatches) == 0 {
		fmt.Fprintln(r.out, "\nExisting table structure matches the expected structure.")
		fmt.Fprintf(r.out, "Table '%s' already exists with the correct structure.\n", loc)
		return Unchanged, nil
	}

	warn := color.New(color.FgRed)
	warn.Fprintln(r.out, "\nExisting table structure does not match the expected structure.")
	for _, m := range mismatches {
		warn.Fprintf(r.out, "  %s\n", m)
	}

	ok, err := r.confirm.Confirm(askRecreate)
	if err != nil {
		return 0, failure.Wrap(failure.Input, "confirm recreate", err)
	}
	if !ok {
		color.New(color.FgYellow).Fprintln(r.out, "Table recreation aborted.")
		log.Infof("recreation of %s declined, %d mismatches left", loc, len(mismatches))
		return Aborted, nil
	}

	dropSQL, err := engine.DropTableQuery(d, loc)
	if err != nil {
		return 0, failure.Wrap(failure.Input, "drop table "+loc.String(), err)
	}
	if err := r.recreate(ctx, d, dropSQL, createSQL); err != nil {
		return 0, failure.Wrap(failure.SQL, "recreate table "+loc.String(), err)
	}
	color.New(color.FgGreen).Fprintf(r.out, "Table '%s' has been recreated.\n", loc)
	log.Infof("recreated table %s", loc)
	return Recreated, nil
}

// recreate runs DROP and CREATE in one transaction when the dialect allows DDL
// inside transactions, and one after the other otherwise.
func (r *Reconciler) recreate(ctx context.Context, d dialect.Dialect, dropSQL, createSQL string) error {
	if !d.TransactionalDDL() {
		if _, err := r.conn.ExecContext(ctx, dropSQL); err != nil {
			return err
		}
		_, err := r.conn.ExecContext(ctx, createSQL)
		return err
	}

	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	rollback := func(cause error) error {
		if rerr := tx.Rollback(); rerr != nil {
			log.Errorf("rollback of table recreation failed: %v", rerr)
		}
		return cause
	}
	if _, err := tx.ExecContext(ctx, dropSQL); err != nil {
		return rollback(err)
	}
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return rollback(err)
	}
	return tx.Commit()
}

func (r *Reconciler) printStructures(loc schema.Location, actual schema.Snapshot, desired schema.ColumnSpec) {
	fmt.Fprintf(r.out, "\nActual structure of %s:\n", loc)
	names := make([]string, 0, len(actual))
	for name := range actual {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(r.out, "  %s: %s (%s)\n", name, actual[name].DataType, actual[name].UDTName)
	}

	fmt.Fprintf(r.out, "\nExpected structure for %s:\n", loc)
	for _, c := range desired {
		fmt.Fprintf(r.out, "  %s: %s\n", c.Name, c.Type)
	}
}
