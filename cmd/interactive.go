package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"db-transfer/internal/collector"
	"db-transfer/internal/connector"
	"db-transfer/internal/failure"
	"db-transfer/internal/prompt"
	"db-transfer/internal/reconcile"
	"db-transfer/internal/schema"

	"github.com/fatih/color"
	"github.com/siddontang/go-log/log"
	"github.com/spf13/viper"
)

const (
	methodFile   = "1"
	methodManual = "2"
)

// runInteractive is the operator session: pick two databases, then define
// destination tables one at a time and optionally copy rows into them.
func runInteractive(ctx context.Context, p *prompt.Prompter, out io.Writer) error {
	configs, err := LoadDatabases()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Configuration file loaded with the following databases:")
	for _, name := range DatabaseNames(configs) {
		fmt.Fprintf(out, "- %s\n", name)
	}

	defSource := viper.GetString("defaults.source")
	defDest := viper.GetString("defaults.destination")

	sourceName, err := p.AskDefault(fmt.Sprintf("Select the source database (default: %s) :", defSource), defSource)
	if err != nil {
		return failure.Wrap(failure.Input, "select source", err)
	}
	destName, err := p.AskDefault(fmt.Sprintf("Select the destination database (default: %s) :", defDest), defDest)
	if err != nil {
		return failure.Wrap(failure.Input, "select destination", err)
	}

	source, err := openDatabase(ctx, configs, sourceName, p)
	if err != nil {
		color.New(color.FgRed).Fprintln(out, "Failed to connect to one or both databases.")
		return err
	}
	defer source.Close()

	dest, err := openDatabase(ctx, configs, destName, p)
	if err != nil {
		color.New(color.FgRed).Fprintln(out, "Failed to connect to one or both databases.")
		return err
	}
	defer dest.Close()

	s := &session{
		prompt:     p,
		out:        out,
		source:     source,
		dest:       dest,
		reconciler: reconcile.New(dest, schema.NewCatalog(dest, dest.Dialect()), p, out),
	}
	return s.run(ctx)
}

type session struct {
	prompt     *prompt.Prompter
	out        io.Writer
	source     *connector.Conn
	dest       *connector.Conn
	reconciler *reconcile.Reconciler
}

func (s *session) run(ctx context.Context) error {
	for {
		more, err := s.prompt.Confirm("Do you want to add a table in the source database? (yes/no): ")
		if err != nil {
			return err
		}
		if !more {
			fmt.Fprintln(s.out, "No new table will be added to the database.")
			break
		}
		if err := s.addTable(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) addTable(ctx context.Context) error {
	method, err := s.prompt.Ask("Enter the table structure from a json file (1) or from manual input(2): ")
	if err != nil {
		return failure.Wrap(failure.Input, "choose input method", err)
	}
	if method != methodFile && method != methodManual {
		return failure.New(failure.Input, "choose input method", "expected 1 or 2, got %q", method)
	}

	schemaName, err := s.prompt.AskDefault(
		fmt.Sprintf("Enter the schema where the table will be created (default '%s'): ", viper.GetString("defaults.schema")),
		viper.GetString("defaults.schema"))
	if err != nil {
		return failure.Wrap(failure.Input, "read schema", err)
	}

	var (
		tableName string
		columns   schema.ColumnSpec
	)

	if method == methodFile {
		def, err := s.loadDefinition()
		if err != nil {
			return err
		}
		tableName, err = s.prompt.AskDefault(fmt.Sprintf("Enter the name of the table to create (default '%s'): ", def.Name), def.Name)
		if err != nil {
			return failure.Wrap(failure.Input, "read table name", err)
		}
		columns = def.Columns
	} else {
		tableName, err = s.prompt.Ask("Enter the name of the table to create: ")
		if err != nil {
			return failure.Wrap(failure.Input, "read table name", err)
		}
		columns, err = collector.Collect(s.prompt, s.out)
		if err != nil {
			return failure.Wrap(failure.Input, "collect columns", err)
		}
		if len(columns) == 0 {
			color.New(color.FgYellow).Fprintln(s.out, "No columns defined, table skipped.")
			return nil
		}
		fmt.Fprintf(s.out, "Columns for %s:\n%s", tableName, collector.Describe(columns))
	}

	loc := schema.Location{Schema: schemaName, Table: tableName}
	outcome, err := s.reconciler.EnsureTable(ctx, loc, columns)
	if err != nil {
		// A bad table leaves the session usable; connection trouble does not.
		if failure.KindOf(err) == failure.Connection {
			return err
		}
		color.New(color.FgRed).Fprintf(s.out, "Could not prepare %s: %v\n", loc, err)
		log.Errorf("ensure table %s: %v", loc, err)
		return nil
	}
	log.Infof("table %s: %s", loc, outcome)

	if outcome == reconcile.Aborted {
		return nil
	}
	return s.offerCopy(ctx, loc, columns)
}

func (s *session) loadDefinition() (*schema.TableDef, error) {
	defDir := viper.GetString("defaults.tables_dir")
	dir, err := s.prompt.AskDefault(fmt.Sprintf("Enter the path to the JSON file with the table definition (map structure, default %s): ", defDir), defDir)
	if err != nil {
		return nil, failure.Wrap(failure.Input, "read directory", err)
	}
	file, err := s.prompt.Ask("Enter the name of the json file with the table definition (.json): ")
	if err != nil {
		return nil, failure.Wrap(failure.Input, "read file name", err)
	}
	if filepath.Ext(file) == "" {
		file += ".json"
	}

	path := filepath.Join(dir, file)
	fmt.Fprintf(s.out, "Attempting to create table from location %s\n", path)
	return schema.Load(path)
}

// offerCopy asks whether to fill the new table from a source table with the same columns.
func (s *session) offerCopy(ctx context.Context, dest schema.Location, columns schema.ColumnSpec) error {
	ok, err := s.prompt.Confirm(fmt.Sprintf("Do you want to copy data into %s from the source database? (yes/no): ", dest))
	if err != nil || !ok {
		return err
	}

	srcTable, err := s.prompt.AskDefault(fmt.Sprintf("Enter the source table (schema.table, default %s): ", dest), dest.String())
	if err != nil {
		return failure.Wrap(failure.Input, "read source table", err)
	}
	from := parseLocation(srcTable, s.source.Dialect().DefaultSchema())

	n, err := copyRows(ctx, s.source, s.dest, from, dest, columns.Names(), s.out)
	if err != nil {
		color.New(color.FgRed).Fprintf(s.out, "Copy failed, nothing was inserted: %v\n", err)
		log.Errorf("copy %s -> %s: %v", from, dest, err)
		return nil
	}
	color.New(color.FgGreen).Fprintf(s.out, "Copied %d rows from %s to %s.\n", n, from, dest)
	return nil
}

// parseLocation splits "schema.table"; a bare name gets defSchema.
func parseLocation(s, defSchema string) schema.Location {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "."); i >= 0 {
		return schema.Location{Schema: s[:i], Table: s[i+1:]}
	}
	return schema.Location{Schema: defSchema, Table: s}
}
