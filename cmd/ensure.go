package cmd

import (
	"fmt"
	"io"
	"strings"

	"db-transfer/internal/reconcile"
	"db-transfer/internal/schema"

	"github.com/spf13/cobra"
)

var (
	ensureDB     string
	ensureFile   string
	ensureSchema string
	ensureTable  string
	ensureYes    bool
)

var ensureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create or reconcile a table from a JSON/YAML definition",
	Long: `Make a table in the given database match a schema file:

  { "table_name": "adressen", "columns": { "naam": "TEXT", "geometry": "GEOMETRY(MULTIPOINT, 0)" } }

A missing table is created. A table with a different structure is dropped and
recreated only after confirmation (or with --yes).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := schema.Load(ensureFile)
		if err != nil {
			return err
		}
		configs, err := LoadDatabases()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		p := newPrompter()
		conn, err := openDatabase(ctx, configs, ensureDB, p)
		if err != nil {
			return err
		}
		defer conn.Close()

		table := ensureTable
		if table == "" {
			table = def.Name
		}
		loc := schema.Location{Schema: ensureSchema, Table: table}
		if loc.Schema == "" {
			loc.Schema = conn.Dialect().DefaultSchema()
		}

		var confirm reconcile.Confirmer = p
		if ensureYes {
			confirm = assumeYes{out: cmd.OutOrStdout()}
		}

		outcome, err := reconcile.New(conn, schema.NewCatalog(conn, conn.Dialect()), confirm, cmd.OutOrStdout()).EnsureTable(ctx, loc, def.Columns)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", loc, strings.ToUpper(outcome.String()))
		return nil
	},
}

// assumeYes answers every confirmation affirmatively.
type assumeYes struct{ out io.Writer }

func (a assumeYes) Confirm(question string) (bool, error) {
	fmt.Fprintln(a.out, question+"yes")
	return true, nil
}

func init() {
	RootCmd.AddCommand(ensureCmd)

	ensureCmd.Flags().StringVar(&ensureDB, "db", "", "database name from config")
	ensureCmd.Flags().StringVarP(&ensureFile, "file", "f", "", "table definition file (.json, .yaml)")
	ensureCmd.Flags().StringVarP(&ensureSchema, "schema", "s", "", "schema (default: driver default, public for postgres)")
	ensureCmd.Flags().StringVarP(&ensureTable, "table", "t", "", "table name (default: table_name from the file)")
	ensureCmd.Flags().BoolVarP(&ensureYes, "yes", "y", false, "drop and recreate mismatching tables without asking")
	ensureCmd.MarkFlagRequired("db")
	ensureCmd.MarkFlagRequired("file")
}
