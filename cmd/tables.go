package cmd

import (
	"fmt"
	"sort"

	"db-transfer/internal/schema"

	"github.com/spf13/cobra"
)

var (
	tablesDB     string
	tablesSchema string
	tablesShow   bool
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables of a configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := LoadDatabases()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		conn, err := openDatabase(ctx, configs, tablesDB, newPrompter())
		if err != nil {
			return err
		}
		defer conn.Close()

		cat := schema.NewCatalog(conn, conn.Dialect())
		names, err := cat.Tables(ctx, tablesSchema)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\n%d tables in %s:\n", len(names), conn.Name())
		for i, name := range names {
			fmt.Fprintf(out, "[%02d] %s\n", i+1, name)
			if !tablesShow {
				continue
			}
			snap, err := cat.Snapshot(ctx, schema.Location{Schema: tablesSchema, Table: name})
			if err != nil {
				return err
			}
			cols := make([]string, 0, len(snap))
			for col := range snap {
				cols = append(cols, col)
			}
			sort.Strings(cols)
			for _, col := range cols {
				fmt.Fprintf(out, "     %-30s %s (%s)\n", col, snap[col].DataType, snap[col].UDTName)
			}
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(tablesCmd)

	tablesCmd.Flags().StringVar(&tablesDB, "db", "", "database name from config")
	tablesCmd.Flags().StringVarP(&tablesSchema, "schema", "s", "", "schema (default: driver default)")
	tablesCmd.Flags().BoolVar(&tablesShow, "columns", false, "also print column types")
	tablesCmd.MarkFlagRequired("db")
}
