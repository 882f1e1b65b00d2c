package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"db-transfer/internal/connector"
	"db-transfer/internal/engine"
	"db-transfer/internal/failure"
	"db-transfer/internal/schema"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
)

var (
	copySource    string
	copyDest      string
	copyTable     string
	copyDestTable string
	copyColumns   []string
)

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy rows of a table from one configured database to another",
	Long: `Copy the listed columns of a source table into a destination table.
All rows are inserted in a single transaction; on any error nothing is kept.

Example:
  db-transfer copy --source geoit --dest aarschot --table editeren.elementen_aed --columns id,naam,adres,geometry`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(copyColumns) == 0 {
			return failure.New(failure.Input, "copy", "--columns is required")
		}
		configs, err := LoadDatabases()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		p := newPrompter()

		src, err := openDatabase(ctx, configs, copySource, p)
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := openDatabase(ctx, configs, copyDest, p)
		if err != nil {
			return err
		}
		defer dst.Close()

		from := parseLocation(copyTable, src.Dialect().DefaultSchema())
		toName := copyDestTable
		if toName == "" {
			toName = copyTable
		}
		to := parseLocation(toName, dst.Dialect().DefaultSchema())

		out := cmd.OutOrStdout()
		start := time.Now()
		n, err := copyRows(ctx, src, dst, from, to, copyColumns, out)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nCopied %d rows from %s.%s to %s.%s in %s\n",
			n, src.Name(), from, dst.Name(), to, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(copyCmd)

	copyCmd.Flags().StringVar(&copySource, "source", "", "source database name from config")
	copyCmd.Flags().StringVar(&copyDest, "dest", "", "destination database name from config")
	copyCmd.Flags().StringVarP(&copyTable, "table", "t", "", "source table (schema.table)")
	copyCmd.Flags().StringVar(&copyDestTable, "dest-table", "", "destination table (defaults to --table)")
	copyCmd.Flags().StringSliceVarP(&copyColumns, "columns", "c", nil, "columns to copy (comma-separated)")
	copyCmd.MarkFlagRequired("source")
	copyCmd.MarkFlagRequired("dest")
	copyCmd.MarkFlagRequired("table")
}

// copyRows runs the data mover with a progress bar.
func copyRows(ctx context.Context, src, dst *connector.Conn, from, to schema.Location, cols []string, out io.Writer) (int, error) {
	fmt.Fprintf(out, "Copying %s -> %s (%d columns)\n", from, to, len(cols))

	var bar *uiprogress.Bar
	progress := func(done, total int) {
		if total == 0 {
			return
		}
		if bar == nil {
			uiprogress.Start()
			bar = uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
			bar.PrependFunc(func(b *uiprogress.Bar) string {
				return fmt.Sprintf("Inserting %d/%d: ", b.Current(), total)
			})
		}
		bar.Set(done)
	}

	n, err := engine.Copy(ctx, src, dst, from, to, cols, progress)
	if bar != nil {
		uiprogress.Stop()
	}
	return n, err
}
