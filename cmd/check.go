package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/siddontang/go-log/log"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [name...]",
	Short: "Test connectivity to configured databases",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := LoadDatabases()
		if err != nil {
			return err
		}
		names := args
		if len(names) == 0 {
			names = DatabaseNames(configs)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Checking %d databases (retry delay %s)\n", len(names), retryDelay())

		failed := 0
		p := newPrompter()
		for _, name := range names {
			conn, err := openDatabase(cmd.Context(), configs, name, p)
			if err != nil {
				failed++
				color.New(color.FgRed).Fprintf(out, "[!] %-20s %v\n", name, err)
				log.Errorf("check %s: %v", name, err)
				continue
			}
			color.New(color.FgGreen).Fprintf(out, "[✓] %-20s %s (%s)\n", name, conn.DBName(), conn.Dialect().Driver())
			conn.Close()
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d databases unreachable", failed, len(names))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(checkCmd)
}
