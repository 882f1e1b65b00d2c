package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured databases",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := LoadDatabases()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Databases in %s:\n", configSource())
		for _, name := range DatabaseNames(configs) {
			c := configs[name]
			fmt.Fprintf(out, "- %-15s %s/%s (%s)\n", name, c.Host, c.DBName, c.Driver)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(listCmd)
}
