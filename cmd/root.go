package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/siddontang/go-log/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logLevel string
)

// defaultConfigPath is resolved against the working directory.
var defaultConfigPath = filepath.Join("..", "..", "data", "configdb.json")

var RootCmd = &cobra.Command{
	Use:   "db-transfer",
	Short: "Create tables and copy rows between configured databases",
	Long: `
     _ _           _                        __
  __| | |__       | |_ _ __ __ _ _ __  ___ / _| ___ _ __
 / _' | '_ \ _____| __| '__/ _' | '_ \/ __| |_ / _ \ '__|
| (_| | |_) |_____| |_| | | (_| | | | \__ \  _|  __/ |
 \__,_|_.__/       \__|_|  \__,_|_| |_|___/_|  \___|_|

DB TRANSFER - table reconciliation and data copy between databases

Run without a subcommand for the interactive session.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetLevelByName(strings.ToLower(logLevel))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context(), newPrompter(), cmd.OutOrStdout())
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ../../data/configdb.json)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	RootCmd.PersistentFlags().Int("attempts", 3, "connection attempts per database")
	RootCmd.PersistentFlags().Duration("retry-delay", 0, "wait between connection attempts (default 5s)")

	viper.BindPFlag("connect.attempts", RootCmd.PersistentFlags().Lookup("attempts"))
	viper.BindPFlag("connect.delay", RootCmd.PersistentFlags().Lookup("retry-delay"))

	viper.SetDefault("defaults.source", "geoit")
	viper.SetDefault("defaults.destination", "aarschot")
	viper.SetDefault("defaults.schema", "public")
	viper.SetDefault("defaults.tables_dir", filepath.Join("..", "..", "data", "tables"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A missing .env is normal.
	if err := godotenv.Load(); err == nil {
		log.Debugf("loaded .env")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigFile(defaultConfigPath)
	}
	viper.SetConfigType("json")

	viper.SetEnvPrefix("DBTRANSFER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warnf("reading config %s: %v", viper.ConfigFileUsed(), err)
		return
	}
	log.Infof("using config file %s", viper.ConfigFileUsed())
}
