package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"db-transfer/internal/connector"
	"db-transfer/internal/failure"
	"db-transfer/internal/prompt"
	"db-transfer/internal/tunnel"

	"github.com/spf13/viper"
)

// DBConfig is one entry of the "databases" map in the config file.
type DBConfig struct {
	Name     string         `mapstructure:"-"`
	Host     string         `mapstructure:"host"`
	DBName   string         `mapstructure:"dbname"`
	User     string         `mapstructure:"user"`
	Password string         `mapstructure:"password"`
	Port     int            `mapstructure:"port"`
	Driver   string         `mapstructure:"driver"`
	SSLMode  string         `mapstructure:"sslmode"`
	SSH      *tunnel.Config `mapstructure:"ssh"`
}

// LoadDatabases returns every configured database keyed by name.
// Viper lower-cases map keys, so names are case-insensitive.
func LoadDatabases() (map[string]DBConfig, error) {
	var configs map[string]DBConfig
	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, failure.New(failure.Input, "read config", "failed to parse databases config: %v", err)
	}
	if len(configs) == 0 {
		return nil, failure.New(failure.NotFound, "read config", "no databases configured in %s", configSource())
	}
	for name, c := range configs {
		c.Name = name
		if c.Driver == "" {
			c.Driver = "postgres"
		}
		configs[name] = c
	}
	return configs, nil
}

// DatabaseNames returns the configured names in sorted order.
func DatabaseNames(configs map[string]DBConfig) []string {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetDBConfig returns the database configured under name.
func GetDBConfig(configs map[string]DBConfig, name string) (*DBConfig, error) {
	c, ok := configs[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, failure.New(failure.NotFound, "select database", "database %q is not configured (have: %s)", name, strings.Join(DatabaseNames(configs), ", "))
	}
	return &c, nil
}

func (c DBConfig) params() connector.Params {
	return connector.Params{
		Name:     c.Name,
		Driver:   c.Driver,
		Host:     c.Host,
		Port:     c.Port,
		DBName:   c.DBName,
		User:     c.User,
		Password: c.Password,
		SSLMode:  c.SSLMode,
		SSH:      c.SSH,
	}
}

func connectOptions() connector.Options {
	return connector.Options{
		MaxAttempts: viper.GetInt("connect.attempts"),
		RetryDelay:  viper.GetDuration("connect.delay"),
	}
}

// needsPassword reports whether a password must be asked for before connecting.
func needsPassword(c *DBConfig) bool {
	d := strings.ToLower(c.Driver)
	return c.Password == "" && d != "sqlite" && d != "sqlite3"
}

// openDatabase connects to a configured database, asking for a missing password.
func openDatabase(ctx context.Context, configs map[string]DBConfig, name string, p *prompt.Prompter) (*connector.Conn, error) {
	c, err := GetDBConfig(configs, name)
	if err != nil {
		return nil, err
	}
	if needsPassword(c) && p != nil {
		pw, err := p.Password(fmt.Sprintf("Password for %s@%s: ", c.User, c.Name))
		if err != nil {
			return nil, failure.Wrap(failure.Input, "read password", err)
		}
		c.Password = pw
	}
	return connector.Connect(ctx, c.params(), connectOptions())
}

func newPrompter() *prompt.Prompter {
	return prompt.New(os.Stdin, os.Stdout)
}

func configSource() string {
	if f := viper.ConfigFileUsed(); f != "" {
		return f
	}
	return defaultConfigPath
}

// retryDelay is shown in status output.
func retryDelay() time.Duration {
	if d := viper.GetDuration("connect.delay"); d > 0 {
		return d
	}
	return connector.DefaultRetryDelay
}
