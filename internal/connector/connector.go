// Package connector opens database handles with a bounded retry loop and
// echoes every statement it runs.
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"db-transfer/internal/dialect"
	"db-transfer/internal/failure"
	"db-transfer/internal/tunnel"

	"github.com/fatih/color"
	"github.com/go-sql-driver/mysql"
	"github.com/siddontang/go-log/log"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 5 * time.Second
)

// Params identifies one configured database.
type Params struct {
	Name     string
	Driver   string
	Host     string
	Port     int
	DBName   string
	User     string
	Password string
	SSLMode  string
	SSH      *tunnel.Config
}

// Options tune the retry loop. Zero values take the defaults.
type Options struct {
	MaxAttempts int
	RetryDelay  time.Duration
	// Out receives progress messages and the SQL echo. Defaults to os.Stdout.
	Out io.Writer
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	} else if o.RetryDelay == 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	return o
}

// Replaced in tests.
var (
	openDB     = sql.Open
	sleep      = sleepContext
	openTunnel = func(cfg tunnel.Config, host string, port int) (io.Closer, int, error) {
		t, err := tunnel.Open(cfg, host, port)
		if err != nil {
			return nil, 0, err
		}
		return t, t.Port(), nil
	}
)

// Connect opens and pings the database, retrying up to MaxAttempts times with
// RetryDelay between attempts. A DSN the driver rejects outright is not retried.
func Connect(ctx context.Context, p Params, opts Options) (*Conn, error) {
	opts = opts.withDefaults()
	op := "connect to " + p.DBName

	d, err := dialect.GetDialect(p.Driver)
	if err != nil {
		return nil, failure.Wrap(failure.Connection, op, err)
	}

	target := dialect.Target{
		Host:     p.Host,
		Port:     p.Port,
		DBName:   p.DBName,
		User:     p.User,
		Password: p.Password,
		SSLMode:  p.SSLMode,
	}

	var closer io.Closer
	if p.SSH.Enabled() {
		remotePort := p.Port
		if remotePort == 0 {
			remotePort = d.DefaultPort()
		}
		c, localPort, err := openTunnel(*p.SSH, p.Host, remotePort)
		if err != nil {
			return nil, failure.Wrap(failure.Connection, op, err)
		}
		closer = c
		target.Host, target.Port = "127.0.0.1", localPort
	}
	closeTunnel := func() {
		if closer != nil {
			closer.Close()
		}
	}

	dsn, err := d.DSN(target)
	if err != nil {
		closeTunnel()
		return nil, failure.Wrap(failure.Connection, op, err)
	}
	log.Debugf("opening %s with %s", d.Driver(), maskDSN(dsn))

	db, err := openDB(d.Driver(), dsn)
	if err != nil {
		closeTunnel()
		return nil, failure.Wrap(failure.Connection, op, err)
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		lastErr = db.PingContext(ctx)
		if lastErr == nil {
			color.New(color.FgGreen).Fprintf(opts.Out, "Database connection established to database %s.\n", p.DBName)
			return &Conn{db: db, dialect: d, name: p.Name, dbName: p.DBName, out: opts.Out, tunnel: closer}, nil
		}

		remaining := opts.MaxAttempts - attempt
		log.Warnf("connect to %s (attempt %d/%d): %v", p.DBName, attempt, opts.MaxAttempts, lastErr)
		color.New(color.FgYellow).Fprintf(opts.Out, "Failed to connect to the database: %v\n", lastErr)
		if remaining == 0 {
			break
		}
		fmt.Fprintf(opts.Out, "Retrying... %d attempts left.\n", remaining)

		if err := sleep(ctx, opts.RetryDelay); err != nil {
			lastErr = err
			break
		}
	}

	db.Close()
	closeTunnel()
	return nil, failure.New(failure.Connection, op, "giving up after %d attempts: %v", opts.MaxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// maskDSN hides the password of a DSN for logging.
func maskDSN(dsn string) string {
	// "user:pass@tcp(host)/db" parses as an opaque URL with scheme "user".
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && (u.Host != "" || u.User != nil) {
		return u.Redacted()
	}
	if cfg, err := mysql.ParseDSN(dsn); err == nil {
		cfg.Passwd = "***"
		return cfg.FormatDSN()
	}
	return dsn
}
