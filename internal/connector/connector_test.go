package connector

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"db-transfer/internal/failure"
	"db-transfer/internal/tunnel"

	_ "github.com/mattn/go-sqlite3"
)

// stubSleep records requested waits without blocking.
func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	orig := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	t.Cleanup(func() { sleep = orig })
	return &waits
}

type closeRecorder struct{ closed int }

func (c *closeRecorder) Close() error { c.closed++; return nil }

func unreachable(t *testing.T) Params {
	// The parent directory does not exist, so sqlite fails on first use.
	return Params{Name: "broken", Driver: "sqlite", DBName: filepath.Join(t.TempDir(), "missing", "db.sqlite")}
}

func TestConnectRetriesThenFails(t *testing.T) {
	waits := stubSleep(t)
	var out bytes.Buffer

	_, err := Connect(context.Background(), unreachable(t), Options{Out: &out})
	if failure.KindOf(err) != failure.Connection {
		t.Fatalf("Connect() error = %v, want connection failure", err)
	}

	want := []time.Duration{DefaultRetryDelay, DefaultRetryDelay}
	if len(*waits) != len(want) || (*waits)[0] != want[0] || (*waits)[1] != want[1] {
		t.Errorf("waits = %v, want %v", *waits, want)
	}

	text := out.String()
	if got := strings.Count(text, "Failed to connect to the database"); got != 3 {
		t.Errorf("reported %d failed attempts, want 3\n%s", got, text)
	}
	for _, line := range []string{"Retrying... 2 attempts left.", "Retrying... 1 attempts left."} {
		if !strings.Contains(text, line) {
			t.Errorf("output missing %q", line)
		}
	}
}

func TestConnectCustomAttempts(t *testing.T) {
	waits := stubSleep(t)

	_, err := Connect(context.Background(), unreachable(t), Options{MaxAttempts: 5, RetryDelay: time.Second, Out: io.Discard})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(*waits) != 4 {
		t.Errorf("waited %d times, want 4", len(*waits))
	}
	for _, w := range *waits {
		if w != time.Second {
			t.Errorf("wait = %v, want 1s", w)
		}
	}
}

func TestConnectStopsOnCancel(t *testing.T) {
	orig := sleep
	sleep = sleepContext
	t.Cleanup(func() { sleep = orig })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := Connect(ctx, unreachable(t), Options{RetryDelay: time.Hour, Out: io.Discard})
	if failure.KindOf(err) != failure.Connection {
		t.Fatalf("Connect() error = %v", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Error("Connect did not stop on cancelled context")
	}
}

func TestConnectOpenErrorNotRetried(t *testing.T) {
	waits := stubSleep(t)
	origOpen := openDB
	openDB = func(driver, dsn string) (*sql.DB, error) {
		return nil, errors.New("malformed dsn")
	}
	t.Cleanup(func() { openDB = origOpen })

	_, err := Connect(context.Background(), Params{Driver: "postgres", Host: "h", DBName: "geoit"}, Options{Out: io.Discard})
	if failure.KindOf(err) != failure.Connection {
		t.Fatalf("Connect() error = %v", err)
	}
	if len(*waits) != 0 {
		t.Errorf("open failure was retried %d times", len(*waits))
	}
}

func TestConnectUnknownDriver(t *testing.T) {
	waits := stubSleep(t)

	_, err := Connect(context.Background(), Params{Driver: "db2", DBName: "x"}, Options{Out: io.Discard})
	if !errors.Is(err, failure.ErrConnection) {
		t.Fatalf("Connect() error = %v", err)
	}
	if len(*waits) != 0 {
		t.Error("unknown driver should not be retried")
	}
}

func TestConnectClosesTunnelOnFailure(t *testing.T) {
	stubSleep(t)
	rec := &closeRecorder{}
	origTunnel := openTunnel
	openTunnel = func(cfg tunnel.Config, host string, port int) (io.Closer, int, error) {
		if host != "db.internal" || port != 5432 {
			t.Errorf("tunnel target = %s:%d", host, port)
		}
		return rec, 15432, nil
	}
	origOpen := openDB
	openDB = func(driver, dsn string) (*sql.DB, error) {
		if !strings.Contains(dsn, "127.0.0.1:15432") {
			t.Errorf("dsn %q does not use the tunnel port", dsn)
		}
		return origOpen("sqlite3", filepath.Join(t.TempDir(), "missing", "db"))
	}
	t.Cleanup(func() { openTunnel = origTunnel; openDB = origOpen })

	p := Params{Driver: "postgres", Host: "db.internal", DBName: "geoit", SSH: &tunnel.Config{Host: "bastion"}}
	if _, err := Connect(context.Background(), p, Options{Out: io.Discard}); err == nil {
		t.Fatal("expected error")
	}
	if rec.closed != 1 {
		t.Errorf("tunnel closed %d times, want 1", rec.closed)
	}
}

func TestConnectTunnelError(t *testing.T) {
	origTunnel := openTunnel
	openTunnel = func(tunnel.Config, string, int) (io.Closer, int, error) {
		return nil, 0, errors.New("no route")
	}
	t.Cleanup(func() { openTunnel = origTunnel })

	p := Params{Driver: "postgres", Host: "db", DBName: "geoit", SSH: &tunnel.Config{Host: "bastion"}}
	_, err := Connect(context.Background(), p, Options{Out: io.Discard})
	if failure.KindOf(err) != failure.Connection {
		t.Errorf("Connect() error = %v", err)
	}
}

func TestConnectEchoesStatements(t *testing.T) {
	var out bytes.Buffer
	p := Params{Name: "local", Driver: "sqlite", DBName: filepath.Join(t.TempDir(), "ok.db")}

	conn, err := Connect(context.Background(), p, Options{Out: &out})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer conn.Close()

	if !strings.Contains(out.String(), "Database connection established to database") {
		t.Errorf("missing success message: %q", out.String())
	}

	ctx := context.Background()
	if _, err := conn.ExecContext(ctx, "CREATE TABLE t (a INTEGER)"); err != nil {
		t.Fatal(err)
	}
	tx, err := conn.BeginTx(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO t (a) VALUES (?)", 1); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	for _, stmt := range []string{"Executing SQL: CREATE TABLE t (a INTEGER)", "Executing SQL: INSERT INTO t (a) VALUES (?)"} {
		if !strings.Contains(out.String(), stmt) {
			t.Errorf("output missing %q", stmt)
		}
	}

	if conn.Name() != "local" || conn.Dialect().Driver() != "sqlite3" {
		t.Errorf("Name() = %q, Driver() = %q", conn.Name(), conn.Dialect().Driver())
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestMaskDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		hide string
	}{
		{"url", "postgres://gis:secret@db:5432/geoit?sslmode=disable", "secret"},
		{"mysql", "gis:secret@tcp(db:3306)/geoit", "secret"},
		{"mysql with params", "gis:secret@tcp(db:3306)/geoit?parseTime=true&charset=utf8mb4", "secret"},
		{"sqlserver", "sqlserver://sa:secret@db:1433?database=geoit", "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := maskDSN(tt.dsn)
			if strings.Contains(got, tt.hide) {
				t.Errorf("maskDSN() = %q still contains password", got)
			}
			if !strings.Contains(got, "geoit") {
				t.Errorf("maskDSN() = %q lost the database name", got)
			}
		})
	}
}
