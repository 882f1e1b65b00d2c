package reconcile

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"unicode"

	"db-transfer/internal/connector"
	"db-transfer/internal/dialect"
	"db-transfer/internal/failure"
	"db-transfer/internal/schema"

	"github.com/brianvoe/gofakeit/v6"
	_ "github.com/mattn/go-sqlite3"
)

type stubConfirmer struct {
	answer bool
	asked  int
}

func (s *stubConfirmer) Confirm(string) (bool, error) {
	s.asked++
	return s.answer, nil
}

// fakeCatalog serves a fixed table from memory.
type fakeCatalog struct {
	exists bool
	snap   schema.Snapshot
}

func (f *fakeCatalog) TableExists(context.Context, schema.Location) (bool, error) {
	return f.exists, nil
}

func (f *fakeCatalog) Snapshot(context.Context, schema.Location) (schema.Snapshot, error) {
	return f.snap, nil
}

// recordingConn records statements instead of running them.
type recordingConn struct {
	d     dialect.Dialect
	execs []string
}

func (r *recordingConn) Dialect() dialect.Dialect { return r.d }

func (r *recordingConn) ExecContext(_ context.Context, query string, _ ...interface{}) (sql.Result, error) {
	r.execs = append(r.execs, query)
	return nil, nil
}

func (r *recordingConn) BeginTx(context.Context) (*connector.Tx, error) {
	return nil, errors.New("transactions not supported")
}

var plainTypes = []string{"TEXT", "INTEGER", "BIGINT", "BOOLEAN", "DATE", "REAL"}

func randomSpec(n int) schema.ColumnSpec {
	var spec schema.ColumnSpec
	for len(spec) < n {
		name := "c_" + strings.ToLower(gofakeit.LetterN(8))
		spec.Add(name, gofakeit.RandomString(plainTypes))
	}
	return spec
}

func swapCase(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsUpper(r) {
			return unicode.ToLower(r)
		}
		return unicode.ToUpper(r)
	}, s)
}

func TestEnsureTableCreatesOnEmptyCatalog(t *testing.T) {
	gofakeit.Seed(1)
	for i := 0; i < 50; i++ {
		spec := randomSpec(gofakeit.Number(1, 12))
		conn := &recordingConn{d: &dialect.PostgresDialect{}}
		confirm := &stubConfirmer{}

		got, err := New(conn, &fakeCatalog{}, confirm, io.Discard).EnsureTable(context.Background(), schema.Location{Schema: "public", Table: "t"}, spec)
		if err != nil {
			t.Fatalf("EnsureTable() error = %v", err)
		}
		if got != Created {
			t.Fatalf("EnsureTable() = %s, want created", got)
		}
		if len(conn.execs) != 1 || !strings.HasPrefix(conn.execs[0], "CREATE TABLE") {
			t.Fatalf("executed %v, want exactly one CREATE", conn.execs)
		}
		if confirm.asked != 0 {
			t.Fatal("operator should not be asked")
		}
	}
}

func TestEnsureTableUnchangedIgnoringCase(t *testing.T) {
	gofakeit.Seed(2)
	for i := 0; i < 50; i++ {
		spec := randomSpec(gofakeit.Number(1, 12))
		snap := make(schema.Snapshot)
		desired := make(schema.ColumnSpec, len(spec))
		for j, c := range spec {
			snap[strings.ToLower(c.Name)] = schema.ColumnType{UDTName: c.Type, DataType: c.Type}
			desired[j] = schema.Column{Name: swapCase(c.Name), Type: strings.ToLower(c.Type)}
		}

		conn := &recordingConn{d: &dialect.PostgresDialect{}}
		got, err := New(conn, &fakeCatalog{exists: true, snap: snap}, &stubConfirmer{}, io.Discard).EnsureTable(context.Background(), schema.Location{Table: "t"}, desired)
		if err != nil {
			t.Fatalf("EnsureTable() error = %v", err)
		}
		if got != Unchanged || len(conn.execs) != 0 {
			t.Fatalf("EnsureTable() = %s with %v, want unchanged and no statements", got, conn.execs)
		}
	}
}

func TestEnsureTableGeometryIgnoresSRID(t *testing.T) {
	conn := &recordingConn{d: &dialect.PostgresDialect{}}
	cat := &fakeCatalog{exists: true, snap: schema.Snapshot{"geom": {UDTName: "GEOMETRY", DataType: "USER-DEFINED"}}}

	got, err := New(conn, cat, &stubConfirmer{}, io.Discard).EnsureTable(context.Background(),
		schema.Location{Table: "percelen"}, schema.ColumnSpec{{Name: "geom", Type: "GEOMETRY(MULTIPOLYGON, 31370)"}})
	if err != nil || got != Unchanged {
		t.Errorf("EnsureTable() = %s, %v, want unchanged", got, err)
	}
}

func TestEnsureTableRejectsInvalidNames(t *testing.T) {
	conn := &recordingConn{d: &dialect.PostgresDialect{}}
	_, err := New(conn, &fakeCatalog{}, &stubConfirmer{}, io.Discard).EnsureTable(context.Background(),
		schema.Location{Table: "bad name"}, schema.ColumnSpec{{Name: "id", Type: "INTEGER"}})
	if failure.KindOf(err) != failure.Input {
		t.Errorf("EnsureTable() error = %v, want invalid input", err)
	}
	if len(conn.execs) != 0 {
		t.Errorf("executed %v", conn.execs)
	}
}

func TestEnsureTableNonTransactionalRecreate(t *testing.T) {
	conn := &recordingConn{d: &dialect.MysqlDialect{}}
	cat := &fakeCatalog{exists: true, snap: schema.Snapshot{"naam": {UDTName: "int", DataType: "INT"}}}

	got, err := New(conn, cat, &stubConfirmer{answer: true}, io.Discard).EnsureTable(context.Background(),
		schema.Location{Table: "adressen"}, schema.ColumnSpec{{Name: "naam", Type: "TEXT"}})
	if err != nil || got != Recreated {
		t.Fatalf("EnsureTable() = %s, %v, want recreated", got, err)
	}
	want := []string{"DROP TABLE `adressen`", "CREATE TABLE `adressen` (`naam` TEXT)"}
	if strings.Join(conn.execs, "|") != strings.Join(want, "|") {
		t.Errorf("executed %v, want %v", conn.execs, want)
	}
}

// sqlite-backed tests exercise the real catalog and transactional recreate.

func openDest(t *testing.T) (*connector.Conn, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	p := connector.Params{Name: "dest", Driver: "sqlite", DBName: filepath.Join(t.TempDir(), "dest.db")}
	conn, err := connector.Connect(context.Background(), p, connector.Options{Out: &out})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, &out
}

func newReconciler(conn *connector.Conn, answer bool, out io.Writer) (*Reconciler, *stubConfirmer) {
	confirm := &stubConfirmer{answer: answer}
	return New(conn, schema.NewCatalog(conn, conn.Dialect()), confirm, out), confirm
}

func TestEnsureTableSqlite(t *testing.T) {
	ctx := context.Background()
	loc := schema.Location{Schema: "public", Table: "adressen"}
	desired := schema.ColumnSpec{{Name: "id", Type: "INTEGER"}, {Name: "Naam", Type: "TEXT"}}

	t.Run("created then unchanged", func(t *testing.T) {
		conn, out := openDest(t)
		r, _ := newReconciler(conn, false, out)

		got, err := r.EnsureTable(ctx, loc, desired)
		if err != nil || got != Created {
			t.Fatalf("first EnsureTable() = %s, %v", got, err)
		}
		if c := strings.Count(out.String(), "Executing SQL: CREATE TABLE"); c != 1 {
			t.Errorf("CREATE echoed %d times", c)
		}

		got, err = r.EnsureTable(ctx, loc, desired)
		if err != nil || got != Unchanged {
			t.Fatalf("second EnsureTable() = %s, %v", got, err)
		}
	})

	t.Run("mismatch refused", func(t *testing.T) {
		conn, out := openDest(t)
		if _, err := conn.ExecContext(ctx, `CREATE TABLE adressen (id INTEGER, naam INTEGER)`); err != nil {
			t.Fatal(err)
		}
		if _, err := conn.ExecContext(ctx, `INSERT INTO adressen VALUES (1, 2)`); err != nil {
			t.Fatal(err)
		}
		r, confirm := newReconciler(conn, false, out)

		got, err := r.EnsureTable(ctx, loc, desired)
		if err != nil || got != Aborted {
			t.Fatalf("EnsureTable() = %s, %v, want aborted", got, err)
		}
		if confirm.asked != 1 {
			t.Errorf("asked %d times", confirm.asked)
		}
		if !strings.Contains(out.String(), "Column: Naam, Expected Type: TEXT, Found Type: INTEGER") {
			t.Errorf("mismatch not reported:\n%s", out.String())
		}

		var n int
		if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM adressen").Scan(&n); err != nil || n != 1 {
			t.Errorf("table modified: count %d, err %v", n, err)
		}
	})

	t.Run("mismatch accepted", func(t *testing.T) {
		conn, out := openDest(t)
		if _, err := conn.ExecContext(ctx, `CREATE TABLE adressen (id INTEGER)`); err != nil {
			t.Fatal(err)
		}
		r, _ := newReconciler(conn, true, out)

		got, err := r.EnsureTable(ctx, loc, desired)
		if err != nil || got != Recreated {
			t.Fatalf("EnsureTable() = %s, %v, want recreated", got, err)
		}
		if !strings.Contains(out.String(), "Found Type: "+Missing) {
			t.Errorf("missing column not reported:\n%s", out.String())
		}

		snap, err := schema.NewCatalog(conn, conn.Dialect()).Snapshot(ctx, loc)
		if err != nil {
			t.Fatal(err)
		}
		if len(Compare(desired, snap)) != 0 {
			t.Errorf("recreated table does not match: %v", snap)
		}
	})

	t.Run("failed create rolls back drop", func(t *testing.T) {
		conn, out := openDest(t)
		if _, err := conn.ExecContext(ctx, `CREATE TABLE adressen (id TEXT)`); err != nil {
			t.Fatal(err)
		}
		if _, err := conn.ExecContext(ctx, `INSERT INTO adressen VALUES ('a')`); err != nil {
			t.Fatal(err)
		}
		r, _ := newReconciler(conn, true, out)

		// sqlite refuses a second primary key, so CREATE fails after DROP.
		broken := schema.ColumnSpec{{Name: "id", Type: "INTEGER PRIMARY KEY"}, {Name: "nr", Type: "INTEGER PRIMARY KEY"}}
		got, err := r.EnsureTable(ctx, loc, broken)
		if failure.KindOf(err) != failure.SQL {
			t.Fatalf("EnsureTable() = %s, %v, want sql failure", got, err)
		}
		if strings.Contains(out.String(), "has been recreated") {
			t.Errorf("reported success:\n%s", out.String())
		}

		var id string
		if err := conn.QueryRowContext(ctx, "SELECT id FROM adressen").Scan(&id); err != nil || id != "a" {
			t.Errorf("original table lost: id %q, err %v", id, err)
		}
	})
}

func TestOutcomeString(t *testing.T) {
	for o, want := range map[Outcome]string{Created: "created", Unchanged: "unchanged", Recreated: "recreated", Aborted: "aborted", 0: "unknown"} {
		if o.String() != want {
			t.Errorf("%d.String() = %q, want %q", o, o.String(), want)
		}
	}
}
