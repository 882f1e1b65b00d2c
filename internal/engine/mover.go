package engine

import (
	"context"
	"database/sql"
	"unicode/utf8"

	"db-transfer/internal/connector"
	"db-transfer/internal/dialect"
	"db-transfer/internal/failure"
	"db-transfer/internal/schema"

	"github.com/siddontang/go-log/log"
)

// Row is one fetched tuple, in the order of the requested columns.
type Row []interface{}

// Source is a connection rows are read from.
type Source interface {
	Dialect() dialect.Dialect
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Sink is a connection rows are written to.
type Sink interface {
	Dialect() dialect.Dialect
	BeginTx(ctx context.Context) (*connector.Tx, error)
}

// Fetch reads every row of cols from loc.
func Fetch(ctx context.Context, src Source, loc schema.Location, cols []string) ([]Row, error) {
	op := "fetch " + loc.String()

	query, err := SelectQuery(src.Dialect(), loc, cols)
	if err != nil {
		return nil, failure.Wrap(failure.Input, op, err)
	}

	rows, err := src.QueryContext(ctx, query)
	if err != nil {
		return nil, failure.Wrap(failure.SQL, op, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, failure.Wrap(failure.SQL, op, err)
		}
		for i, v := range values {
			values[i] = convertValue(v)
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, failure.Wrap(failure.SQL, op, err)
	}

	log.Infof("fetched %d rows from %s", len(out), loc)
	return out, nil
}

// Insert writes rows into loc inside a single transaction. Either every row is
// committed, or the transaction is rolled back and (0, err) is returned.
// onProgress, if set, receives the running row count after each statement.
func Insert(ctx context.Context, dst Sink, loc schema.Location, cols []string, rows []Row, onProgress func(int)) (int, error) {
	op := "insert into " + loc.String()
	if len(rows) == 0 {
		return 0, nil
	}

	d := dst.Dialect()
	perStmt := RowsPerStatement(d, len(cols))
	fullQuery, err := InsertQuery(d, loc, cols, perStmt)
	if err != nil {
		return 0, failure.Wrap(failure.Input, op, err)
	}
	for i, r := range rows {
		if len(r) != len(cols) {
			return 0, failure.New(failure.Input, op, "row %d has %d values, want %d", i, len(r), len(cols))
		}
	}

	tx, err := dst.BeginTx(ctx)
	if err != nil {
		return 0, err
	}

	inserted := 0
	rollback := func(cause error) (int, error) {
		if rerr := tx.Rollback(); rerr != nil {
			log.Errorf("rollback of %s failed: %v", loc, rerr)
		}
		log.Errorf("%s: rolled back after %d of %d rows: %v", op, inserted, len(rows), cause)
		return 0, failure.Wrap(failure.SQL, op, cause)
	}

	if perStmt == 1 {
		// One prepared statement, executed per row.
		stmt, err := tx.PrepareContext(ctx, fullQuery)
		if err != nil {
			return rollback(err)
		}
		defer stmt.Close()

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r...); err != nil {
				return rollback(err)
			}
			inserted++
			if onProgress != nil {
				onProgress(inserted)
			}
		}
	} else {
		for start := 0; start < len(rows); start += perStmt {
			end := start + perStmt
			if end > len(rows) {
				end = len(rows)
			}
			chunk := rows[start:end]

			query := fullQuery
			if len(chunk) != perStmt {
				if query, err = InsertQuery(d, loc, cols, len(chunk)); err != nil {
					return rollback(err)
				}
			}

			args := make([]interface{}, 0, len(chunk)*len(cols))
			for _, r := range chunk {
				args = append(args, r...)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return rollback(err)
			}
			inserted += len(chunk)
			if onProgress != nil {
				onProgress(inserted)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return rollback(err)
	}
	log.Infof("inserted %d rows into %s", inserted, loc)
	return inserted, nil
}

// Copy moves cols from one table to another. Destination column names are the source names.
func Copy(ctx context.Context, src Source, dst Sink, from, to schema.Location, cols []string, onProgress func(done, total int)) (int, error) {
	rows, err := Fetch(ctx, src, from, cols)
	if err != nil {
		return 0, err
	}

	var progress func(int)
	if onProgress != nil {
		total := len(rows)
		onProgress(0, total)
		progress = func(done int) { onProgress(done, total) }
	}
	return Insert(ctx, dst, to, cols, rows, progress)
}

// convertValue turns text-valued []byte from drivers into strings so the
// destination driver binds them as text.
func convertValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		if utf8.Valid(b) {
			return string(b)
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		return cp
	}
	return v
}
