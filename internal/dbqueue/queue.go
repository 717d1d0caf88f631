// Package dbqueue serializes every storage access through one worker
// goroutine that owns the SQLite handle. Callers submit ordered batches of
// statements and block on a per-request reply channel; batches run in
// submission order, each inside its own transaction.
package dbqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver
)

var (
	// ErrClosed is returned by Submit after Close has been called.
	ErrClosed = errors.New("work queue is closed")
)

// Statement is one command plus its positional parameters. Build them with
// Exec or Query; the distinction decides whether the worker materializes
// result rows for the caller.
type Statement struct {
	query   string
	args    []any
	returns bool
}

// Exec builds a statement that is executed for its side effect.
func Exec(query string, args ...any) Statement {
	return Statement{query: query, args: args}
}

// Query builds a statement whose result rows are returned to the caller.
func Query(query string, args ...any) Statement {
	return Statement{query: query, args: args, returns: true}
}

// Row is one materialized result row, keyed by column name.
type Row map[string]any

// Result is the outcome of a completed batch. Rows holds the rows of the
// batch's last Query statement; LastInsertID and RowsAffected come from the
// batch's last Exec statement.
type Result struct {
	LastInsertID int64
	RowsAffected int64
	Rows         []Row
}

type reply struct {
	res *Result
	err error
}

type job struct {
	stmts []Statement
	reply chan reply
}

// Queue is the single-writer serialization point for one SQLite file.
type Queue struct {
	db     *sql.DB
	jobs   chan job
	quit   chan struct{}
	done   chan struct{}
	logger *logrus.Logger

	closeOnce sync.Once
}

// Open opens the database file and starts the worker goroutine. The worker
// is the only code that touches the returned handle.
func Open(path string, logger *logrus.Logger) (*Queue, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// One connection: every statement in a batch must see the same session.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", path, err)
	}

	q := &Queue{
		db:     db,
		jobs:   make(chan job, 128),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
	go q.run()
	return q, nil
}

// DB exposes the underlying handle for migrations and tests. Store code
// must never use it; all regular access goes through Submit.
func (q *Queue) DB() *sql.DB {
	return q.db
}

// Submit enqueues the statements as one batch and blocks until the batch
// completes or ctx is done. The reply channel is per request, so concurrent
// callers can never receive each other's results.
//
// A batch that was already enqueued still executes when ctx fires early;
// only the caller stops waiting for it.
func (q *Queue) Submit(ctx context.Context, stmts ...Statement) (*Result, error) {
	if len(stmts) == 0 {
		return &Result{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	replyc := make(chan reply, 1)
	select {
	case q.jobs <- job{stmts: stmts, reply: replyc}:
	case <-q.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-replyc:
		return r.res, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops intake, lets the worker drain already queued batches and
// closes the database handle.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() { close(q.quit) })
	<-q.done
	return q.db.Close()
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case j := <-q.jobs:
			j.reply <- q.execute(j.stmts)
		case <-q.quit:
			for {
				select {
				case j := <-q.jobs:
					j.reply <- q.execute(j.stmts)
				default:
					return
				}
			}
		}
	}
}

// execute runs one batch inside a transaction. A failing statement rolls
// the whole batch back; the error is reported only to the batch's caller
// and the worker moves on to the next batch.
func (q *Queue) execute(stmts []Statement) reply {
	tx, err := q.db.Begin()
	if err != nil {
		return reply{err: fmt.Errorf("failed to begin batch: %w", err)}
	}
	defer tx.Rollback()

	res := &Result{}
	for i, st := range stmts {
		if st.returns {
			rows, err := tx.Query(st.query, st.args...)
			if err != nil {
				q.logger.Errorf("Batch statement %d failed: %v", i, err)
				return reply{err: fmt.Errorf("statement %d: %w", i, err)}
			}
			scanned, err := scanAll(rows)
			if err != nil {
				q.logger.Errorf("Batch statement %d scan failed: %v", i, err)
				return reply{err: fmt.Errorf("statement %d: %w", i, err)}
			}
			res.Rows = scanned
		} else {
			r, err := tx.Exec(st.query, st.args...)
			if err != nil {
				q.logger.Errorf("Batch statement %d failed: %v", i, err)
				return reply{err: fmt.Errorf("statement %d: %w", i, err)}
			}
			if id, err := r.LastInsertId(); err == nil {
				res.LastInsertID = id
			}
			if n, err := r.RowsAffected(); err == nil {
				res.RowsAffected = n
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return reply{err: fmt.Errorf("failed to commit batch: %w", err)}
	}
	return reply{res: res}
}

// scanAll drains rows into materialized maps. It dynamically handles the
// column set and converts byte slices (TEXT/BLOB columns) to strings for
// easier handling. Rows are closed before returning so the connection is
// free for the next statement.
func scanAll(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			val := values[i]
			if b, ok := val.([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = val
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
