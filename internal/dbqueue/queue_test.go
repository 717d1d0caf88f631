package dbqueue

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"gallerybase/internal/logging"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(filepath.Join(t.TempDir(), "queue_test.db"), logging.NewLogger("error"))
	if err != nil {
		t.Fatalf("Failed to open queue: %v", err)
	}
	t.Cleanup(func() { q.Close() })

	_, err = q.Submit(context.Background(),
		Exec("CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)"))
	if err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}
	return q
}

func TestSubmitRoundTrip(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	res, err := q.Submit(ctx, Exec("INSERT INTO items(name) VALUES(?)", "first"))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), res.LastInsertID)

	res, err = q.Submit(ctx, Query("SELECT id, name FROM items"))
	assert.NoError(t, err)
	assert.Len(t, res.Rows, 1)
	assert.Equal(t, "first", res.Rows[0]["name"])
	assert.Equal(t, int64(1), res.Rows[0]["id"])
}

func TestBatchIsAtomic(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	// The bad statement aborts the batch; the preceding insert must be
	// rolled back with it.
	_, err := q.Submit(ctx,
		Exec("INSERT INTO items(name) VALUES(?)", "doomed"),
		Exec("INSERT INTO no_such_table(name) VALUES(?)", "boom"),
	)
	assert.Error(t, err)

	res, err := q.Submit(ctx, Query("SELECT COUNT(*) AS n FROM items"))
	assert.NoError(t, err)
	assert.Equal(t, int64(0), res.Rows[0]["n"])

	// The failure stays with its own batch; the queue keeps serving.
	_, err = q.Submit(ctx, Exec("INSERT INTO items(name) VALUES(?)", "survivor"))
	assert.NoError(t, err)
}

func TestReadAfterWrite(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Submit(ctx, Exec("INSERT INTO items(name) VALUES(?)", "visible"))
	assert.NoError(t, err)

	// A read submitted after the write completed must reflect it.
	done := make(chan error, 1)
	go func() {
		res, err := q.Submit(ctx, Query("SELECT name FROM items"))
		if err == nil && (len(res.Rows) != 1 || res.Rows[0]["name"] != "visible") {
			err = fmt.Errorf("unexpected rows: %v", res.Rows)
		}
		done <- err
	}()
	assert.NoError(t, <-done)
}

func TestConcurrentCallersGetTheirOwnResults(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	const callers = 8
	const perCaller = 10

	var wg sync.WaitGroup
	ids := make(chan int64, callers*perCaller)
	for c := 0; c < callers; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			for i := 0; i < perCaller; i++ {
				res, err := q.Submit(ctx, Exec("INSERT INTO items(name) VALUES(?)", fmt.Sprintf("c%d-%d", c, i)))
				assert.NoError(t, err)
				ids <- res.LastInsertID
			}
		}(c)
	}
	wg.Wait()
	close(ids)

	// Every caller saw a distinct last-inserted id: no reply cross-talk.
	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d delivered to two callers", id)
		seen[id] = true
	}
	assert.Len(t, seen, callers*perCaller)
}

func TestFIFOOrder(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		_, err := q.Submit(ctx, Exec("INSERT INTO items(name) VALUES(?)", fmt.Sprintf("%03d", i)))
		assert.NoError(t, err)
	}

	res, err := q.Submit(ctx, Query("SELECT name FROM items ORDER BY id"))
	assert.NoError(t, err)
	assert.Len(t, res.Rows, 50)
	for i, row := range res.Rows {
		assert.Equal(t, fmt.Sprintf("%03d", i), row["name"])
	}
}

func TestSubmitAfterClose(t *testing.T) {
	q, err := Open(filepath.Join(t.TempDir(), "closed.db"), logging.NewLogger("error"))
	assert.NoError(t, err)
	assert.NoError(t, q.Close())

	_, err = q.Submit(context.Background(), Exec("SELECT 1"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSubmitHonorsContext(t *testing.T) {
	q := newTestQueue(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Submit(ctx, Exec("INSERT INTO items(name) VALUES(?)", "never"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmptyBatch(t *testing.T) {
	q := newTestQueue(t)

	res, err := q.Submit(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, res)
}
