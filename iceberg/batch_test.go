package iceberg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func batchRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{"id": i, "name": fmt.Sprintf("user_%d", i)}
	}
	return rows
}

func TestInsertBatchChunking(t *testing.T) {
	exec := newFakeExecutor()
	c := newTestClient(t, exec)

	n, err := c.InsertBatch(context.Background(), "users", batchRows(250), 100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 250 {
		t.Fatalf("expected 250 rows inserted, got %d", n)
	}
	if len(exec.execs) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(exec.execs))
	}

	// Chunks of 100, 100, 50 in input order
	for i, wantRows := range []int{100, 100, 50} {
		if got := strings.Count(exec.execs[i], "("); got != wantRows+1 { // +1 for the column list
			t.Fatalf("chunk %d has %d value groups, want %d", i, got-1, wantRows)
		}
	}
	if !strings.Contains(exec.execs[0], "(0, 'user_0')") {
		t.Fatalf("chunk 0 should start at row 0: %s", exec.execs[0][:80])
	}
	if !strings.Contains(exec.execs[2], "(200, 'user_200')") {
		t.Fatalf("chunk 2 should start at row 200: %s", exec.execs[2][:80])
	}
}

func TestInsertBatchInvalidSize(t *testing.T) {
	exec := newFakeExecutor()
	c := newTestClient(t, exec)

	// Zero is not an "unset" spelling here, only positive sizes are legal
	for _, batchSize := range []int{0, -1, -100} {
		n, err := c.InsertBatch(context.Background(), "users", batchRows(10), batchSize)
		if !errors.Is(err, ErrInvalidBatchSize) {
			t.Fatalf("expected ErrInvalidBatchSize for batch size %d, got %v", batchSize, err)
		}
		if n != 0 {
			t.Fatalf("expected 0 rows for batch size %d, got %d", batchSize, n)
		}
		if len(exec.execs) != 0 {
			t.Fatalf("expected zero network calls for batch size %d, got %d", batchSize, len(exec.execs))
		}
	}
}

func TestInsertBatchDefaultSizeConstant(t *testing.T) {
	exec := newFakeExecutor()
	c := newTestClient(t, exec)

	n, err := c.InsertBatch(context.Background(), "users", batchRows(150), DefaultBatchSize)
	if err != nil {
		t.Fatal(err)
	}
	if n != 150 {
		t.Fatalf("expected 150 rows, got %d", n)
	}
	if len(exec.execs) != 2 {
		t.Fatalf("expected 2 chunks at the default size, got %d", len(exec.execs))
	}
}

func TestInsertBatchEmptyIsNoop(t *testing.T) {
	exec := newFakeExecutor()
	c := newTestClient(t, exec)

	n, err := c.InsertBatch(context.Background(), "users", nil, 100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || len(exec.execs) != 0 {
		t.Fatalf("expected a no-op, got %d rows and %d statements", n, len(exec.execs))
	}
}

func TestInsertBatchStopsAtFailedChunk(t *testing.T) {
	exec := newFakeExecutor()
	exec.failExecAt = 1
	c := newTestClient(t, exec)

	n, err := c.InsertBatch(context.Background(), "users", batchRows(250), 100)
	if err == nil {
		t.Fatal("expected an error")
	}

	var chunkErr *ChunkError
	if !errors.As(err, &chunkErr) {
		t.Fatalf("expected a ChunkError, got %v", err)
	}
	if chunkErr.Chunk != 1 {
		t.Fatalf("expected failure at chunk 1, got %d", chunkErr.Chunk)
	}
	if chunkErr.Committed != 1 {
		t.Fatalf("expected 1 committed chunk, got %d", chunkErr.Committed)
	}
	if n != 100 {
		t.Fatalf("expected 100 rows committed before the failure, got %d", n)
	}
	// Chunk 2 must never have been sent
	if len(exec.execs) != 1 {
		t.Fatalf("expected exactly 1 sent statement, got %d", len(exec.execs))
	}
	if !errors.Is(err, exec.execErr) {
		t.Fatalf("cause should be preserved in the chain, got %v", err)
	}
}

func TestInsertBatchMismatchBeforeAnySend(t *testing.T) {
	exec := newFakeExecutor()
	c := newTestClient(t, exec)

	rows := batchRows(150)
	rows[120] = Row{"id": 120} // missing "name"

	_, err := c.InsertBatch(context.Background(), "users", rows, 100)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if len(exec.execs) != 0 {
		t.Fatalf("mismatch anywhere in the batch must fail before any send, got %d statements", len(exec.execs))
	}
}
