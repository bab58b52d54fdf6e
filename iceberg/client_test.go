package iceberg

import (
	"context"
	"errors"
	"testing"

	"github.com/lakekit/lakekit/engine"
)

type fakeExecutor struct {
	queries []string
	execs   []string

	queryCols []string
	queryRows [][]any

	// failExecAt fails the Nth Exec call (zero-based), -1 disables
	failExecAt int
	execErr    error

	closed bool
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{failExecAt: -1, execErr: errors.New("exec failed")}
}

func (f *fakeExecutor) Query(_ context.Context, sql string) ([]string, [][]any, error) {
	if f.closed {
		return nil, nil, engine.ErrClosed
	}
	f.queries = append(f.queries, sql)
	return f.queryCols, f.queryRows, nil
}

func (f *fakeExecutor) Exec(_ context.Context, sql string) error {
	if f.closed {
		return engine.ErrClosed
	}
	if f.failExecAt == len(f.execs) {
		return f.execErr
	}
	f.execs = append(f.execs, sql)
	return nil
}

func (f *fakeExecutor) Close() error {
	f.closed = true
	return nil
}

func newTestClient(t *testing.T, exec Executor) *Client {
	t.Helper()
	c, err := NewWithExecutor("local", "events", exec)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewRejectsBadCatalogSchema(t *testing.T) {
	if _, err := NewWithExecutor("bad catalog", "events", newFakeExecutor()); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
	if _, err := NewWithExecutor("local", "events;", newFakeExecutor()); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestQueryMapsRows(t *testing.T) {
	exec := newFakeExecutor()
	exec.queryCols = []string{"id", "name"}
	exec.queryRows = [][]any{{int64(1), "ana"}, {int64(2), "bo"}}
	c := newTestClient(t, exec)

	rows, err := c.Query(context.Background(), "users", QuerySpec{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["id"] != int64(1) || rows[1]["name"] != "bo" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if exec.queries[0] != "SELECT * FROM local.events.users" {
		t.Fatalf("unexpected sql: %s", exec.queries[0])
	}
}

func TestCountParsesCell(t *testing.T) {
	exec := newFakeExecutor()
	exec.queryCols = []string{"_col0"}
	exec.queryRows = [][]any{{"42"}}
	c := newTestClient(t, exec)

	count, err := c.Count(context.Background(), "users", "")
	if err != nil {
		t.Fatal(err)
	}
	if count != 42 {
		t.Fatalf("expected count 42, got %d", count)
	}
}

func TestInsertEmptyIsNoop(t *testing.T) {
	exec := newFakeExecutor()
	c := newTestClient(t, exec)

	n, err := c.Insert(context.Background(), "users", nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected 0 rows, got %d", n)
	}
	if len(exec.execs) != 0 {
		t.Fatalf("expected no statements, got %v", exec.execs)
	}
}

func TestUpdateEmptySetIsNoop(t *testing.T) {
	exec := newFakeExecutor()
	c := newTestClient(t, exec)

	if err := c.Update(context.Background(), "users", Row{}, "id = 1"); err != nil {
		t.Fatal(err)
	}
	if len(exec.execs) != 0 {
		t.Fatalf("expected no statements, got %v", exec.execs)
	}
}

func TestValidationHappensBeforeTransport(t *testing.T) {
	exec := newFakeExecutor()
	c := newTestClient(t, exec)
	ctx := context.Background()

	if _, err := c.Query(ctx, "users;", QuerySpec{}); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
	if _, err := c.Insert(ctx, "users", []Row{{"id": make(chan int)}}); !errors.Is(err, ErrUnsupportedValue) {
		t.Fatalf("expected ErrUnsupportedValue, got %v", err)
	}
	if err := c.CreateTable(ctx, "users", []Column{{Name: "id", Type: "BIGINT"}}, CreateTableOptions{PartitionedBy: []string{"nope"}}); !errors.Is(err, ErrInvalidPartitionKey) {
		t.Fatalf("expected ErrInvalidPartitionKey, got %v", err)
	}

	if len(exec.queries) != 0 || len(exec.execs) != 0 {
		t.Fatalf("validation errors must not reach the executor: %v %v", exec.queries, exec.execs)
	}
}

func TestOperationsAfterClose(t *testing.T) {
	exec := newFakeExecutor()
	c := newTestClient(t, exec)
	ctx := context.Background()

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Query(ctx, "users", QuerySpec{}); !errors.Is(err, engine.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := c.Insert(ctx, "users", []Row{{"id": 1}}); !errors.Is(err, engine.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := c.Truncate(ctx, "users"); !errors.Is(err, engine.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if len(exec.queries) != 0 || len(exec.execs) != 0 {
		t.Fatalf("closed client must not reach the transport: %v %v", exec.queries, exec.execs)
	}
}

func TestListSchemasAndTables(t *testing.T) {
	exec := newFakeExecutor()
	exec.queryCols = []string{"Schema"}
	exec.queryRows = [][]any{{"events"}, {"analytics"}}
	c := newTestClient(t, exec)
	ctx := context.Background()

	schemas, err := c.ListSchemas(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(schemas) != 2 || schemas[0] != "events" {
		t.Fatalf("unexpected schemas: %v", schemas)
	}
	if exec.queries[0] != "SHOW SCHEMAS FROM local" {
		t.Fatalf("unexpected sql: %s", exec.queries[0])
	}

	exec.queryRows = [][]any{{"users"}}
	exists, err := c.TableExists(ctx, "users")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Fatal("expected users to exist")
	}
	exists, err = c.TableExists(ctx, "ghosts")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Fatal("expected ghosts to not exist")
	}
}

func TestDescribeTable(t *testing.T) {
	exec := newFakeExecutor()
	exec.queryCols = []string{"Column", "Type", "Extra", "Comment"}
	exec.queryRows = [][]any{{"id", "BIGINT", "NO", ""}}
	c := newTestClient(t, exec)

	descriptors, err := c.DescribeTable(context.Background(), "users")
	if err != nil {
		t.Fatal(err)
	}
	if len(descriptors) != 1 || descriptors[0].Type != "bigint" {
		t.Fatalf("unexpected descriptors: %+v", descriptors)
	}
	if exec.queries[0] != "DESCRIBE local.events.users" {
		t.Fatalf("unexpected sql: %s", exec.queries[0])
	}
}

func TestWithSchema(t *testing.T) {
	exec := newFakeExecutor()
	c := newTestClient(t, exec)

	c2, err := c.WithSchema("analytics")
	if err != nil {
		t.Fatal(err)
	}
	if err := c2.Truncate(context.Background(), "users"); err != nil {
		t.Fatal(err)
	}
	if exec.execs[0] != "TRUNCATE TABLE local.analytics.users" {
		t.Fatalf("unexpected sql: %s", exec.execs[0])
	}

	if _, err := c.WithSchema("bad schema"); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}
