package iceberg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/lakekit/lakekit/engine"
	"github.com/lakekit/lakekit/gologger"
	"github.com/lakekit/lakekit/utils"
)

var logger = gologger.NewLogger()

type (
	// Executor is the single session to the remote engine. engine.Conn
	// implements it. It is not safe for concurrent use, callers must
	// serialize operations on one Client.
	Executor interface {
		// Query executes sql and returns column names and row tuples
		Query(ctx context.Context, sql string) ([]string, [][]any, error)
		// Exec executes sql and discards any result
		Exec(ctx context.Context, sql string) error
		Close() error
	}

	Config struct {
		Host    string
		Port    int64
		User    string
		Catalog string
		Schema  string
	}

	// Client is the façade over the statement builders and one engine
	// session. It owns its Executor for its entire lifetime: Close releases
	// it and every later operation fails with engine.ErrClosed.
	Client struct {
		catalog string
		schema  string
		exec    Executor
	}
)

// New validates catalog and schema names, dials the engine, and returns a
// client bound to exactly one session.
func New(cfg Config) (*Client, error) {
	if err := ValidIdent(cfg.Catalog); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if err := ValidIdent(cfg.Schema); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	conn, err := engine.Connect(engine.Config{
		Host:    cfg.Host,
		Port:    cfg.Port,
		User:    cfg.User,
		Catalog: cfg.Catalog,
		Schema:  cfg.Schema,
	})
	if err != nil {
		return nil, fmt.Errorf("error in engine.Connect: %w", err)
	}

	logger.Debug().Str("catalog", cfg.Catalog).Str("schema", cfg.Schema).Msg("connected table client")

	return &Client{
		catalog: cfg.Catalog,
		schema:  cfg.Schema,
		exec:    conn,
	}, nil
}

// NewWithExecutor builds a client over an existing session, mostly for tests
// and custom transports.
func NewWithExecutor(catalog, schema string, exec Executor) (*Client, error) {
	if err := ValidIdent(catalog); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if err := ValidIdent(schema); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return &Client{catalog: catalog, schema: schema, exec: exec}, nil
}

// WithSchema returns a client addressing another schema over the same
// session. Closing either closes the shared session.
func (c *Client) WithSchema(schema string) (*Client, error) {
	if err := ValidIdent(schema); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return &Client{catalog: c.catalog, schema: schema, exec: c.exec}, nil
}

// Close releases the engine session. Idempotent.
func (c *Client) Close() error {
	return c.exec.Close()
}

func (c *Client) tableName(table string) TableName {
	return TableName{Catalog: c.catalog, Schema: c.schema, Table: table}
}

// Execute runs raw SQL and discards the result. The text is passed through
// verbatim, no identifier or fragment checks apply.
func (c *Client) Execute(ctx context.Context, sql string) error {
	return c.exec.Exec(ctx, sql)
}

// QuerySQL runs raw SQL and returns rows keyed by engine column names.
func (c *Client) QuerySQL(ctx context.Context, sql string) ([]map[string]any, error) {
	cols, rows, err := c.exec.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return zipRows(cols, rows), nil
}

// Query reads from a table per the QuerySpec.
func (c *Client) Query(ctx context.Context, table string, q QuerySpec) ([]map[string]any, error) {
	sql, err := BuildSelect(c.tableName(table), q)
	if err != nil {
		return nil, err
	}
	return c.QuerySQL(ctx, sql)
}

// Count returns the number of rows matching the optional where fragment.
func (c *Client) Count(ctx context.Context, table string, where string) (int64, error) {
	sql, err := BuildCount(c.tableName(table), where)
	if err != nil {
		return 0, err
	}
	_, rows, err := c.exec.Query(ctx, sql)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, fmt.Errorf("COUNT returned no cells: %w", ErrMalformedMetadata)
	}
	return intCell(rows[0][0])
}

// Insert writes rows in one statement. All rows must share one column set.
// An empty row slice is a no-op success.
func (c *Client) Insert(ctx context.Context, table string, rows []Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	sql, err := BuildInsert(c.tableName(table), rows)
	if err != nil {
		return 0, err
	}
	if err := c.exec.Exec(ctx, sql); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Update sets columns on rows matching where. An empty where updates the
// whole table. An empty set map is a no-op success.
func (c *Client) Update(ctx context.Context, table string, set Row, where string) error {
	if len(set) == 0 {
		return nil
	}
	sql, err := BuildUpdate(c.tableName(table), set, where)
	if err != nil {
		return err
	}
	return c.exec.Exec(ctx, sql)
}

// Delete removes rows matching where. An empty where deletes every row.
func (c *Client) Delete(ctx context.Context, table string, where string) error {
	sql, err := BuildDelete(c.tableName(table), where)
	if err != nil {
		return err
	}
	return c.exec.Exec(ctx, sql)
}

// Truncate removes all rows from a table.
func (c *Client) Truncate(ctx context.Context, table string) error {
	sql, err := BuildTruncate(c.tableName(table))
	if err != nil {
		return err
	}
	return c.exec.Exec(ctx, sql)
}

// ListSchemas lists schemas in the client's catalog.
func (c *Client) ListSchemas(ctx context.Context) ([]string, error) {
	sql, err := BuildShowSchemas(c.catalog)
	if err != nil {
		return nil, err
	}
	return c.firstColumn(ctx, sql)
}

// CreateSchema creates a schema in the client's catalog.
func (c *Client) CreateSchema(ctx context.Context, schema string, ifNotExists bool) error {
	sql, err := BuildCreateSchema(c.catalog, schema, ifNotExists)
	if err != nil {
		return err
	}
	return c.exec.Exec(ctx, sql)
}

// DropSchema drops a schema in the client's catalog.
func (c *Client) DropSchema(ctx context.Context, schema string, ifExists bool) error {
	sql, err := BuildDropSchema(c.catalog, schema, ifExists)
	if err != nil {
		return err
	}
	return c.exec.Exec(ctx, sql)
}

// ListTables lists tables in the client's schema.
func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	sql, err := BuildShowTables(c.catalog, c.schema)
	if err != nil {
		return nil, err
	}
	return c.firstColumn(ctx, sql)
}

// TableExists reports whether a table exists in the client's schema.
func (c *Client) TableExists(ctx context.Context, table string) (bool, error) {
	if err := ValidIdent(table); err != nil {
		return false, err
	}
	tables, err := c.ListTables(ctx)
	if err != nil {
		return false, err
	}
	return utils.ContainsString(tables, table), nil
}

// CreateTable creates an Iceberg table with the given columns.
func (c *Client) CreateTable(ctx context.Context, table string, columns []Column, opts CreateTableOptions) error {
	sql, err := BuildCreateTable(c.tableName(table), columns, opts)
	if err != nil {
		return err
	}
	return c.exec.Exec(ctx, sql)
}

// DropTable drops a table in the client's schema.
func (c *Client) DropTable(ctx context.Context, table string, ifExists bool) error {
	sql, err := BuildDropTable(c.tableName(table), ifExists)
	if err != nil {
		return err
	}
	return c.exec.Exec(ctx, sql)
}

// DescribeTable returns the normalized column descriptors for a table.
func (c *Client) DescribeTable(ctx context.Context, table string) ([]ColumnDescriptor, error) {
	sql, err := BuildDescribe(c.tableName(table))
	if err != nil {
		return nil, err
	}
	_, rows, err := c.exec.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return parseDescribe(rows)
}

func (c *Client) firstColumn(ctx context.Context, sql string) ([]string, error) {
	_, rows, err := c.exec.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			return nil, fmt.Errorf("row %d is empty: %w", i, ErrMalformedMetadata)
		}
		name, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("row %d has a non-text name cell: %w", i, ErrMalformedMetadata)
		}
		names = append(names, name)
	}
	return names, nil
}

func zipRows(cols []string, rows [][]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		m := make(map[string]any, len(cols))
		for j, col := range cols {
			if j < len(row) {
				m[col] = row[j]
			}
		}
		out[i] = m
	}
	return out
}

// intCell parses a single integer cell in whatever spelling the driver hands
// back.
func intCell(v any) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case int32:
		return int64(val), nil
	case int:
		return int64(val), nil
	case uint64:
		return int64(val), nil
	case float64:
		return int64(val), nil
	case json.Number:
		return val.Int64()
	case string:
		return strconv.ParseInt(val, 10, 64)
	case []byte:
		return strconv.ParseInt(string(val), 10, 64)
	default:
		return 0, fmt.Errorf("cannot parse %T as an integer cell: %w", v, ErrMalformedMetadata)
	}
}
