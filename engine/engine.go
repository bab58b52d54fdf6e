// Package engine owns the single session to the remote Trino coordinator.
// The wire protocol is the driver's problem: this package only executes SQL
// text and maps failures into the closed/engine/transport taxonomy.
package engine

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/lakekit/lakekit/gologger"
	"github.com/lakekit/lakekit/utils"

	// importing the package also registers the "trino" driver
	"github.com/trinodb/trino-go-client/trino"
)

var (
	logger = gologger.NewLogger()

	// ErrClosed means an operation was attempted after Close. Nothing reaches
	// the transport once the session is released.
	ErrClosed = utils.PermError("connection is closed")

	// ErrEngine tags statements the engine rejected (syntax error, missing
	// object, constraint violation). Never retried here.
	ErrEngine = errors.New("engine rejected statement")

	// ErrTransport tags network and session layer failures. Never retried
	// here either, retry policy belongs to the caller.
	ErrTransport = errors.New("transport failure")
)

type (
	Config struct {
		Host    string
		Port    int64
		User    string
		Catalog string
		Schema  string
	}

	// Conn is one pinned session to the engine. It is a scoped resource:
	// acquired once, released exactly once, never reused after release. Not
	// safe for concurrent use, callers serialize.
	Conn struct {
		db     *sql.DB
		conn   *sql.Conn
		closed bool
	}
)

// Connect opens the underlying driver and pins exactly one session.
func Connect(cfg Config) (*Conn, error) {
	dsnConfig := trino.Config{
		ServerURI: fmt.Sprintf("http://%s@%s:%d", cfg.User, cfg.Host, cfg.Port),
		Source:    "lakekit",
		Catalog:   cfg.Catalog,
		Schema:    cfg.Schema,
	}
	dsn, err := dsnConfig.FormatDSN()
	if err != nil {
		return nil, fmt.Errorf("error in FormatDSN: %w", err)
	}

	db, err := sql.Open("trino", dsn)
	if err != nil {
		return nil, fmt.Errorf("error in sql.Open: %w", err)
	}

	conn, err := db.Conn(context.Background())
	if err != nil {
		db.Close()
		return nil, mapErr(err)
	}

	logger.Debug().Str("host", cfg.Host).Int64("port", cfg.Port).Msg("connected to engine")

	return &Conn{db: db, conn: conn}, nil
}

// Query executes sql and returns column names plus row tuples, fully
// materialized.
func (c *Conn) Query(ctx context.Context, sqlText string) ([]string, [][]any, error) {
	if c.closed {
		return nil, nil, ErrClosed
	}

	rows, err := c.conn.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, nil, mapErr(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, mapErr(err)
	}

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, mapErr(err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mapErr(err)
	}

	return cols, out, nil
}

// Exec executes sql and discards any result.
func (c *Conn) Exec(ctx context.Context, sqlText string) error {
	if c.closed {
		return ErrClosed
	}
	if _, err := c.conn.ExecContext(ctx, sqlText); err != nil {
		return mapErr(err)
	}
	return nil
}

// Close releases the session. Idempotent.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	connErr := c.conn.Close()
	dbErr := c.db.Close()
	if connErr != nil && !errors.Is(connErr, sql.ErrConnDone) {
		return fmt.Errorf("error closing session: %w", connErr)
	}
	if dbErr != nil {
		return fmt.Errorf("error closing driver: %w", dbErr)
	}
	return nil
}

// mapErr tags a driver failure as transport or engine. The raw error stays in
// the chain either way.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if isTransport(err) {
		return errors.Join(ErrTransport, err)
	}
	return errors.Join(ErrEngine, err)
}

func isTransport(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
