package iceberg

import (
	"context"
	"fmt"
)

// DefaultBatchSize is the chunk size callers should pass when they have no
// opinion.
const DefaultBatchSize = 100

// InsertBatch splits rows into consecutive chunks of at most batchSize and
// issues one INSERT per chunk, in input order, sequentially. batchSize must
// be positive, anything else fails with ErrInvalidBatchSize before anything
// is sent.
//
// The operation is NOT atomic across chunks: a failure at chunk i leaves
// chunks 0..i-1 committed on the engine side and i..n unsent. The returned
// *ChunkError reports the failing chunk index and how many chunks committed.
// Returns the number of rows inserted.
func (c *Client) InsertBatch(ctx context.Context, table string, rows []Row, batchSize int) (int, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batch size %d: %w", batchSize, ErrInvalidBatchSize)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	// Validate the shared column set up front so a mismatch in a late chunk
	// cannot strand earlier chunks already committed
	if _, err := rowColumns(rows); err != nil {
		return 0, err
	}

	total := 0
	for chunk := 0; chunk*batchSize < len(rows); chunk++ {
		start := chunk * batchSize
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}

		n, err := c.Insert(ctx, table, rows[start:end])
		if err != nil {
			return total, &ChunkError{Chunk: chunk, Committed: chunk, cause: err}
		}
		total += n

		logger.Debug().Str("table", table).Int("chunk", chunk).Int("rows", n).Msg("inserted batch chunk")
	}
	return total, nil
}
