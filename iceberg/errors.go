package iceberg

import (
	"fmt"

	"github.com/lakekit/lakekit/utils"
)

// Validation errors are always raised locally, before any statement reaches
// the engine. They are caller mistakes and never transient, so they all
// satisfy IsPermanent().
var (
	ErrInvalidIdentifier   = utils.PermError("invalid identifier")
	ErrUnsupportedValue    = utils.PermError("unsupported value")
	ErrSchemaMismatch      = utils.PermError("rows declare inconsistent column sets")
	ErrInvalidPartitionKey = utils.PermError("partition key is not a declared column")
	ErrInvalidBatchSize    = utils.PermError("batch size must be a positive integer")
	ErrInvalidLimit        = utils.PermError("row limit must be non-negative")
	ErrUnsafeFragment      = utils.PermError("unsafe SQL fragment")
	ErrMalformedMetadata   = utils.PermError("malformed metadata response")
)

// ChunkError reports a batch insert that failed partway through. Chunks
// before Chunk are already committed on the engine side, chunks from Chunk
// onward were never sent.
type ChunkError struct {
	// Chunk is the zero-based index of the first failed chunk.
	Chunk int
	// Committed is the number of chunks that completed before the failure.
	Committed int

	cause error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("batch insert failed at chunk %d (%d chunks committed): %s", e.Chunk, e.Committed, e.cause)
}

func (e *ChunkError) Unwrap() error {
	return e.cause
}
