// Package objectstore is a key-addressed object store with explicit decode
// paths: callers choose text, JSON, or bytes, the store never sniffs content.
package objectstore

import (
	"context"

	"github.com/lakekit/lakekit/gologger"
	"github.com/lakekit/lakekit/utils"
)

var (
	logger = gologger.NewLogger()

	ErrInvalidKey = utils.PermError("invalid object key")
)

type (
	ObjectStore interface {
		// WriteBytes stores raw bytes under key, creating parent prefixes
		WriteBytes(ctx context.Context, key string, data []byte) error
		// WriteText stores a UTF-8 string under key
		WriteText(ctx context.Context, key, content string) error
		// WriteJSON marshals v and stores it under key
		WriteJSON(ctx context.Context, key string, v any) error

		ReadBytes(ctx context.Context, key string) ([]byte, error)
		ReadText(ctx context.Context, key string) (string, error)
		// ReadJSON reads key and unmarshals into out
		ReadJSON(ctx context.Context, key string, out any) error

		// Delete removes key. With missingOK a missing key is not an error.
		Delete(ctx context.Context, key string, missingOK bool) error
		Exists(ctx context.Context, key string) (bool, error)
		// List returns keys under prefix, lexically ordered
		List(ctx context.Context, prefix string) ([]string, error)

		Shutdown(ctx context.Context) error
	}
)
