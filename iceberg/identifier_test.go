package iceberg

import (
	"errors"
	"testing"
)

func TestValidIdent(t *testing.T) {
	for _, name := range []string{"users", "_private", "Event_Date", "t1", "a"} {
		if err := ValidIdent(name); err != nil {
			t.Fatalf("expected '%s' to be valid: %s", name, err)
		}
	}

	for _, name := range []string{"", "1table", "my table", "users;", "users'", "users\"", "a.b", "drop--", "사용자"} {
		err := ValidIdent(name)
		if err == nil {
			t.Fatalf("expected '%s' to be rejected", name)
		}
		if !errors.Is(err, ErrInvalidIdentifier) {
			t.Fatalf("expected ErrInvalidIdentifier for '%s', got %s", name, err)
		}
	}
}
