package iceberg

import "fmt"

// ValidIdent checks that a schema, table, or column name is safe to
// interpolate unquoted into generated SQL. Names cannot be parameterized the
// way values can, so this check is the only defense against injection through
// identifiers. Raw SQL passthrough (Execute, QuerySQL) is exempt.
func ValidIdent(s string) error {
	if s == "" {
		return fmt.Errorf("empty identifier: %w", ErrInvalidIdentifier)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return fmt.Errorf("identifier '%s' starts with a digit: %w", s, ErrInvalidIdentifier)
			}
		default:
			return fmt.Errorf("identifier '%s' contains illegal character at position %d: %w", s, i, ErrInvalidIdentifier)
		}
	}
	return nil
}

func validIdents(names []string) error {
	for _, name := range names {
		if err := ValidIdent(name); err != nil {
			return err
		}
	}
	return nil
}
