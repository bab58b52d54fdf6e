package iceberg

import (
	"fmt"
	"strings"
)

// parseDescribe normalizes the engine's DESCRIBE response into an ordered
// column list. The engine reports one row per column: name, type spelling,
// then a nullability cell ("YES"/"NO" or a bool, depending on connector).
// Type spellings are lowered so callers compare against one canonical form.
func parseDescribe(rows [][]any) ([]ColumnDescriptor, error) {
	descriptors := make([]ColumnDescriptor, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("metadata row %d has %d fields, need name and type: %w", i, len(row), ErrMalformedMetadata)
		}

		name, ok := row[0].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("metadata row %d is missing the column name: %w", i, ErrMalformedMetadata)
		}
		colType, ok := row[1].(string)
		if !ok || colType == "" {
			return nil, fmt.Errorf("metadata row %d is missing the column type: %w", i, ErrMalformedMetadata)
		}

		nullable := false
		if len(row) > 2 {
			switch v := row[2].(type) {
			case string:
				nullable = strings.EqualFold(v, "YES")
			case bool:
				nullable = v
			}
		}

		descriptors = append(descriptors, ColumnDescriptor{
			Name:     name,
			Type:     strings.ToLower(strings.TrimSpace(colType)),
			Nullable: nullable,
		})
	}
	return descriptors, nil
}
