package iceberg

import (
	"errors"
	"testing"
)

func TestParseDescribe(t *testing.T) {
	descriptors, err := parseDescribe([][]any{
		{"id", "BIGINT", "NO"},
		{"name", "VARCHAR ", "YES"},
		{"tags", "array(varchar)", true},
		{"note", "varchar"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(descriptors) != 4 {
		t.Fatalf("expected 4 descriptors, got %d", len(descriptors))
	}

	want := []ColumnDescriptor{
		{Name: "id", Type: "bigint", Nullable: false},
		{Name: "name", Type: "varchar", Nullable: true},
		{Name: "tags", Type: "array(varchar)", Nullable: true},
		{Name: "note", Type: "varchar", Nullable: false},
	}
	for i, w := range want {
		if descriptors[i] != w {
			t.Fatalf("descriptor %d = %+v, want %+v", i, descriptors[i], w)
		}
	}
}

func TestParseDescribeMalformed(t *testing.T) {
	for _, rows := range [][][]any{
		{{"id"}},                 // missing type
		{{nil, "BIGINT", "YES"}}, // non-text name
		{{"id", 42, "YES"}},      // non-text type
		{{"", "BIGINT", "YES"}},  // empty name
	} {
		_, err := parseDescribe(rows)
		if !errors.Is(err, ErrMalformedMetadata) {
			t.Fatalf("expected ErrMalformedMetadata for %+v, got %v", rows, err)
		}
	}
}
