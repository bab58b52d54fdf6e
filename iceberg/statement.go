package iceberg

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lakekit/lakekit/utils"
)

type (
	// Row maps column names to native values for one row of an insert or the
	// SET clause of an update.
	Row map[string]any

	// Column declares one column at table creation time.
	Column struct {
		Name string
		Type string
	}

	// ColumnDescriptor is one normalized column from a DESCRIBE response.
	ColumnDescriptor struct {
		Name     string
		Type     string
		Nullable bool
	}

	// TableName is a catalog-qualified table reference. Catalog and Schema
	// may be empty, in which case the engine session defaults apply.
	TableName struct {
		Catalog string
		Schema  string
		Table   string
	}

	// QuerySpec describes a filtered read. Where and OrderBy are raw SQL
	// fragments used verbatim after a multi-statement/comment injection
	// check, they are not parsed or rewritten.
	QuerySpec struct {
		// Columns to select, empty means all
		Columns []string
		Where   string
		OrderBy string
		// Limit is the max row count, nil means no limit
		Limit *int64
	}

	CreateTableOptions struct {
		IfNotExists bool
		// PartitionedBy lists partition key columns, each must be one of the
		// declared columns
		PartitionedBy []string
	}
)

func (t TableName) qualify() (string, error) {
	segments := make([]string, 0, 3)
	for _, seg := range []string{t.Catalog, t.Schema, t.Table} {
		if seg == "" {
			continue
		}
		if err := ValidIdent(seg); err != nil {
			return "", err
		}
		segments = append(segments, seg)
	}
	if t.Table == "" {
		return "", fmt.Errorf("empty table name: %w", ErrInvalidIdentifier)
	}
	return strings.Join(segments, "."), nil
}

// checkFragment rejects raw WHERE/ORDER BY fragments that could terminate the
// statement and start another, or comment out the rest of the intended
// clause. It is deliberately not a SQL parser.
func checkFragment(frag string) error {
	if strings.Contains(frag, "--") || strings.Contains(frag, "/*") {
		return fmt.Errorf("fragment contains a comment sequence: %w", ErrUnsafeFragment)
	}
	if idx := strings.IndexByte(frag, ';'); idx >= 0 && strings.TrimSpace(frag[idx+1:]) != "" {
		return fmt.Errorf("fragment contains a statement terminator: %w", ErrUnsafeFragment)
	}
	return nil
}

// BuildSelect produces SELECT <cols> FROM <table> [WHERE] [ORDER BY] [LIMIT],
// clauses in that order, omitted when unset.
func BuildSelect(t TableName, q QuerySpec) (string, error) {
	fullName, err := t.qualify()
	if err != nil {
		return "", err
	}

	cols := "*"
	if len(q.Columns) > 0 {
		if err := validIdents(q.Columns); err != nil {
			return "", err
		}
		cols = strings.Join(q.Columns, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + cols + " FROM " + fullName)
	if q.Where != "" {
		if err := checkFragment(q.Where); err != nil {
			return "", err
		}
		sb.WriteString(" WHERE " + q.Where)
	}
	if q.OrderBy != "" {
		if err := checkFragment(q.OrderBy); err != nil {
			return "", err
		}
		sb.WriteString(" ORDER BY " + q.OrderBy)
	}
	if q.Limit != nil {
		if *q.Limit < 0 {
			return "", fmt.Errorf("limit %d: %w", *q.Limit, ErrInvalidLimit)
		}
		sb.WriteString(" LIMIT " + strconv.FormatInt(*q.Limit, 10))
	}
	return sb.String(), nil
}

func BuildCount(t TableName, where string) (string, error) {
	fullName, err := t.qualify()
	if err != nil {
		return "", err
	}
	sql := "SELECT COUNT(*) FROM " + fullName
	if where != "" {
		if err := checkFragment(where); err != nil {
			return "", err
		}
		sql += " WHERE " + where
	}
	return sql, nil
}

// rowColumns returns the shared column set of a row batch in sorted order,
// failing with ErrSchemaMismatch if any row declares a different set than the
// first.
func rowColumns(rows []Row) ([]string, error) {
	cols := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for i, row := range rows {
		if len(row) != len(cols) {
			return nil, fmt.Errorf("row %d has %d columns, expected %d: %w", i, len(row), len(cols), ErrSchemaMismatch)
		}
		for _, col := range cols {
			if _, exists := row[col]; !exists {
				return nil, fmt.Errorf("row %d is missing column '%s': %w", i, col, ErrSchemaMismatch)
			}
		}
	}
	return cols, nil
}

// BuildInsert produces a multi-row INSERT. All rows must share one column
// set. An empty row slice is the caller's no-op to handle, not the builder's.
func BuildInsert(t TableName, rows []Row) (string, error) {
	fullName, err := t.qualify()
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}

	cols, err := rowColumns(rows)
	if err != nil {
		return "", err
	}
	if err := validIdents(cols); err != nil {
		return "", err
	}

	values := make([]string, len(rows))
	for i, row := range rows {
		literals := make([]string, len(cols))
		for j, col := range cols {
			lit, err := Literal(row[col])
			if err != nil {
				return "", fmt.Errorf("row %d column '%s': %w", i, col, err)
			}
			literals[j] = lit
		}
		values[i] = "(" + strings.Join(literals, ", ") + ")"
	}

	return "INSERT INTO " + fullName + " (" + strings.Join(cols, ", ") + ") VALUES " + strings.Join(values, ", "), nil
}

// BuildUpdate produces UPDATE ... SET ... [WHERE ...]. An empty where is
// allowed and updates every row, the blast radius is the caller's problem.
func BuildUpdate(t TableName, set Row, where string) (string, error) {
	fullName, err := t.qualify()
	if err != nil {
		return "", err
	}
	if len(set) == 0 {
		return "", nil
	}

	cols := make([]string, 0, len(set))
	for col := range set {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	assignments := make([]string, len(cols))
	for i, col := range cols {
		if err := ValidIdent(col); err != nil {
			return "", err
		}
		lit, err := Literal(set[col])
		if err != nil {
			return "", fmt.Errorf("column '%s': %w", col, err)
		}
		assignments[i] = col + " = " + lit
	}

	sql := "UPDATE " + fullName + " SET " + strings.Join(assignments, ", ")
	if where != "" {
		if err := checkFragment(where); err != nil {
			return "", err
		}
		sql += " WHERE " + where
	}
	return sql, nil
}

func BuildDelete(t TableName, where string) (string, error) {
	fullName, err := t.qualify()
	if err != nil {
		return "", err
	}
	sql := "DELETE FROM " + fullName
	if where != "" {
		if err := checkFragment(where); err != nil {
			return "", err
		}
		sql += " WHERE " + where
	}
	return sql, nil
}

func BuildTruncate(t TableName) (string, error) {
	fullName, err := t.qualify()
	if err != nil {
		return "", err
	}
	return "TRUNCATE TABLE " + fullName, nil
}

func BuildCreateTable(t TableName, columns []Column, opts CreateTableOptions) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("table needs at least one column: %w", ErrSchemaMismatch)
	}

	colNames := make([]string, len(columns))
	for i, col := range columns {
		colNames[i] = col.Name
	}

	// Partition keys checked before any statement text is produced
	for _, key := range opts.PartitionedBy {
		if !utils.ContainsString(colNames, key) {
			return "", fmt.Errorf("partition key '%s' is not a declared column: %w", key, ErrInvalidPartitionKey)
		}
	}

	fullName, err := t.qualify()
	if err != nil {
		return "", err
	}

	colDefs := make([]string, len(columns))
	for i, col := range columns {
		if err := ValidIdent(col.Name); err != nil {
			return "", err
		}
		if err := validColumnType(col.Type); err != nil {
			return "", err
		}
		colDefs[i] = col.Name + " " + col.Type
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if opts.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(fullName + " (" + strings.Join(colDefs, ", ") + ")")

	if len(opts.PartitionedBy) > 0 {
		keys := make([]string, len(opts.PartitionedBy))
		for i, key := range opts.PartitionedBy {
			keys[i] = "'" + key + "'"
		}
		sb.WriteString(" WITH (partitioning = ARRAY[" + strings.Join(keys, ", ") + "])")
	}

	return sb.String(), nil
}

// validColumnType accepts engine type spellings like VARCHAR, DECIMAL(10,2),
// ARRAY(VARCHAR), MAP(VARCHAR, INTEGER), TIMESTAMP(6) WITH TIME ZONE.
func validColumnType(s string) error {
	if s == "" {
		return fmt.Errorf("empty column type: %w", ErrInvalidIdentifier)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || c == '(' || c == ')' || c == ',' || c == ' ':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			return fmt.Errorf("column type '%s' contains illegal character at position %d: %w", s, i, ErrInvalidIdentifier)
		}
	}
	return nil
}

func BuildCreateSchema(catalog, schema string, ifNotExists bool) (string, error) {
	if err := validIdents([]string{catalog, schema}); err != nil {
		return "", err
	}
	exists := ""
	if ifNotExists {
		exists = "IF NOT EXISTS "
	}
	return "CREATE SCHEMA " + exists + catalog + "." + schema, nil
}

func BuildDropSchema(catalog, schema string, ifExists bool) (string, error) {
	if err := validIdents([]string{catalog, schema}); err != nil {
		return "", err
	}
	exists := ""
	if ifExists {
		exists = "IF EXISTS "
	}
	return "DROP SCHEMA " + exists + catalog + "." + schema, nil
}

func BuildDropTable(t TableName, ifExists bool) (string, error) {
	fullName, err := t.qualify()
	if err != nil {
		return "", err
	}
	exists := ""
	if ifExists {
		exists = "IF EXISTS "
	}
	return "DROP TABLE " + exists + fullName, nil
}

func BuildDescribe(t TableName) (string, error) {
	fullName, err := t.qualify()
	if err != nil {
		return "", err
	}
	return "DESCRIBE " + fullName, nil
}

func BuildShowSchemas(catalog string) (string, error) {
	if err := ValidIdent(catalog); err != nil {
		return "", err
	}
	return "SHOW SCHEMAS FROM " + catalog, nil
}

func BuildShowTables(catalog, schema string) (string, error) {
	if err := validIdents([]string{catalog, schema}); err != nil {
		return "", err
	}
	return "SHOW TABLES FROM " + catalog + "." + schema, nil
}
