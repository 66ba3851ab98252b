package internal

import (
	"fmt"
	"strings"
)

// Column is one column as the backend reports it. Type is lower-case.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// SchemaError lists how a table differs from the audit schema.
type SchemaError struct {
	Table    string
	Missing  []string
	Mismatch []string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table %s does not match the audit schema", e.Table)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "; missing columns: %s", strings.Join(e.Missing, ", "))
	}
	if len(e.Mismatch) > 0 {
		fmt.Fprintf(&b, "; mismatched: %s", strings.Join(e.Mismatch, "; "))
	}
	return b.String()
}

// CheckColumns compares the columns found in table against want, in want's
// order. Extra columns are allowed. An empty got means the table is absent.
func CheckColumns(table string, want []Column, got []Column) error {
	if len(got) == 0 {
		return fmt.Errorf("table %s does not exist", table)
	}

	found := make(map[string]Column, len(got))
	for _, c := range got {
		found[c.Name] = c
	}

	schemaErr := &SchemaError{Table: table}
	for _, w := range want {
		g, ok := found[w.Name]
		if !ok {
			schemaErr.Missing = append(schemaErr.Missing, w.Name)
			continue
		}
		if g.Type != w.Type {
			schemaErr.Mismatch = append(schemaErr.Mismatch,
				fmt.Sprintf("%s: expected %s, got %s", w.Name, w.Type, g.Type))
		}
		if g.Nullable != w.Nullable {
			schemaErr.Mismatch = append(schemaErr.Mismatch,
				fmt.Sprintf("%s: nullable is %t", w.Name, g.Nullable))
		}
	}

	if len(schemaErr.Missing) > 0 || len(schemaErr.Mismatch) > 0 {
		return schemaErr
	}
	return nil
}
