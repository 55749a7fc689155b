package waffles

import (
	"fmt"
	"strings"
)

// RenderCreateTable produces a CREATE TABLE statement for the columns in the
// given order, followed by one CREATE INDEX statement per indexed column,
// each on its own line. Names are rendered as given; use QuoteIdent for
// names that need quoting.
func RenderCreateTable(name string, columns []*Column, existsOk bool) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if existsOk {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(name)

	defs := make([]string, 0, len(columns)+1)
	var primaryKeys []string
	for _, col := range columns {
		defs = append(defs, col.SQL())
		if col.primaryKey {
			primaryKeys = append(primaryKeys, col.name)
		}
	}
	if len(primaryKeys) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryKeys, ", ")))
	}
	fmt.Fprintf(&b, " (%s);", strings.Join(defs, ", "))

	for _, col := range columns {
		if !col.index {
			continue
		}
		fmt.Fprintf(&b, "\nCREATE INDEX IF NOT EXISTS %s ON %s (%s);",
			indexName(name, col.name), name, col.name)
	}

	return b.String()
}

// RenderDropTable produces a DROP TABLE statement.
func RenderDropTable(name string, existsOk bool) string {
	if existsOk {
		return "DROP TABLE IF EXISTS " + name
	}
	return "DROP TABLE " + name
}

// RenderInsert produces a single-row INSERT returning every column. The $n
// placeholders follow columnNames, so arguments must be passed in the same
// order. With no columns every value comes from the column defaults.
func RenderInsert(name string, columnNames []string) string {
	if len(columnNames) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *;", name)
	}
	placeholders := make([]string, len(columnNames))
	for i := range columnNames {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *;",
		name, strings.Join(columnNames, ", "), strings.Join(placeholders, ", "))
}
