package waffles

import (
	"fmt"
	"strings"
)

// SchemaWarnings reports declarations whose rendered DDL differs from what
// the column options suggest, and bare reserved words PostgreSQL will
// reject. The caller decides whether to surface the warnings.
func SchemaWarnings(table string, columns []*Column) []string {
	var warnings []string
	seen := make(map[string]int, len(columns))
	var primaryKeys int
	for _, col := range columns {
		if col == nil {
			continue
		}
		seen[col.name]++
		if col.primaryKey {
			primaryKeys++
		}
	}

	if last := table[strings.LastIndex(table, ".")+1:]; isReservedWord(last) {
		warnings = append(warnings, fmt.Sprintf(
			"table %s is a reserved word; declare it as %s",
			table, QuoteIdent(table),
		))
	}

	reported := make(map[string]bool)
	for _, col := range columns {
		if col == nil {
			continue
		}
		if isReservedWord(col.name) {
			warnings = append(warnings, fmt.Sprintf(
				"%s.%s is a reserved word; declare it as %s",
				table, col.name, QuoteIdent(col.name),
			))
		}
		if seen[col.name] > 1 && !reported[col.name] {
			reported[col.name] = true
			warnings = append(warnings, fmt.Sprintf(
				"%s.%s is declared %d times; only the last definition is kept",
				table, col.name, seen[col.name],
			))
		}
		if col.unique && hasDefault(col.def) {
			warnings = append(warnings, fmt.Sprintf(
				"%s.%s has both a default and UNIQUE; UNIQUE is not rendered",
				table, col.name,
			))
		}
		if col.index && col.primaryKey && primaryKeys == 1 {
			warnings = append(warnings, fmt.Sprintf(
				"%s.%s is indexed and is the primary key; the extra index is redundant",
				table, col.name,
			))
		}
	}
	return warnings
}
