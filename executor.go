package waffles

import (
	"context"
	"strings"
)

// Executor runs SQL on behalf of a Database. Implementations own connection
// handling; each call uses one connection for the duration of the statement.
type Executor interface {
	// Execute runs one or more statements that return no rows.
	Execute(ctx context.Context, sql string) error

	// FetchRow runs a statement with positional parameters and returns the
	// single record it produces.
	FetchRow(ctx context.Context, sql string, params ...any) (Record, error)
}

// Record is one result row as returned by an Executor. Columns and Values
// are parallel slices in server order.
type Record struct {
	Columns []string
	Values  []any
}

// SplitStatements splits a SQL script into statements for drivers that run
// one statement per call, and for hook files. Semicolons inside quotes,
// comments and dollar-quoted bodies do not split; empty statements are
// dropped.
func SplitStatements(sql string) []string {
	var stmts []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	inLineComment := false
	blockCommentDepth := 0
	dollarTag := ""

	for i := 0; i < len(sql); i++ {
		c := sql[i]

		// -- comment runs to end of line
		if inLineComment {
			current.WriteByte(c)
			if c == '\n' {
				inLineComment = false
			}
			continue
		}

		// /* ... */ comments nest in PostgreSQL
		if blockCommentDepth > 0 {
			current.WriteByte(c)
			if c == '/' && i+1 < len(sql) && sql[i+1] == '*' {
				current.WriteByte(sql[i+1])
				i++
				blockCommentDepth++
				continue
			}
			if c == '*' && i+1 < len(sql) && sql[i+1] == '/' {
				current.WriteByte(sql[i+1])
				i++
				blockCommentDepth--
			}
			continue
		}

		// string literal; '' is an escaped quote
		if inSingleQuote {
			current.WriteByte(c)
			if c == '\'' {
				if i+1 < len(sql) && sql[i+1] == '\'' {
					current.WriteByte(sql[i+1])
					i++
				} else {
					inSingleQuote = false
				}
			}
			continue
		}

		// quoted identifier; "" is an escaped quote
		if inDoubleQuote {
			current.WriteByte(c)
			if c == '"' {
				if i+1 < len(sql) && sql[i+1] == '"' {
					current.WriteByte(sql[i+1])
					i++
				} else {
					inDoubleQuote = false
				}
			}
			continue
		}

		// dollar-quoted body ends only at the same tag
		if dollarTag != "" {
			if strings.HasPrefix(sql[i:], dollarTag) {
				current.WriteString(dollarTag)
				i += len(dollarTag) - 1
				dollarTag = ""
				continue
			}
			current.WriteByte(c)
			continue
		}

		// top level: only here does ; end a statement
		switch {
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			current.WriteByte(c)
			current.WriteByte(sql[i+1])
			i++
			inLineComment = true
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			current.WriteByte(c)
			current.WriteByte(sql[i+1])
			i++
			blockCommentDepth = 1
		case c == '\'':
			current.WriteByte(c)
			inSingleQuote = true
		case c == '"':
			current.WriteByte(c)
			inDoubleQuote = true
		case c == '$':
			if tag, ok := parseDollarTag(sql, i); ok {
				current.WriteString(tag)
				i += len(tag) - 1
				dollarTag = tag
				continue
			}
			current.WriteByte(c)
		case c == ';':
			if s := strings.TrimSpace(current.String()); s != "" {
				stmts = append(stmts, s)
			}
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}

	// last statement may omit its semicolon
	if s := strings.TrimSpace(current.String()); s != "" {
		stmts = append(stmts, s)
	}

	return stmts
}

// parseDollarTag returns the $$ or $tag$ opening at i.
func parseDollarTag(sql string, i int) (string, bool) {
	if i >= len(sql) || sql[i] != '$' {
		return "", false
	}
	if i+1 < len(sql) && sql[i+1] == '$' {
		return "$$", true
	}

	// $tag$ where tag uses identifier chars; $1 is a placeholder, not a tag
	j := i + 1
	if j >= len(sql) || !isDollarTagStart(sql[j]) {
		return "", false
	}
	for j < len(sql) && isDollarTagChar(sql[j]) {
		j++
	}
	if j < len(sql) && sql[j] == '$' {
		return sql[i : j+1], true
	}
	return "", false
}

func isDollarTagStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDollarTagChar(c byte) bool {
	return isDollarTagStart(c) || (c >= '0' && c <= '9')
}
