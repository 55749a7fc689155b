package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/sirupsen/logrus"

	"github.com/Limetric/waffles"
)

// renderSchema writes the CREATE TABLE statements for every declared table,
// logging schema warnings along the way.
func renderSchema(w io.Writer, cfg *SchemaConfig, color bool, logger logrus.FieldLogger) error {
	var b strings.Builder
	for i, t := range cfg.Tables {
		cols, err := t.buildColumns()
		if err != nil {
			return err
		}
		for _, warning := range waffles.SchemaWarnings(t.Name, cols) {
			logger.Warn(warning)
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(waffles.RenderCreateTable(t.Name, cols, cfg.ExistsOK))
	}
	b.WriteString("\n")

	if color {
		if err := quick.Highlight(w, b.String(), "postgresql", "terminal256", "monokai"); err != nil {
			return fmt.Errorf("highlight: %w", err)
		}
		return nil
	}
	_, err := io.WriteString(w, b.String())
	return err
}
