package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Limetric/waffles"
)

// runHooks reads each SQL file and executes its statements one at a time.
func runHooks(ctx context.Context, exec waffles.Executor, cfg *SchemaConfig, files []string, phase string, logger logrus.FieldLogger) error {
	if len(files) == 0 {
		return nil
	}
	logger.Infof("running %s hooks (%d files)", phase, len(files))

	for _, f := range files {
		data, err := os.ReadFile(cfg.resolvePath(f))
		if err != nil {
			return fmt.Errorf("hook %s: read %s: %w", phase, f, err)
		}

		stmts := waffles.SplitStatements(string(data))
		logger.WithField("file", f).Debugf("%d statements", len(stmts))
		for i, stmt := range stmts {
			if err := exec.Execute(ctx, stmt); err != nil {
				return fmt.Errorf("hook %s: %s: statement %d: %w", phase, f, i+1, err)
			}
		}
	}
	return nil
}
