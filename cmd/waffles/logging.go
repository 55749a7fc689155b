package main

import (
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// setupLogging builds the CLI logger. An empty level falls back to
// WAFFLES_LOG_LEVEL and then to info; unparseable levels become info.
func setupLogging(levelStr string, out io.Writer) *logrus.Logger {
	logger := logrus.New()

	if levelStr == "" {
		levelStr = os.Getenv("WAFFLES_LOG_LEVEL")
		if levelStr == "" {
			levelStr = "info"
		}
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(out)
	return logger
}

// loadEnvFile loads variables from envFile if it exists. A missing file is
// not an error; the existing environment is used as-is.
func loadEnvFile(envFile string, logger logrus.FieldLogger) {
	if envFile == "" {
		return
	}
	if _, err := os.Stat(envFile); err != nil {
		logger.Debugf("no %s file found, using existing environment variables", envFile)
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		logger.Warnf("error loading %s: %v", envFile, err)
		return
	}
	logger.Debugf("loaded environment variables from %s", envFile)
}
