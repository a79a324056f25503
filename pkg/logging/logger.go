package logging

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/config"
)

// Logger represents a logger instance
type Logger = *logrus.Logger

// Fields represents structured logging fields
type Fields = logrus.Fields

// Level represents a log level
type Level = logrus.Level

// Log levels
const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
)

// NewLogger creates a new configured logger instance
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(config.GetLogLevel())
	return logger
}

// NewLoggerWithServer creates a logger tagged with this node's server id, so
// interleaved logs from a federation running on one host stay attributable.
func NewLoggerWithServer(serverID string) *logrus.Logger {
	logger := NewLogger()
	logger = logger.WithField("server_id", serverID).Logger
	return logger
}

// NewNop returns a logger that discards everything; for tests.
func NewNop() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
