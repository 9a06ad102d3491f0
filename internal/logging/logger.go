package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.Logger
}

// NewLogger builds a console logger at the given level ("debug", "info",
// "warn", "error"). An empty level means "warn" so that CLI output stays
// readable.
func NewLogger(level string) (*Logger, error) {
	if level == "" {
		level = "warn"
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.DisableStacktrace = true

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{logger}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zap.NewNop()}
}

// ForPath returns a child logger tagged with the directory or file being
// worked on.
func (l *Logger) ForPath(path string) *zap.Logger {
	return l.With(zap.String("path", path))
}
