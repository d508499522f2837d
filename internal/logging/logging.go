// Package logging configures the process logger of metrix-mapping.
//
// Process logs (what the tool is doing) go through zap. Mapping logs (what
// the mapping changed on the network) are collected by core/logs and written
// as run artifacts; they never go through this package.
package logging

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config contains logging configuration
type Config struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `json:"level" mapstructure:"level"`

	// Format is console or json
	Format string `json:"format" mapstructure:"format"`

	// Output is stdout, stderr or a file path
	Output string `json:"output" mapstructure:"output"`

	// Development adds stack traces to errors
	Development bool `json:"development" mapstructure:"development"`
}

// DefaultConfig logs warnings to stderr so that progress output stays readable
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Format: "console",
		Output: "stderr",
	}
}

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Initialize replaces the process logger
func Initialize(cfg Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

// New builds a logger from cfg without installing it
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", cfg.Level)
	}
	sink, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), sink, level)
	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(core, opts...), nil
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

func openSink(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "", "stderr":
		return zapcore.Lock(os.Stderr), nil
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return zapcore.AddSync(f), nil
}

// L returns the process logger, a no-op logger before Initialize
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// NewRunID returns a fresh identifier for one mapping run
func NewRunID() string {
	return uuid.NewString()
}

// ForRun returns the process logger tagged with a run identifier
func ForRun(runID string) *zap.Logger {
	return L().With(zap.String("run_id", runID))
}

// Sync flushes the process logger
func Sync() {
	_ = L().Sync()
}
