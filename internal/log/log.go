// Package log provides structured, colored logging for the ledger daemon.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jrick/logrotate/rotator"
	"github.com/rs/zerolog"
)

// Default log file rotation settings.
const (
	DefaultMaxSizeKB = 10 * 1024
	DefaultMaxRolls  = 8
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers for different parts of the system.
var (
	Ledger    zerolog.Logger
	RPC       zerolog.Logger
	Consensus zerolog.Logger
	Mempool   zerolog.Logger
	Wallet    zerolog.Logger
	Storage   zerolog.Logger
)

var (
	fileMu  sync.Mutex
	fileOut io.WriteCloser
)

func init() {
	// Default to colored console output
	Logger = NewConsoleLogger(os.Stdout, "info")
	initComponentLoggers()
}

// Init initializes the logger with the given configuration.
// When file is non-empty, logs are written to both the console (colored or
// JSON depending on jsonOutput) and a size-rotated file (always JSON).
func Init(level string, jsonOutput bool, file string) error {
	return InitRotating(level, jsonOutput, file, DefaultMaxSizeKB, DefaultMaxRolls)
}

// InitRotating is Init with explicit rotation settings: the file is rolled
// once it reaches maxSizeKB and at most maxRolls old files are kept.
func InitRotating(level string, jsonOutput bool, file string, maxSizeKB int64, maxRolls int) error {
	var consoleWriter io.Writer
	if jsonOutput {
		consoleWriter = os.Stdout
	} else {
		consoleWriter = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
			NoColor:    false,
		}
	}

	if file == "" {
		Logger = newLogger(consoleWriter, level)
		initComponentLoggers()
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	r, err := rotator.New(file, maxSizeKB, false, maxRolls)
	if err != nil {
		return fmt.Errorf("create file rotator: %w", err)
	}

	fileMu.Lock()
	if fileOut != nil {
		fileOut.Close()
	}
	fileOut = r
	fileMu.Unlock()

	// File writer: always JSON (no ANSI codes, structured for parsing).
	Logger = newLogger(zerolog.MultiLevelWriter(consoleWriter, r), level)
	initComponentLoggers()
	return nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	fileMu.Lock()
	defer fileMu.Unlock()
	if fileOut == nil {
		return nil
	}
	err := fileOut.Close()
	fileOut = nil
	return err
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    false,
	}, level)
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(w, level)
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// parseLevel converts a string level to zerolog.Level.
func parseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ValidLevel reports whether level is one of the accepted level names.
func ValidLevel(level string) bool {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

// initComponentLoggers initializes loggers for each component.
func initComponentLoggers() {
	Ledger = Logger.With().Str("component", "ledger").Logger()
	RPC = Logger.With().Str("component", "rpc").Logger()
	Consensus = Logger.With().Str("component", "consensus").Logger()
	Mempool = Logger.With().Str("component", "mempool").Logger()
	Wallet = Logger.With().Str("component", "wallet").Logger()
	Storage = Logger.With().Str("component", "storage").Logger()
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Benchmark helper for timing operations.
func Benchmark(name string) func() {
	start := time.Now()
	return func() {
		Logger.Debug().
			Str("operation", name).
			Dur("duration", time.Since(start)).
			Msg("benchmark")
	}
}
