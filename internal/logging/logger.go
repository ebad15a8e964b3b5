// Package logging provides config-driven categorized logging for easyinfo.
// Each category gets a named zap logger. Logging is controlled by debug_mode in the
// logging config - when false, every logger is a no-op.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"easyinfo/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryCallsite Category = "callsite" // Frame lookup and call-site name resolution
	CategoryDescribe Category = "describe" // Value and shape descriptions
	CategoryTiming   Category = "timing"   // Elapsed-time tracker
	CategoryPersist  Category = "persist"  // Save/load and the keyed store
	CategoryConfig   Category = "config"   // Config loading
	CategoryCLI      Category = "cli"      // easyinfo command
)

// Logger wraps a sugared zap logger with its category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	base      = zap.NewNop()
	cfg       config.LoggingConfig
	configMu  sync.RWMutex
)

// Initialize builds the base zap logger from cfg.
// With debug_mode off the base logger stays a no-op.
func Initialize(c config.LoggingConfig) error {
	if !c.DebugMode {
		InitializeWith(zap.NewNop(), c)
		return nil
	}

	level, err := parseLevel(c.Level)
	if err != nil {
		return err
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Sampling = nil
	zc.Encoding = "console"
	if strings.EqualFold(c.Format, "json") {
		zc.Encoding = "json"
	}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{"stderr"}
	if c.File != "" {
		zc.OutputPaths = []string{c.File}
	}
	zc.ErrorOutputPaths = []string{"stderr"}

	l, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	InitializeWith(l, c)
	Get(CategoryConfig).Debug("logging initialized (level=%s, format=%s)", level, zc.Encoding)
	return nil
}

// InitializeWith installs an already built zap logger. The CLI and tests use it.
func InitializeWith(l *zap.Logger, c config.LoggingConfig) {
	if l == nil {
		l = zap.NewNop()
	}

	configMu.Lock()
	_ = base.Sync()
	base = l
	cfg = c
	configMu.Unlock()

	loggersMu.Lock()
	loggers = make(map[Category]*Logger)
	loggersMu.Unlock()
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// IsDebugMode returns whether logging is enabled at all
func IsDebugMode() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return cfg.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return cfg.IsCategoryEnabled(string(category))
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled or category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category, sugar: zap.NewNop().Sugar()}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}

	configMu.RLock()
	named := base.Named(string(category))
	configMu.RUnlock()

	l := &Logger{category: category, sugar: named.Sugar()}
	loggers[category] = l
	return l
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// With returns a logger carrying structured key/value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// CloseAll flushes the base logger.
func CloseAll() {
	configMu.RLock()
	defer configMu.RUnlock()
	_ = base.Sync()
}

// =============================================================================
// CATEGORY HELPERS
// =============================================================================

func CallsiteDebug(format string, args ...interface{}) {
	Get(CategoryCallsite).Debug(format, args...)
}

func DescribeDebug(format string, args ...interface{}) {
	Get(CategoryDescribe).Debug(format, args...)
}

func TimingDebug(format string, args ...interface{}) {
	Get(CategoryTiming).Debug(format, args...)
}

func Persist(format string, args ...interface{}) {
	Get(CategoryPersist).Info(format, args...)
}

func PersistDebug(format string, args ...interface{}) {
	Get(CategoryPersist).Debug(format, args...)
}

func PersistWarn(format string, args ...interface{}) {
	Get(CategoryPersist).Warn(format, args...)
}

func CLI(format string, args ...interface{}) {
	Get(CategoryCLI).Info(format, args...)
}

func CLIDebug(format string, args ...interface{}) {
	Get(CategoryCLI).Debug(format, args...)
}

// =============================================================================
// TIMING HELPERS - For performance logging
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// StopWithThreshold logs the duration, as a warning when it exceeds threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
