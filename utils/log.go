package utils

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
)

func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case CRITICAL:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a command line level name, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TRACE
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "critical":
		return CRITICAL
	default:
		return INFO
	}
}

// Logger is a levelled printf-style logger on top of zap. Children made
// with With share the parent's level and sinks.
type Logger struct {
	zap      *zap.Logger
	minLevel *atomic.Int32
	closer   func()
}

// LogOptions selects where log lines go.
type LogOptions struct {
	FilePath   string
	AlsoStdout bool
	Encoding   string // "json" or "console"
}

// NewFileLogger appends to filePath and optionally mirrors to stdout.
func NewFileLogger(filePath string, minLevel LogLevel, alsoStdout bool) (*Logger, error) {
	return NewLogger(LogOptions{FilePath: filePath, AlsoStdout: alsoStdout}, minLevel)
}

// NewLogger builds a logger from opts. With no file and no stdout it
// writes to stderr.
func NewLogger(opts LogOptions, minLevel LogLevel) (*Logger, error) {
	var paths []string
	if opts.FilePath != "" {
		paths = append(paths, opts.FilePath)
	}
	if opts.AlsoStdout {
		paths = append(paths, "stdout")
	}
	if len(paths) == 0 {
		paths = append(paths, "stderr")
	}

	sink, closeSink, err := zap.Open(paths...)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	var enc zapcore.Encoder
	switch opts.Encoding {
	case "", "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		closeSink()
		return nil, fmt.Errorf("unknown log encoding %q", opts.Encoding)
	}

	core := zapcore.NewCore(enc, sink, zap.DebugLevel)
	l := &Logger{
		zap:      zap.New(core),
		minLevel: new(atomic.Int32),
		closer:   closeSink,
	}
	l.minLevel.Store(int32(minLevel))
	return l, nil
}

// NewNopLogger discards everything.
func NewNopLogger() *Logger {
	l := &Logger{zap: zap.NewNop(), minLevel: new(atomic.Int32)}
	l.minLevel.Store(int32(CRITICAL + 1))
	return l
}

// NewLoggerFromCore wraps an existing zap core, mainly for tests that
// observe output.
func NewLoggerFromCore(core zapcore.Core, minLevel LogLevel) *Logger {
	l := &Logger{zap: zap.New(core), minLevel: new(atomic.Int32)}
	l.minLevel.Store(int32(minLevel))
	return l
}

// With returns a child logger that tags every line with key=value.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{
		zap:      l.zap.With(zap.Any(key, value)),
		minLevel: l.minLevel,
	}
}

func (l *Logger) Close() error {
	err := l.zap.Sync()
	if l.closer != nil {
		l.closer()
		l.closer = nil
	}
	// Syncing stdout/stderr fails on most terminals.
	if err != nil && strings.Contains(err.Error(), "/dev/std") {
		return nil
	}
	return err
}

func (l *Logger) SetMinLevel(level LogLevel) {
	l.minLevel.Store(int32(level))
}

func (l *Logger) Enabled(level LogLevel) bool {
	return int32(level) >= l.minLevel.Load()
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	switch level {
	case TRACE:
		l.zap.Debug(msg, zap.Bool("trace", true))
	case DEBUG:
		l.zap.Debug(msg)
	case INFO:
		l.zap.Info(msg)
	case WARN:
		l.zap.Warn(msg)
	case ERROR:
		l.zap.Error(msg)
	default:
		l.zap.Error(msg, zap.Bool("critical", true))
	}
}

func (l *Logger) Trace(msg string, args ...any)    { l.log(TRACE, msg, args...) }
func (l *Logger) Debug(msg string, args ...any)    { l.log(DEBUG, msg, args...) }
func (l *Logger) Info(msg string, args ...any)     { l.log(INFO, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)     { l.log(WARN, msg, args...) }
func (l *Logger) Error(msg string, args ...any)    { l.log(ERROR, msg, args...) }
func (l *Logger) Critical(msg string, args ...any) { l.log(CRITICAL, msg, args...) }
