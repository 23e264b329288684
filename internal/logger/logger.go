// Package logger implements leveled, structured logging with optional file
// output and size-based rotation. A package-level logger is configured once
// via Init; before that, logging calls are no-ops.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to a Level. Unknown names default to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }

// Duration renders the value in a human-readable form.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.Round(time.Millisecond).String()}
}

// Err attaches an error under the "error" key.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Config controls logger construction.
type Config struct {
	// FilePath is the log file location. Empty disables file output.
	FilePath string
	// MaxSizeMB is the file size at which the log is rotated.
	MaxSizeMB int
	// MaxBackups is how many rotated files are kept.
	MaxBackups int
	// Level is the minimum severity written.
	Level Level
	// Console mirrors entries to stdout.
	Console bool
}

// DefaultConfig returns the standard configuration: info level, 10 MB
// rotation, 3 backups, no console echo.
func DefaultConfig() *Config {
	return &Config{
		FilePath:   "pdf-translator.log",
		MaxSizeMB:  10,
		MaxBackups: 3,
		Level:      LevelInfo,
	}
}

// Logger writes timestamped entries to a file and optionally to stdout.
// All methods are safe for concurrent use and safe on a nil receiver,
// which discards the entry.
type Logger struct {
	mu       sync.Mutex
	cfg      Config
	level    Level
	file     *os.File
	fileSize int64
}

// New creates a Logger from cfg. A nil cfg uses DefaultConfig.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups < 0 {
		cfg.MaxBackups = 0
	}

	l := &Logger{cfg: *cfg, level: cfg.Level}
	if cfg.FilePath != "" {
		if dir := filepath.Dir(cfg.FilePath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create log directory: %w", err)
			}
		}
		if err := l.open(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Logger) open() error {
	f, err := os.OpenFile(l.cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	l.file = f
	l.fileSize = info.Size()
	return nil
}

// SetLevel changes the minimum severity written.
func (l *Logger) SetLevel(level Level) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) Debug(msg string, fields ...Field) { l.write(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.write(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.write(LevelWarn, msg, fields) }

// Error logs msg at error level together with err.
func (l *Logger) Error(msg string, err error, fields ...Field) {
	if err != nil {
		fields = append([]Field{Err(err)}, fields...)
	}
	l.write(LevelError, msg, fields)
}

func (l *Logger) write(level Level, msg string, fields []Field) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	entry := formatEntry(level, msg, fields)

	if l.file != nil {
		if l.fileSize+int64(len(entry)) > int64(l.cfg.MaxSizeMB)*1024*1024 {
			l.rotate()
		}
		if _, err := l.file.WriteString(entry); err == nil {
			l.fileSize += int64(len(entry))
		}
	}
	if l.cfg.Console {
		os.Stdout.WriteString(entry)
	}
}

func formatEntry(level Level, msg string, fields []Field) string {
	var sb strings.Builder
	sb.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	sb.WriteString(" [")
	sb.WriteString(level.String())
	sb.WriteString("] ")
	sb.WriteString(msg)
	for _, f := range fields {
		sb.WriteByte(' ')
		sb.WriteString(f.Key)
		sb.WriteByte('=')
		switch v := f.Value.(type) {
		case string:
			if strings.ContainsAny(v, " \t\"") {
				sb.WriteString(fmt.Sprintf("%q", v))
			} else {
				sb.WriteString(v)
			}
		default:
			fmt.Fprintf(&sb, "%v", v)
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}

// rotate shifts log backups up by one and reopens a fresh file.
// Called with the mutex held.
func (l *Logger) rotate() {
	l.file.Close()
	l.file = nil

	for i := l.cfg.MaxBackups - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", l.cfg.FilePath, i), fmt.Sprintf("%s.%d", l.cfg.FilePath, i+1))
	}
	if l.cfg.MaxBackups > 0 {
		os.Rename(l.cfg.FilePath, l.cfg.FilePath+".1")
	} else {
		os.Remove(l.cfg.FilePath)
	}

	if err := l.open(); err != nil {
		l.file = nil
	}
}

var (
	globalMu sync.RWMutex
	global   *Logger
)

// Init installs the package-level logger. Any previous logger is closed.
func Init(cfg *Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	globalMu.Lock()
	old := global
	global = l
	globalMu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// Close shuts down the package-level logger.
func Close() error {
	globalMu.Lock()
	old := global
	global = nil
	globalMu.Unlock()
	return old.Close()
}

func get() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// Debug logs through the package-level logger.
func Debug(msg string, fields ...Field) { get().Debug(msg, fields...) }

// Info logs through the package-level logger.
func Info(msg string, fields ...Field) { get().Info(msg, fields...) }

// Warn logs through the package-level logger.
func Warn(msg string, fields ...Field) { get().Warn(msg, fields...) }

// Error logs through the package-level logger.
func Error(msg string, err error, fields ...Field) { get().Error(msg, err, fields...) }
