package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T, cfg *Config) (*Logger, string) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "logger_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	logPath := filepath.Join(tmpDir, "test.log")
	if cfg == nil {
		cfg = &Config{MaxSizeMB: 10, MaxBackups: 3, Level: LevelDebug}
	}
	cfg.FilePath = logPath

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return l, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	return string(content)
}

func TestNewCreatesLogFile(t *testing.T) {
	l, logPath := newTestLogger(t, nil)
	defer l.Close()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}
}

func TestNewWithNilConfig(t *testing.T) {
	l, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) returned error: %v", err)
	}
	defer l.Close()
	defer os.Remove(DefaultConfig().FilePath)

	if l.level != LevelInfo {
		t.Errorf("default level = %v, want %v", l.level, LevelInfo)
	}
}

func TestLogLevelsAndFields(t *testing.T) {
	l, logPath := newTestLogger(t, nil)

	l.Debug("debug message", String("key", "value"))
	l.Info("info message", Int("count", 42))
	l.Warn("warn message", Bool("flag", true))
	l.Error("error message", errors.New("test error"), Float64("rate", 3.14))
	l.Close()

	logContent := readLog(t, logPath)

	for _, want := range []string{
		"[DEBUG]", "[INFO]", "[WARN]", "[ERROR]",
		"debug message", "info message", "warn message", "error message",
		"key=value", "count=42", "flag=true", "rate=3.14",
		"error=\"test error\"",
	} {
		if !strings.Contains(logContent, want) {
			t.Errorf("Log content missing %q", want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	l, logPath := newTestLogger(t, &Config{MaxSizeMB: 10, MaxBackups: 3, Level: LevelWarn})

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message", nil)
	l.Close()

	logContent := readLog(t, logPath)

	if strings.Contains(logContent, "[DEBUG]") {
		t.Error("Debug message should be filtered out")
	}
	if strings.Contains(logContent, "[INFO]") {
		t.Error("Info message should be filtered out")
	}
	if !strings.Contains(logContent, "[WARN]") {
		t.Error("Warn message should be present")
	}
	if !strings.Contains(logContent, "[ERROR]") {
		t.Error("Error message should be present")
	}
}

func TestSetLevel(t *testing.T) {
	l, logPath := newTestLogger(t, nil)

	l.Debug("debug before")
	l.SetLevel(LevelError)
	l.Debug("debug after")
	l.Info("info after")
	l.Error("error after", nil)
	l.Close()

	logContent := readLog(t, logPath)

	if !strings.Contains(logContent, "debug before") {
		t.Error("Debug before level change should be present")
	}
	if strings.Contains(logContent, "debug after") {
		t.Error("Debug after level change should be filtered")
	}
	if strings.Contains(logContent, "info after") {
		t.Error("Info after level change should be filtered")
	}
	if !strings.Contains(logContent, "error after") {
		t.Error("Error after level change should be present")
	}
}

func TestRotation(t *testing.T) {
	l, logPath := newTestLogger(t, &Config{MaxSizeMB: 1, MaxBackups: 3, Level: LevelDebug})

	l.Info("before rotation")

	// Pretend the file is already past the threshold so the next write rotates.
	l.mu.Lock()
	l.fileSize = 2 * 1024 * 1024
	l.mu.Unlock()

	l.Info("after rotation")
	l.Close()

	backupPath := logPath + ".1"
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		t.Fatal("Backup log file was not created after rotation")
	}

	backup := readLog(t, backupPath)
	if !strings.Contains(backup, "before rotation") {
		t.Error("Rotated file should contain the earlier entry")
	}
	current := readLog(t, logPath)
	if !strings.Contains(current, "after rotation") {
		t.Error("Current file should contain the entry written after rotation")
	}
	if strings.Contains(current, "before rotation") {
		t.Error("Current file should not contain the pre-rotation entry")
	}
}

func TestFieldFormatting(t *testing.T) {
	l, logPath := newTestLogger(t, nil)

	l.Info("test fields",
		String("str", "hello"),
		String("quoted", "two words"),
		Int64("big", 9223372036854775807),
		Duration("took", 1500*time.Millisecond),
		Any("m", map[string]int{"a": 1}),
	)
	l.Close()

	logContent := readLog(t, logPath)

	for _, want := range []string{
		"str=hello",
		`quoted="two words"`,
		"big=9223372036854775807",
		"took=1.5s",
		"m=map[a:1]",
	} {
		if !strings.Contains(logContent, want) {
			t.Errorf("Log content missing %q", want)
		}
	}
}

func TestErrField(t *testing.T) {
	if f := Err(nil); f.Key != "error" || f.Value != "<nil>" {
		t.Errorf("Err(nil) = %+v, want key error and value <nil>", f)
	}
	if f := Err(errors.New("boom")); f.Value != "boom" {
		t.Errorf("Err value = %v, want boom", f.Value)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Debug("test")
	l.Info("test")
	l.Warn("test")
	l.Error("test", errors.New("x"))
	l.SetLevel(LevelError)
	if err := l.Close(); err != nil {
		t.Errorf("nil Close() = %v, want nil", err)
	}
}

func TestGlobalLoggerLifecycle(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "logger_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	logPath := filepath.Join(tmpDir, "global.log")

	// Uninitialized global calls are no-ops.
	Debug("dropped")
	Info("dropped")

	if err := Init(&Config{FilePath: logPath, MaxSizeMB: 10, MaxBackups: 3, Level: LevelDebug}); err != nil {
		t.Fatalf("Failed to initialize global logger: %v", err)
	}

	Debug("global debug")
	Info("global info")
	Warn("global warn")
	Error("global error", errors.New("global test error"))
	Close()

	logContent := readLog(t, logPath)

	for _, want := range []string{"global debug", "global info", "global warn", "global error"} {
		if !strings.Contains(logContent, want) {
			t.Errorf("Global log missing %q", want)
		}
	}
	if strings.Contains(logContent, "dropped") {
		t.Error("Entries logged before Init should be discarded")
	}
}

func TestLogDirectoryCreation(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "logger_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	logPath := filepath.Join(tmpDir, "nested", "dir", "test.log")

	l, err := New(&Config{FilePath: logPath, MaxSizeMB: 10, MaxBackups: 3, Level: LevelDebug})
	if err != nil {
		t.Fatalf("Failed to create logger with nested directory: %v", err)
	}
	defer l.Close()

	if _, err := os.Stat(filepath.Dir(logPath)); os.IsNotExist(err) {
		t.Error("Nested log directory was not created")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{" Error ", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %s, want %s", tt.level, got, tt.expected)
		}
	}
}
