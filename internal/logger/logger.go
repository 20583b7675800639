package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelTags = map[Level]string{
	LevelDebug: "[DEBUG] ",
	LevelInfo:  "[INFO] ",
	LevelWarn:  "[WARNING] ",
	LevelError: "[ERROR] ",
}

var (
	mu       sync.RWMutex
	out      *log.Logger
	logFile  *os.File
	minLevel = LevelInfo

	DebugEnabled = false
)

// InitLogging opens logPath for appending. Nothing is written anywhere until
// this has been called with debugMode set; the buffering engine sits under
// other programs and must stay silent by default.
func InitLogging(debugMode bool, logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	DebugEnabled = debugMode
	if !debugMode || logPath == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	if logFile != nil {
		logFile.Close()
	}

	logFile = f
	out = log.New(f, "", log.Ldate|log.Ltime|log.Lshortfile)
	minLevel = LevelDebug

	return nil
}

// Close closes the log file if open.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	out = nil
}

func logf(level Level, format string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()

	if !DebugEnabled || out == nil || level < minLevel {
		return
	}

	// calldepth 3 reports the caller of Debugf/Infof/...
	_ = out.Output(3, levelTags[level]+fmt.Sprintf(format, v...))
}

func Debugf(format string, v ...any) {
	logf(LevelDebug, format, v...)
}

func Infof(format string, v ...any) {
	logf(LevelInfo, format, v...)
}

func Warnf(format string, v ...any) {
	logf(LevelWarn, format, v...)
}

// Errorf logs an error message to the file if debug mode is enabled.
func Errorf(format string, v ...any) {
	logf(LevelError, format, v...)
}
