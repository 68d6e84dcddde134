// Package log provides debug logging for the assistant client.
// Logging is disabled unless ASSISTANT_DEBUG=1 is set, in which case
// entries are written to ~/.assistant/debug.log with rotation.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger      *zap.Logger
	enabled     bool
	initialized bool
	mu          sync.Mutex
)

// Init initializes the logger based on the ASSISTANT_DEBUG env var.
func Init() error {
	mu.Lock()
	defer mu.Unlock()

	if initialized {
		return nil
	}
	initialized = true

	if os.Getenv("ASSISTANT_DEBUG") != "1" {
		logger = zap.NewNop()
		return nil
	}

	enabled = true

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	logDir := filepath.Join(homeDir, ".assistant")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	logPath := filepath.Join(logDir, "debug.log")

	// Use lumberjack for log rotation
	writeSyncer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     7, // Days
		Compress:   true,
	})

	// Console encoder for human-readable output
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "",
		NameKey:        "",
		CallerKey:      "",
		MessageKey:     "M",
		StacktraceKey:  "",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		writeSyncer,
		zapcore.DebugLevel,
	)

	logger = zap.New(core, zap.AddCaller())
	logger.Info("Debug logging started")

	return nil
}

// IsEnabled returns whether debug logging is enabled
func IsEnabled() bool {
	return enabled
}

// Logger returns the underlying zap logger
func Logger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Sync flushes any buffered log entries
func Sync() error {
	if logger != nil {
		return logger.Sync()
	}
	return nil
}

// LogStreamDone logs stream completion stats
func LogStreamDone(sessionID, reason string, duration time.Duration, events int) {
	if !enabled {
		return
	}
	logger.Info(fmt.Sprintf("[stream] %s %s duration=%s events=%d",
		sessionID, reason, duration.Round(time.Millisecond), events))
}

// LogToolCall logs a tool call lifecycle transition
func LogToolCall(tool, callID, state string) {
	if !enabled {
		return
	}
	logger.Info(fmt.Sprintf("[tool] %s id=%s %s", tool, callID, state))
}

// LogApproval logs an approval decision being sent
func LogApproval(sessionID, callID, decision string) {
	if !enabled {
		return
	}
	logger.Info(fmt.Sprintf("[approval] session=%s call=%s %s", sessionID, callID, decision))
}
