package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "15:04:05.000"

// Logger is a central logger that records every entry in a store and
// forwards it to a zap core writing to an optional io.Writer.
type Logger struct {
	mu     sync.Mutex
	store  *LogStore
	writer io.Writer
	level  zap.AtomicLevel
	zl     *zap.Logger
}

// NewLogger creates and initializes a new Logger instance.
func NewLogger() *Logger {
	l := &Logger{
		store:  newLogStore(),
		writer: io.Discard, // Default to discarding output
		level:  zap.NewAtomicLevelAt(zapcore.InfoLevel),
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeLevel:      encodeLevel,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	// The core writes through our Write method, so SetWriter can swap the sink at any time.
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(sink{l}), l.level)
	l.zl = zap.New(core)
	return l
}

func encodeLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(fmt.Sprintf("%-5s", fromZapLevel(level).String()))
}

// Write implements the io.Writer interface. zap writes through it, and it
// dispatches to the configured writer.
func (l *Logger) Write(p []byte) (n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer == nil {
		return len(p), nil
	}
	return l.writer.Write(p)
}

// SetWriter sets the output destination for the logger.
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// GetWriter returns the current output writer.
func (l *Logger) GetWriter() io.Writer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer
}

// Store returns the internal LogStore.
func (l *Logger) Store() *LogStore {
	return l.store
}

// Zap exposes the underlying zap logger for callers that want structured fields.
func (l *Logger) Zap() *zap.Logger {
	return l.zl
}

// sink hides Logger.Sync from zap, which would otherwise call it back.
type sink struct{ l *Logger }

func (s sink) Write(p []byte) (int, error) { return s.l.Write(p) }

// Sync flushes buffered output and the writer, if it can be synced.
func (l *Logger) Sync() error {
	if err := l.zl.Sync(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.writer.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}

// SetDebug enables or disables debug-level logging.
func (l *Logger) SetDebug(enable bool) {
	if enable {
		l.level.SetLevel(zapcore.DebugLevel)
	} else {
		l.level.SetLevel(zapcore.InfoLevel)
	}
}

func (l *Logger) IsDebugEnabled() bool {
	return l.level.Enabled(zapcore.DebugLevel)
}

// log is the internal handler for variadic logging.
func (l *Logger) log(level LogLevel, v ...interface{}) {
	if !l.level.Enabled(level.zapLevel()) {
		return
	}
	l.emit(level, strings.TrimSpace(fmt.Sprintln(v...)))
}

// logf is the internal handler for formatted logging.
func (l *Logger) logf(level LogLevel, format string, v ...interface{}) {
	if !l.level.Enabled(level.zapLevel()) {
		return
	}
	l.emit(level, fmt.Sprintf(format, v...))
}

func (l *Logger) emit(level LogLevel, message string) {
	l.store.Add(LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	})

	if ce := l.zl.Check(level.zapLevel(), message); ce != nil {
		ce.Write()
	}
}

// Info and the other level methods record an entry and write it through
// the zap core. Debug entries are dropped unless debug logging is enabled.
func (l *Logger) Info(v ...interface{}) {
	l.log(LevelInfo, v...)
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.logf(LevelInfo, format, v...)
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.logf(LevelWarn, format, v...)
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.logf(LevelError, format, v...)
}

func (l *Logger) Debug(v ...interface{}) {
	l.log(LevelDebug, v...)
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.logf(LevelDebug, format, v...)
}

var defaultLogger = NewLogger()

// SetDefault replaces the default logger instance.
func SetDefault(logger *Logger) {
	if logger != nil {
		defaultLogger = logger
	}
}

// Default returns the logger used by the package-level functions.
func Default() *Logger {
	return defaultLogger
}

func IsDebugEnabled() bool {
	return defaultLogger.IsDebugEnabled()
}

// The functions below log through the default logger.

func Info(v ...interface{}) { defaultLogger.Info(v...) }

func Infof(format string, v ...interface{}) { defaultLogger.Infof(format, v...) }

func Warnf(format string, v ...interface{}) { defaultLogger.Warnf(format, v...) }

func Errorf(format string, v ...interface{}) { defaultLogger.Errorf(format, v...) }

func Debugf(format string, v ...interface{}) { defaultLogger.Debugf(format, v...) }
