package logging

import (
	"context"
	"io"
	"maps"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// DefaultLogger is a structured logger backed by zerolog.
// Console output goes to stderr, coloured when stderr is a terminal.
type DefaultLogger struct {
	logger zerolog.Logger
	level  Level
	fields Fields
}

// NewDefaultLogger creates a console logger on stderr with colours when supported
func NewDefaultLogger() *DefaultLogger {
	return NewConsoleLogger(os.Stderr, isTerminal(os.Stderr))
}

// NewDefaultLoggerNoColor creates a console logger on stderr without colours
func NewDefaultLoggerNoColor() *DefaultLogger {
	return NewConsoleLogger(os.Stderr, false)
}

// NewConsoleLogger creates a human-readable logger writing to w
func NewConsoleLogger(w io.Writer, useColors bool) *DefaultLogger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    !useColors,
	}
	return NewZerologLogger(zerolog.New(output).With().Timestamp().Logger())
}

// NewZerologLogger wraps an existing zerolog.Logger, e.g. one owned by the
// host application, so library components log through it.
func NewZerologLogger(logger zerolog.Logger) *DefaultLogger {
	return &DefaultLogger{
		logger: logger,
		level:  InfoLevel,
		fields: make(Fields),
	}
}

// isTerminal reports whether f is attached to a terminal that supports colours
func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (d *DefaultLogger) event(level Level) *zerolog.Event {
	switch level {
	case DebugLevel:
		return d.logger.Debug()
	case InfoLevel:
		return d.logger.Info()
	case WarnLevel:
		return d.logger.Warn()
	case ErrorLevel:
		return d.logger.Error()
	default:
		// zerolog's Fatal exits the process after writing
		return d.logger.Fatal()
	}
}

func (d *DefaultLogger) log(level Level, err error, msg string, fields ...Fields) {
	if level < d.level {
		return
	}

	allFields := make(map[string]any, len(d.fields))
	maps.Copy(allFields, d.fields)
	for _, f := range fields {
		maps.Copy(allFields, f)
	}

	event := d.event(level)
	if err != nil {
		event = event.Err(err)
	}
	if len(allFields) > 0 {
		event = event.Fields(allFields)
	}
	event.Msg(msg)
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.log(DebugLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.log(InfoLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.log(WarnLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.log(ErrorLevel, err, msg, fields...)
}

func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.log(FatalLevel, err, msg, fields...)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	newFields := make(Fields)
	maps.Copy(newFields, d.fields)
	maps.Copy(newFields, fields)

	return &DefaultLogger{
		logger: d.logger,
		level:  d.level,
		fields: newFields,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := FieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

func (d *DefaultLogger) SetLevel(level Level) {
	d.level = level
}

// Zerolog returns the underlying zerolog.Logger
func (d *DefaultLogger) Zerolog() zerolog.Logger {
	return d.logger
}

// NoOpLogger discards everything; tests install it to keep output quiet
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
