package logger

import (
	"fmt"
	"log/slog"
	"os"
)

// Logger is a thin wrapper around slog that carries a scope and an
// optional function/file qualifier, so call sites read as
// logger.New("scope").Function("DoThing").Info(...).
type Logger struct {
	scope    string
	function string
	file     string
	logger   *slog.Logger
}

func New(scope string) Logger {
	return Logger{
		scope:  scope,
		logger: slog.Default(),
	}
}

func (l Logger) Function(name string) Logger {
	l.function = name
	return l
}

func (l Logger) File(name string) Logger {
	l.file = name
	return l
}

func (l Logger) attrs(args []any) []any {
	out := make([]any, 0, len(args)+6)
	out = append(out, "scope", l.scope)
	if l.function != "" {
		out = append(out, "function", l.function)
	}
	if l.file != "" {
		out = append(out, "file", l.file)
	}
	return append(out, args...)
}

func (l Logger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, l.attrs(args)...)
}

func (l Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.attrs(args)...)
}

func (l Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, l.attrs(args)...)
}

// Error logs at error level and returns an error carrying the message,
// so callers can `return log.Error("bad input", "id", id)`.
func (l Logger) Error(msg string, args ...any) error {
	l.logger.Error(msg, l.attrs(args)...)
	return fmt.Errorf("%s: %s", l.scope, msg)
}

// Err logs the underlying error at error level and returns it wrapped
// with the message.
func (l Logger) Err(msg string, err error, args ...any) error {
	l.logger.Error(msg, l.attrs(append(args, "error", err))...)
	return fmt.Errorf("%s: %w", msg, err)
}

func (l Logger) ErrMsg(msg string, args ...any) error {
	l.logger.Error(msg, l.attrs(args)...)
	return fmt.Errorf("%s", msg)
}

// Er logs an error without returning one, for paths where the caller
// handles recovery itself.
func (l Logger) Er(msg string, err error, args ...any) {
	l.logger.Error(msg, l.attrs(append(args, "error", err))...)
}

func (l Logger) ErMsg(msg string, args ...any) {
	l.logger.Error(msg, l.attrs(args)...)
}

// Init installs the process-wide slog handler. Text in development,
// JSON otherwise.
func Init(env string) {
	var handler slog.Handler
	if env == "development" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}
