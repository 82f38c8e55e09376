package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts a logrus entry to Logger. Key-value args become
// logrus.Fields.
type LogrusLogger struct {
	entry *logrus.Entry
}

func NewLogrusLogger(entry *logrus.Entry) *LogrusLogger {
	return &LogrusLogger{entry: entry}
}

// NewLogrus builds a logrus logger writing to w at the named level. format is
// "text" or "json".
func NewLogrus(w io.Writer, level, format string) (*LogrusLogger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrusLevel(lvl))

	switch format {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return NewLogrusLogger(logrus.NewEntry(l)), nil
}

func logrusLevel(lvl slog.Level) logrus.Level {
	switch {
	case lvl <= slog.LevelDebug:
		return logrus.DebugLevel
	case lvl <= slog.LevelInfo:
		return logrus.InfoLevel
	case lvl <= slog.LevelWarn:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}

func (l *LogrusLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.with(ctx, args).Debug(msg)
}

func (l *LogrusLogger) Info(ctx context.Context, msg string, args ...any) {
	l.with(ctx, args).Info(msg)
}

func (l *LogrusLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.with(ctx, args).Warn(msg)
}

func (l *LogrusLogger) Error(ctx context.Context, msg string, args ...any) {
	l.with(ctx, args).Error(msg)
}

func (l *LogrusLogger) With(args ...any) Logger {
	return &LogrusLogger{entry: l.entry.WithFields(fieldsOf(args))}
}

func (l *LogrusLogger) with(ctx context.Context, args []any) *logrus.Entry {
	return l.entry.WithContext(ctx).WithFields(fieldsOf(args))
}

// fieldsOf pairs up args the way slog does: a trailing value without a key
// is logged under !BADKEY.
func fieldsOf(args []any) logrus.Fields {
	fields := make(logrus.Fields, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fields["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields[key] = args[i+1]
	}
	return fields
}
