// Package logging configures structured JSON logging for the custody
// program and its admin tooling: a slog.JSONHandler with timestamp/
// severity/message field renaming, a standard-library log bridge, and an
// optional rotating file sink (gopkg.in/natefinch/lumberjack.v2) in place
// of stdout-only output.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig configures lumberjack-backed log rotation. A zero value
// disables rotation and leaves Setup writing to stdout.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup configures the standard library logger to emit structured JSON and
// returns the underlying slog.Logger for use by the custody program.
// Attributes common to every line are service and env; callers attach
// per-call attributes (e.g. WithInstruction) via Logger.With.
func Setup(service, env string, file *FileConfig) *slog.Logger {
	var out io.Writer = os.Stdout
	if file != nil && file.Path != "" {
		out = &lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    orDefault(file.MaxSizeMB, 100),
			MaxBackups: orDefault(file.MaxBackups, 3),
			MaxAge:     orDefault(file.MaxAgeDays, 28),
		}
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource: false,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			case slog.LevelKey:
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			case slog.MessageKey:
				return slog.Attr{Key: "message", Value: attr.Value}
			default:
				return attr
			}
		},
	})

	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(service))}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}

	withArgs := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		withArgs = append(withArgs, attr)
	}

	base := slog.New(handler).With(withArgs...)
	slog.SetDefault(base)

	stdBridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

// WithInstruction returns a child logger scoped to one instruction
// invocation, the unit every custody handler logs at (§4.5: failures carry
// no sensitive data, only the instruction name and error kind).
func WithInstruction(logger *slog.Logger, instruction string) *slog.Logger {
	return logger.With(slog.String("instruction", instruction))
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
