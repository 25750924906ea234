package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configura el logger estructurado.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	Format      string // "json" (default) o "console"
	Output      io.Writer
}

// Logger envuelve zerolog y permite colgar campos del context.
type Logger struct {
	base *zerolog.Logger
}

type ctxKey struct{}

// New crea un logger. Sin Output escribe a stdout.
func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	if strings.EqualFold(opts.Format, "console") {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	base := zerolog.New(output).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger().
		Level(opts.Level)

	return &Logger{base: &base}
}

// Nop devuelve un logger que descarta todo (útil en tests).
func Nop() *Logger {
	base := zerolog.Nop()
	return &Logger{base: &base}
}

// ParseLevel traduce LOG_LEVEL; valores inválidos caen a info.
func ParseLevel(value string) zerolog.Level {
	levelString := strings.ToLower(strings.TrimSpace(value))
	if levelString == "" {
		return zerolog.InfoLevel
	}
	if level, err := zerolog.ParseLevel(levelString); err == nil {
		return level
	}
	return zerolog.InfoLevel
}

func (logger *Logger) fromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return logger.base
	}
	if entry, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return entry
	}
	return logger.base
}

// WithField devuelve un context cuyo logger incluye key=value.
func (logger *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	entry := logger.fromContext(ctx).With().Interface(key, value).Logger()
	return context.WithValue(ctx, ctxKey{}, &entry)
}

// WithRequestID es un atajo para el campo request_id.
func (logger *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return logger.WithField(ctx, "request_id", requestID)
}

// Event expone el evento crudo para agregar campos tipados.
func (logger *Logger) Event(ctx context.Context, level zerolog.Level) *zerolog.Event {
	return logger.fromContext(ctx).WithLevel(level)
}

func (logger *Logger) Debug(ctx context.Context, msg string) {
	logger.fromContext(ctx).Debug().Msg(msg)
}

func (logger *Logger) Info(ctx context.Context, msg string) {
	logger.fromContext(ctx).Info().Msg(msg)
}

func (logger *Logger) Warn(ctx context.Context, msg string) {
	logger.fromContext(ctx).Warn().Msg(msg)
}

func (logger *Logger) Error(ctx context.Context, msg string, err error) {
	event := logger.fromContext(ctx).Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)
}
