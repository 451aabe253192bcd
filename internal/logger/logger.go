package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

type ctxKey struct{}

var (
	mu    sync.RWMutex
	out   io.Writer = os.Stderr
	level           = LevelInfo
	base            = build(out, level)
)

func build(w io.Writer, l Level) zerolog.Logger {
	return zerolog.New(w).Level(l.zerolog()).With().Timestamp().Logger()
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// ParseLevel разбирает значение LOG_LEVEL
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("неизвестный уровень логирования %q", s)
}

func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
	base = build(out, level)
}

func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	base = build(out, level)
}

// WithRequestID кладет идентификатор запроса в контекст; он попадает в каждую запись
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func Debug(ctx context.Context, msg string, kv ...any) {
	write(ctx, zerolog.DebugLevel, nil, msg, kv)
}

func Info(ctx context.Context, msg string, kv ...any) {
	write(ctx, zerolog.InfoLevel, nil, msg, kv)
}

func Warn(ctx context.Context, msg string, kv ...any) {
	write(ctx, zerolog.WarnLevel, nil, msg, kv)
}

// Error логирует err (может быть nil) с сообщением и полями
func Error(ctx context.Context, err error, msg string, kv ...any) {
	write(ctx, zerolog.ErrorLevel, err, msg, kv)
}

func write(ctx context.Context, lvl zerolog.Level, err error, msg string, kv []any) {
	mu.RLock()
	l := base
	mu.RUnlock()

	e := l.WithLevel(lvl)
	if e == nil {
		return
	}
	if err != nil {
		e = e.Err(err)
	}
	if id := RequestID(ctx); id != "" {
		e = e.Str("request_id", id)
	}

	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if i+1 >= len(kv) {
			e = e.Str("!BADKEY", key)
			break
		}
		switch v := kv[i+1].(type) {
		case time.Duration:
			e = e.Dur(key, v)
		case error:
			e = e.AnErr(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}
