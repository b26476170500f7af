package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// ZerologAdapter backs the Logger seam with a zerolog logger. This is the
// implementation the daemon runs with; DefaultLogger stays as the fallback.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps an existing zerolog logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// NewZerologLogger builds a Logger writing to w at the given level. Unknown
// level names fall back to info.
func NewZerologLogger(w io.Writer, level string) Logger {
	if w == nil {
		w = os.Stderr
	}

	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	logger := zerolog.New(w).Level(parsed).With().Timestamp().Logger()
	return &ZerologAdapter{logger: logger}
}

func (z *ZerologAdapter) Debug(msg string, fields ...interface{}) {
	z.emit(z.logger.Debug(), msg, fields)
}

func (z *ZerologAdapter) Info(msg string, fields ...interface{}) {
	z.emit(z.logger.Info(), msg, fields)
}

func (z *ZerologAdapter) Warn(msg string, fields ...interface{}) {
	z.emit(z.logger.Warn(), msg, fields)
}

func (z *ZerologAdapter) Error(msg string, fields ...interface{}) {
	z.emit(z.logger.Error(), msg, fields)
}

// emit copies the key/value field pairs onto the zerolog event.
func (z *ZerologAdapter) emit(event *zerolog.Event, msg string, fields []interface{}) {
	for key, value := range fieldsToMap(fields) {
		event = event.Interface(key, value)
	}
	event.Msg(msg)
}
