package logging

import (
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Retryable adapts the global zerolog logger to retryablehttp's leveled
// logger. Request chatter is logged at debug level.
func Retryable() retryablehttp.LeveledLogger {
	return retryableLogger{}
}

type retryableLogger struct{}

func (retryableLogger) Error(msg string, kv ...interface{}) {
	emit(log.Warn(), msg, kv)
}

func (retryableLogger) Warn(msg string, kv ...interface{}) {
	emit(log.Warn(), msg, kv)
}

func (retryableLogger) Info(msg string, kv ...interface{}) {
	emit(log.Debug(), msg, kv)
}

func (retryableLogger) Debug(msg string, kv ...interface{}) {
	emit(log.Debug(), msg, kv)
}

func emit(e *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}
