package log

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
)

// initLogger initializes the shared logrus instance with a text formatter
// writing to stderr. Level defaults to info until SetLevel is called.
func initLogger() {
	loggerOnce.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	})
}

// SetLevel adjusts the minimum level from a config string ("debug", "info",
// "error", ...). Unknown values fall back to info.
func SetLevel(level string) {
	initLogger()
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		logger.Warnf("invalid log level %q, defaulting to info", level)
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
}

func Debug(msg string, kv ...any) {
	initLogger()
	logger.WithFields(fields(kv...)).Debug(msg)
}

func Info(msg string, kv ...any) {
	initLogger()
	logger.WithFields(fields(kv...)).Info(msg)
}

// Error logs msg with err attached as the "error" field.
func Error(msg string, err error, kv ...any) {
	initLogger()
	logger.WithError(err).WithFields(fields(kv...)).Error(msg)
}

// fields converts alternating key-value arguments into logrus fields.
// Non-string keys are skipped; a trailing odd argument is ignored.
func fields(kv ...any) logrus.Fields {
	out := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		out[key] = kv[i+1]
	}
	return out
}
