package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus to provide structured logging with the fields every
// service log line should carry.
type Logger struct {
	entry *logrus.Entry
}

// Init configures the global logrus settings. It should be called once at
// process startup, before any Logger is created.
func Init(level logrus.Level) {
	// JSON output so log collectors can index the fields.
	logrus.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(level)
}

// New creates a Logger pre-seeded with the service name.
func New(serviceName string) *Logger {
	return &Logger{
		entry: logrus.WithFields(logrus.Fields{
			"service_name": serviceName,
		}),
	}
}

// WithUser returns a Logger that tags every line with the owning user.
func (l *Logger) WithUser(userID string) *Logger {
	return &Logger{entry: l.entry.WithField("user_id", userID)}
}

// WithField returns a Logger with one extra structured field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithPayload attaches arbitrary business data to the log entry.
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithField("payload", payload)}
}

// WithErr attaches an error to the log entry.
func (l *Logger) WithErr(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

// Info logs at info level.
func (l *Logger) Info(message string) {
	l.entry.Info(message)
}

// Warn logs at warning level.
func (l *Logger) Warn(message string) {
	l.entry.Warn(message)
}

// Error logs at error level.
func (l *Logger) Error(message string) {
	l.entry.Error(message)
}

// Debug logs at debug level.
func (l *Logger) Debug(message string) {
	l.entry.Debug(message)
}

// Fatal logs at fatal level and terminates the process.
func (l *Logger) Fatal(message string) {
	l.entry.Fatal(message)
}
