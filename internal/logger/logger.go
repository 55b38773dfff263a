package logger

import (
	"github.com/ryanbaill/timetracking-automation/internal/config"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// NewLogger creates a new structured logger instance
func NewLogger(cfg *config.Config) *Logger {
	log := logrus.New()

	// Set log level
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	// Set log format
	if cfg.Logging.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return &Logger{Logger: log}
}

// WithWorkflow adds workflow context to log entries
func (l *Logger) WithWorkflow(name string) *logrus.Entry {
	return l.WithField("workflow", name)
}

// WithEntity adds source entity context to log entries
func (l *Logger) WithEntity(entityID int64) *logrus.Entry {
	return l.WithField("entity_id", entityID)
}

// WithOperation adds retry operation context to log entries
func (l *Logger) WithOperation(op string) *logrus.Entry {
	return l.WithField("operation", op)
}

// WithJob adds job context to log entries
func (l *Logger) WithJob(jobID int64) *logrus.Entry {
	return l.WithField("job_id", jobID)
}
