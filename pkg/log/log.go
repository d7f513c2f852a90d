package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/just-nibble/srs-tracker/pkg/config"
)

// Log is the logger handle passed to every component.
type Log struct {
	*logrus.Logger
}

// New builds a logger writing to stdout.
func New(cfg config.LogConfig) *Log {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Log{Logger: l}
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *Log {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Log{Logger: l}
}

// Repo scopes log lines to a repository.
func (l *Log) Repo(name string) *logrus.Entry {
	return l.WithField("repo", name)
}
