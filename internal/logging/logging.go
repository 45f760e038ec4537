package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds the application logger. Unknown levels fall back to info and
// any format other than "text" produces JSON.
func New(level, format string) *logrus.Logger {
	return NewWithOutput(level, format, os.Stdout)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(level, format string, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(strings.TrimSpace(format), "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l
}

// Component returns a logger tagged with a subsystem name.
func Component(l logrus.FieldLogger, name string) logrus.FieldLogger {
	return l.WithField("component", name)
}

// Discard returns a logger that writes nowhere. Used in tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
