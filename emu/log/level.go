package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Level = logrus.Level

const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
)

func init() {
	// Filtering happens per module, logrus must let everything through.
	logrus.SetLevel(logrus.DebugLevel)
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// Disable turns off logging entirely, including warnings and errors.
func Disable() {
	modDebugMask = 0
	disabled = true
	logrus.SetOutput(io.Discard)
}

var disabled bool
