package web

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/thoas/go-funk"
)

// logrusLeveledLogger routes retryablehttp's leveled logs into logrus.
type logrusLeveledLogger struct {
	*logrus.Logger
}

func kvToLogrusFields(keysAndValues []interface{}) logrus.Fields {
	if len(keysAndValues)%2 == 1 {
		keysAndValues = append(keysAndValues, "(MISSING)")
	}
	// it is a kv pair but in flatten array form so we re-pair them for every 2 elements
	return funk.Map(funk.Chunk(keysAndValues, 2), func(tpl []interface{}) (k string, v interface{}) {
		k, v = fmt.Sprint(tpl[0]), tpl[1]
		return
	}).(map[string]interface{})
}

func (l *logrusLeveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.WithFields(kvToLogrusFields(keysAndValues)).Error(msg)
}

func (l *logrusLeveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.WithFields(kvToLogrusFields(keysAndValues)).Info(msg)
}

func (l *logrusLeveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.WithFields(kvToLogrusFields(keysAndValues)).Debug(msg)
}

func (l *logrusLeveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.WithFields(kvToLogrusFields(keysAndValues)).Warn(msg)
}
