package util

import (
	"errors"

	log "github.com/sirupsen/logrus"
)

var (
	defaultLogFormatter = &log.TextFormatter{}

	// indexed by the -v flag
	verbosityLevels = []log.Level{log.ErrorLevel, log.InfoLevel, log.DebugLevel, log.TraceLevel}
)

// infoFormatter prints Info() events as the bare message and everything
// else through the standard text formatter.
type infoFormatter struct {
}

func (f *infoFormatter) Format(entry *log.Entry) ([]byte, error) {
	if entry.Level == log.InfoLevel {
		return append([]byte(entry.Message), '\n'), nil
	}
	return defaultLogFormatter.Format(entry)
}

// SetupLogging configures the standard logger from the -q and -v flags.
// Quiet shows errors only. Any explicit non-zero verbosity switches to
// structured lines for every level.
func SetupLogging(quiet bool, verbose int, verboseSet bool) error {
	if quiet && verboseSet && verbose > 0 {
		return errors.New("can't set quiet and verbose flag at the same time")
	}
	if verbose < 0 || verbose >= len(verbosityLevels) {
		return errors.New("verbose flag can only be set to 0, 1, 2 or 3")
	}

	level := verbosityLevels[verbose]
	if quiet {
		level = log.ErrorLevel
	}
	var formatter log.Formatter = new(infoFormatter)
	if verboseSet && level != log.ErrorLevel {
		formatter = defaultLogFormatter
	}
	log.SetFormatter(formatter)
	log.SetLevel(level)
	return nil
}
