package instances

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// TimeStamp is a point in time with millisecond resolution, counted from
// the Unix epoch.
type TimeStamp int64

const timeStampLayout = "2006-01-02 15:04:05"

// now is replaced in tests.
var now = time.Now

// NewTimeStamp truncates t to millisecond resolution.
func NewTimeStamp(t time.Time) TimeStamp {
	return TimeStamp(t.UnixMilli())
}

// Now returns the current time as a TimeStamp.
func Now() TimeStamp {
	return NewTimeStamp(now())
}

// Time converts the timestamp back into a time.Time in the local zone.
func (ts TimeStamp) Time() time.Time {
	return time.UnixMilli(int64(ts))
}

// IsZero reports whether the timestamp is unset.
func (ts TimeStamp) IsZero() bool {
	return ts == 0
}

// String formats the timestamp in local time, e.g. "2024-01-31 13:45:00".
func (ts TimeStamp) String() string {
	return ts.Time().Format(timeStampLayout)
}

// Serialize returns the decimal millisecond count used in the store.
func (ts TimeStamp) Serialize() string {
	return strconv.FormatInt(int64(ts), 10)
}

// ParseTimeStamp parses a decimal millisecond count as written by Serialize.
func ParseTimeStamp(s string) (TimeStamp, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.Errorf("failed to parse time stamp %q: not a millisecond count", s)
	}
	return TimeStamp(ms), nil
}
