package util

import "time"

const timestampFormat = "2006-01-02 15:04:05"

// FormatTimestamp renders unix seconds in the local time zone.
func FormatTimestamp(ts int64) string {
	return time.Unix(ts, 0).Format(timestampFormat)
}

// ParseTimestamp is the inverse of FormatTimestamp.
func ParseTimestamp(value string) (int64, error) {
	t, err := time.ParseInLocation(timestampFormat, value, time.Local)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}
