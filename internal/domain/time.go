package domain

import "time"

// UTCDatetime renders an epoch-millisecond timestamp as a human-readable UTC
// string, e.g. "2021-03-01 04:00:00+00:00". The derived datetime column of a
// dataset is always this exact conversion of the row's open_time.
func UTCDatetime(epochMs int64) string {
	return time.UnixMilli(epochMs).UTC().Format("2006-01-02 15:04:05") + "+00:00"
}
