package postgresadapter

import "time"

// SystemClock stamps leadership records in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
