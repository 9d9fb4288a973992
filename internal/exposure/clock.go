package exposure

import "time"

// Clock abstracts time to keep scan ids and seed data deterministic in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
