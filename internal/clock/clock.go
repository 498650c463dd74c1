// Package clock abstracts time retrieval so ledger event timestamps are
// deterministic in tests.
package clock

import "time"

// Clock supplies the current time. The ledger reads it once per event.
type Clock interface {
	Now() time.Time
}

// System returns the actual current time.
type System struct{}

func (System) Now() time.Time { return time.Now() }
