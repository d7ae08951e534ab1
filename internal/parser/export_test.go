package parser

import "time"

// SetClock replaces the clock used to open and close circuits.
func (f *FallbackCompleter) SetClock(now func() time.Time) {
	f.now = now
}
