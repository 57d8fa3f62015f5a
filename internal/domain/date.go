package domain

import "time"

// DateLayout is the YYYY/MM/DD form the gateway stores dates in.
const DateLayout = "2006/01/02"

// FormatDate renders t in its own location, so callers passing time.Now()
// get the client's local calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
