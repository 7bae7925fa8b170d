package ledger

import (
	"time"
)

// Clock supplies the single time source used for every expiry decision.
// Injecting it keeps accept/reject decisions consistent across instances
// and lets tests drive the rental window directly.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// SystemClock returns the wall-clock Clock used in production.
func SystemClock() Clock {
	return systemClock{}
}
