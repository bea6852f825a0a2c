package catalog

import "time"

// Part is a requestable catalog entry. HighVolume is the explicit cap
// classification; it is resolved once when the part is registered and
// carried as data from then on.
type Part struct {
	ID         int64
	Name       string
	Unit       string
	HighVolume bool
	Active     bool
	CreatedAt  time.Time
}
