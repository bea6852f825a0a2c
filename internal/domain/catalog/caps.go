package catalog

import "strings"

// Per-request quantity caps. High-volume consumables (loop sheets) get a
// raised cap; everything else gets the default.
const (
	DefaultCap    = 10
	HighVolumeCap = 20
)

// MaxQuantity returns the per-request cap in effect for the part.
func MaxQuantity(p Part) int {
	if p.HighVolume {
		return HighVolumeCap
	}
	return DefaultCap
}

// ClassifyName reports whether a free-text part name belongs to the
// high-volume consumable category. Used only when registering a part
// (and by the legacy backfill); after that the flag on the row wins.
func ClassifyName(name string) bool {
	return strings.Contains(normalize(name), "loopsheet")
}

// normalize lowercases and strips everything that is not a letter or digit.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
