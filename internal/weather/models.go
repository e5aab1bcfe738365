package weather

import (
	"fmt"
	"time"

	"github.com/i474232898/farm-advisor/internal/common"
)

// keyPrecision is the number of decimals kept in cache keys (about 1 km).
const keyPrecision = 2

// Location is a point in decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key returns the coarse grid cell used to index cached summaries. Nearby
// points share a key.
func (l Location) Key() string {
	return fmt.Sprintf("%.*f,%.*f",
		keyPrecision, common.RoundTo(l.Lat, keyPrecision),
		keyPrecision, common.RoundTo(l.Lon, keyPrecision))
}

// Snapshot is a cached summary. Entries are replaced, never mutated.
type Snapshot struct {
	Summary   string    `json:"summary"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Fresh reports whether the snapshot is still within ttl at now.
func (s Snapshot) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.FetchedAt) < ttl
}
