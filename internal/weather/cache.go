package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a summary is served before it is fetched again.
const DefaultTTL = 10 * time.Minute

var errNoReading = errors.New("no provider returned a reading")

// Cache maps coarse coordinates to a human-readable weather summary. It
// tries providers in order and keeps the first success for ttl.
type Cache struct {
	providers []Provider
	ttl       time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	entries map[string]Snapshot

	group singleflight.Group
}

// NewCache creates a Cache. A non-positive ttl uses DefaultTTL.
func NewCache(providers []Provider, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		providers: providers,
		ttl:       ttl,
		now:       time.Now,
		entries:   make(map[string]Snapshot),
	}
}

// Summarize returns the summary for a location. ok is false when every
// provider failed; failures are logged and never cached.
func (c *Cache) Summarize(ctx context.Context, lat, lon float64) (summary string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", r).Error("weather: summarize failed")
			summary, ok = "", false
		}
	}()

	loc := Location{Lat: lat, Lon: lon}
	key := loc.Key()

	if snap, hit := c.lookup(key); hit {
		return snap.Summary, true
	}

	// Shared by every caller waiting on key; bounded by the HTTP client timeout.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have filled the entry while we waited.
		if snap, hit := c.lookup(key); hit {
			return snap.Summary, nil
		}
		reading, err := c.fetch(fetchCtx, loc)
		if err != nil {
			return "", err
		}
		text := FormatSummary(reading)
		c.save(key, text)
		return text, nil
	})
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("weather: no context available")
		return "", false
	}
	return v.(string), true
}

func (c *Cache) lookup(key string) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap, ok := c.entries[key]
	if !ok || !snap.Fresh(c.now(), c.ttl) {
		return Snapshot{}, false
	}
	return snap, true
}

func (c *Cache) save(key, summary string) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, snap := range c.entries {
		if !snap.Fresh(now, c.ttl) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = Snapshot{Summary: summary, FetchedAt: now}
}

func (c *Cache) fetch(ctx context.Context, loc Location) (Reading, error) {
	if len(c.providers) == 0 {
		return Reading{}, fmt.Errorf("no weather providers configured")
	}

	for _, p := range c.providers {
		r, err := p.Fetch(ctx, loc)
		if err != nil {
			// Log and fall through to the next provider.
			logrus.WithError(err).WithFields(logrus.Fields{
				"provider": p.Name(),
				"key":      loc.Key(),
			}).Warn("weather: provider fetch failed")
			continue
		}
		return r, nil
	}
	return Reading{}, errNoReading
}

// Len returns the number of cached entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// FormatSummary renders a reading as one compact line for the prompt.
func FormatSummary(r Reading) string {
	var parts []string
	if r.PlaceName != "" {
		parts = append(parts, "Location: "+r.PlaceName)
	}
	if r.Description != "" {
		parts = append(parts, "Conditions: "+r.Description)
	}
	parts = append(parts,
		fmt.Sprintf("Temperature: %.1f°C (feels like %.1f°C)", r.TemperatureC, r.FeelsLikeC),
		fmt.Sprintf("Humidity: %.0f%%", r.HumidityPct),
		fmt.Sprintf("Wind: %.1f m/s", r.WindSpeedMS),
	)
	if !r.Timestamp.IsZero() {
		parts = append(parts, "Observed: "+r.Timestamp.UTC().Format("2006-01-02 15:04")+" UTC")
	}
	return strings.Join(parts, ". ") + "."
}
