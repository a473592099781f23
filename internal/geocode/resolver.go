package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-odds/internal/weather"
)

var errNoMatch = errors.New("geocoder returned no coordinates")

// Resolver implements weather.PlaceResolver with the Google geocoding API,
// caching successful lookups in an LRU.
type Resolver struct {
	lookup func(geocoder.Address) (geocoder.Location, error)
	cache  *lru.Cache[string, weather.Coordinates]
}

// NewResolver configures the geocoder with apiKey.
func NewResolver(apiKey string, maxEntries int) *Resolver {
	geocoder.ApiKey = apiKey
	return newResolver(geocoder.Geocoding, maxEntries)
}

func newResolver(lookup func(geocoder.Address) (geocoder.Location, error), maxEntries int) *Resolver {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	// New only fails for a non-positive size.
	cache, _ := lru.New[string, weather.Coordinates](maxEntries)
	return &Resolver{lookup: lookup, cache: cache}
}

// Resolve returns coordinates for place. The underlying client is not
// context-aware, so cancellation only stops the wait.
func (r *Resolver) Resolve(ctx context.Context, place weather.Place) (weather.Coordinates, error) {
	key := strings.ToLower(strings.TrimSpace(place.City)) + "|" + strings.ToLower(strings.TrimSpace(place.Country))
	if c, ok := r.cache.Get(key); ok {
		return c, nil
	}

	type outcome struct {
		loc geocoder.Location
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		loc, err := r.lookup(geocoder.Address{City: place.City, Country: place.Country})
		done <- outcome{loc, err}
	}()

	var res outcome
	select {
	case <-ctx.Done():
		return weather.Coordinates{}, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return weather.Coordinates{}, fmt.Errorf("geocode %s: %w", place.City, res.err)
	}
	if res.loc.Latitude == 0 && res.loc.Longitude == 0 {
		return weather.Coordinates{}, fmt.Errorf("geocode %s: %w", place.City, errNoMatch)
	}

	c := weather.Coordinates{Lat: res.loc.Latitude, Lon: res.loc.Longitude}
	r.cache.Add(key, c)
	return c, nil
}

var _ weather.PlaceResolver = (*Resolver)(nil)
