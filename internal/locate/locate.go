// Package locate resolves a caller's approximate position for the "use
// current location" action of the submission form.
package locate

import (
	"context"
	"errors"
	"fmt"
	"net"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oschwald/geoip2-golang"

	"github.com/mr1hm/go-community-alerts/internal/models"
)

var ErrUnavailable = errors.New("location unavailable")

type Locator interface {
	Locate(ctx context.Context, ip net.IP) (models.Coordinates, error)
}

// Unavailable is used when no location source is configured.
type Unavailable struct{}

func (Unavailable) Locate(context.Context, net.IP) (models.Coordinates, error) {
	return models.Coordinates{}, ErrUnavailable
}

type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
}

// GeoIP looks callers up in a MaxMind City database.
type GeoIP struct {
	reader cityReader
	closer func() error
}

func OpenGeoIP(path string) (*GeoIP, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening geoip database: %w", err)
	}
	return &GeoIP{reader: reader, closer: reader.Close}, nil
}

func (g *GeoIP) Locate(ctx context.Context, ip net.IP) (models.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinates{}, err
	}
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return models.Coordinates{}, ErrUnavailable
	}

	record, err := g.reader.City(ip)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// MaxMind reports 0,0 when the address has no location
	if record.Location.Latitude == 0 && record.Location.Longitude == 0 {
		return models.Coordinates{}, ErrUnavailable
	}

	return models.Coordinates{
		Latitude:  record.Location.Latitude,
		Longitude: record.Location.Longitude,
	}, nil
}

func (g *GeoIP) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}

// Cached remembers successful lookups per IP. Failures are not cached so a
// transient miss can be retried.
type Cached struct {
	inner Locator
	cache *lru.Cache[string, models.Coordinates]
}

func NewCached(inner Locator, size int) (*Cached, error) {
	cache, err := lru.New[string, models.Coordinates](size)
	if err != nil {
		return nil, fmt.Errorf("error creating location cache: %w", err)
	}
	return &Cached{inner: inner, cache: cache}, nil
}

func (c *Cached) Locate(ctx context.Context, ip net.IP) (models.Coordinates, error) {
	key := ip.String()
	if coords, ok := c.cache.Get(key); ok {
		return coords, nil
	}

	coords, err := c.inner.Locate(ctx, ip)
	if err != nil {
		return coords, err
	}
	c.cache.Add(key, coords)
	return coords, nil
}
