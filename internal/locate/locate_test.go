package locate

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/oschwald/geoip2-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-community-alerts/internal/models"
)

type fakeReader struct {
	city *geoip2.City
	err  error
}

func (f fakeReader) City(net.IP) (*geoip2.City, error) {
	return f.city, f.err
}

func cityAt(lat, lng float64) *geoip2.City {
	c := &geoip2.City{}
	c.Location.Latitude = lat
	c.Location.Longitude = lng
	return c
}

var publicIP = net.ParseIP("8.8.8.8")

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{}.Locate(context.Background(), publicIP)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGeoIP_Locate(t *testing.T) {
	g := &GeoIP{reader: fakeReader{city: cityAt(40.7128, -74.0060)}}

	coords, err := g.Locate(context.Background(), publicIP)
	require.NoError(t, err)
	assert.Equal(t, models.Coordinates{Latitude: 40.7128, Longitude: -74.0060}, coords)
	assert.Equal(t, "Near 40.7128, -74.0060", coords.Label())
	assert.NoError(t, g.Close())
}

func TestGeoIP_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		reader fakeReader
		ip     net.IP
	}{
		{"loopback", fakeReader{city: cityAt(1, 1)}, net.ParseIP("127.0.0.1")},
		{"private", fakeReader{city: cityAt(1, 1)}, net.ParseIP("10.0.0.7")},
		{"nil ip", fakeReader{city: cityAt(1, 1)}, nil},
		{"reader error", fakeReader{err: errors.New("corrupt")}, publicIP},
		{"no location", fakeReader{city: cityAt(0, 0)}, publicIP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &GeoIP{reader: tt.reader}
			_, err := g.Locate(context.Background(), tt.ip)
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestGeoIP_CancelledContext(t *testing.T) {
	g := &GeoIP{reader: fakeReader{city: cityAt(1, 1)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Locate(ctx, publicIP)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenGeoIP_MissingFile(t *testing.T) {
	_, err := OpenGeoIP(filepath.Join(t.TempDir(), "missing.mmdb"))
	assert.Error(t, err)
}

type countingLocator struct {
	calls  atomic.Int64
	coords models.Coordinates
	err    error
}

func (c *countingLocator) Locate(context.Context, net.IP) (models.Coordinates, error) {
	c.calls.Add(1)
	return c.coords, c.err
}

func TestCached_HitsAfterSuccess(t *testing.T) {
	inner := &countingLocator{coords: models.Coordinates{Latitude: 1, Longitude: 2}}
	c, err := NewCached(inner, 8)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		coords, err := c.Locate(context.Background(), publicIP)
		require.NoError(t, err)
		assert.Equal(t, 1.0, coords.Latitude)
	}
	assert.Equal(t, int64(1), inner.calls.Load())
}

func TestCached_DoesNotCacheFailures(t *testing.T) {
	inner := &countingLocator{err: ErrUnavailable}
	c, err := NewCached(inner, 8)
	require.NoError(t, err)

	c.Locate(context.Background(), publicIP)
	c.Locate(context.Background(), publicIP)
	assert.Equal(t, int64(2), inner.calls.Load())
}

func TestNewCached_InvalidSize(t *testing.T) {
	_, err := NewCached(Unavailable{}, 0)
	assert.Error(t, err)
}
