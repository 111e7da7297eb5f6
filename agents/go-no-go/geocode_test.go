package gonogo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flight-check/internal/models"
	"flight-check/shared/monitoring"
)

func TestNominatimGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "jsonv2", q.Get("format"))
		assert.Equal(t, "1", q.Get("limit"))
		assert.Equal(t, "Boulder, CO", q.Get("q"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "flight-check/test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"place_id":1,"lat":"40.0149856","lon":"-105.2705456","display_name":"Boulder, Boulder County, Colorado, United States"}]`))
	}))
	defer srv.Close()

	geocoder := NewNominatimClient(srv.URL, newTestClient("nominatim"))
	place, err := geocoder.Geocode(context.Background(), "Boulder, CO")
	require.NoError(t, err)
	require.NotNil(t, place)
	assert.Equal(t, "Boulder, Boulder County, Colorado, United States", place.DisplayName)
	assert.InDelta(t, 40.0149856, place.Latitude, 1e-9)
	assert.InDelta(t, -105.2705456, place.Longitude, 1e-9)
}

func TestNominatimGeocodeNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	place, err := NewNominatimClient(srv.URL, newTestClient("nominatim")).Geocode(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Nil(t, place)
}

func TestNominatimGeocodeBadCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"north","lon":"1","display_name":"x"}]`))
	}))
	defer srv.Close()

	_, err := NewNominatimClient(srv.URL, newTestClient("nominatim")).Geocode(context.Background(), "x")
	assert.ErrorContains(t, err, "invalid latitude")
}

type countingGeocoder struct {
	calls  int
	places map[string]*models.Place
	err    error
}

func (c *countingGeocoder) Geocode(_ context.Context, query string) (*models.Place, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.places[query], nil
}

func TestCachedGeocoder(t *testing.T) {
	inner := &countingGeocoder{places: map[string]*models.Place{
		"Boulder": {DisplayName: "Boulder", Latitude: 40, Longitude: -105},
	}}
	metrics := monitoring.NewMetrics()
	cached := NewCachedGeocoder(inner, 4, metrics)

	for _, q := range []string{"Boulder", "  boulder ", "BOULDER"} {
		place, err := cached.Geocode(context.Background(), q)
		require.NoError(t, err)
		require.NotNil(t, place)
		assert.Equal(t, "Boulder", place.DisplayName)
	}
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")))

	// misses and errors are not cached
	place, err := cached.Geocode(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Nil(t, place)
	_, _ = cached.Geocode(context.Background(), "nowhere")
	assert.Equal(t, 3, inner.calls)

	inner.err = errors.New("down")
	_, err = cached.Geocode(context.Background(), "elsewhere")
	assert.Error(t, err)
	assert.Equal(t, 1, cached.cache.len())
}

func TestCachedGeocoderReturnsCopies(t *testing.T) {
	inner := &countingGeocoder{places: map[string]*models.Place{"a": {DisplayName: "A"}}}
	cached := NewCachedGeocoder(inner, 2, nil)

	first, err := cached.Geocode(context.Background(), "a")
	require.NoError(t, err)
	first.DisplayName = "mutated"

	second, err := cached.Geocode(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "A", second.DisplayName)
}

func TestLRUCacheEviction(t *testing.T) {
	c := newLRUCache(2)
	for i := 0; i < 3; i++ {
		c.put(fmt.Sprintf("k%d", i), models.Place{DisplayName: fmt.Sprintf("p%d", i)})
		if i == 1 {
			// touch k0 so k1 becomes least recently used
			_, ok := c.get("k0")
			require.True(t, ok)
		}
	}

	assert.Equal(t, 2, c.len())
	_, ok := c.get("k1")
	assert.False(t, ok)
	p, ok := c.get("k0")
	assert.True(t, ok)
	assert.Equal(t, "p0", p.DisplayName)
	_, ok = c.get("k2")
	assert.True(t, ok)

	c.put("k2", models.Place{DisplayName: "updated"})
	p, _ = c.get("k2")
	assert.Equal(t, "updated", p.DisplayName)
	assert.Equal(t, 2, c.len())
}
