package gonogo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"flight-check/internal/models"
	"flight-check/shared/monitoring"
	"flight-check/shared/upstream"
)

// Geocoder resolves a free-form query to a place. A nil place with a nil
// error means no match.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*models.Place, error)
}

// NominatimClient implements Geocoder using the OpenStreetMap Nominatim search API
type NominatimClient struct {
	baseURL string
	client  *upstream.Client
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func NewNominatimClient(baseURL string, client *upstream.Client) *NominatimClient {
	return &NominatimClient{baseURL: baseURL, client: client}
}

func (n *NominatimClient) Geocode(ctx context.Context, query string) (*models.Place, error) {
	params := url.Values{
		"format": {"jsonv2"},
		"limit":  {"1"},
		"q":      {query},
	}

	var results []nominatimResult
	if err := n.client.GetJSON(ctx, n.baseURL+"?"+params.Encode(), &results); err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	r := results[0]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q in geocode response: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q in geocode response: %w", r.Lon, err)
	}

	return &models.Place{
		DisplayName: r.DisplayName,
		Latitude:    lat,
		Longitude:   lon,
	}, nil
}

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache. Places do
// not move, so entries never expire; only matches are cached so a miss can
// be retried later.
type CachedGeocoder struct {
	inner   Geocoder
	cache   *lruCache
	metrics *monitoring.Metrics
}

func NewCachedGeocoder(inner Geocoder, maxEntries int, metrics *monitoring.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, query string) (*models.Place, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if place, ok := c.cache.get(key); ok {
		c.count("hit")
		p := place
		return &p, nil
	}
	c.count("miss")

	place, err := c.inner.Geocode(ctx, query)
	if err != nil || place == nil {
		return place, err
	}
	c.cache.put(key, *place)
	return place, nil
}

func (c *CachedGeocoder) count(result string) {
	if c.metrics != nil {
		c.metrics.GeocodeCache.WithLabelValues(result).Inc()
	}
}

// lruCache is a small thread-safe LRU of places.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value models.Place
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (models.Place, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return models.Place{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value models.Place) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
