// Package geo 封装地图服务（Bing Maps REST）：地址解析 + 驾车距离/时长。
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"carpool/internal/core/cache"
	"carpool/internal/domain"
)

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Route struct {
	From        Point   `json:"from"`
	To          Point   `json:"to"`
	DistanceKm  float64 `json:"distanceKm"`
	DurationMin float64 `json:"durationMin"`
}

type Locator interface {
	Geocode(ctx context.Context, address string) (*Point, error)
	Route(ctx context.Context, from, to string) (*Route, error)
}

type Client struct {
	BaseURL string
	Key     string
	HTTP    *http.Client
	Cache   *cache.Cache
	TTL     time.Duration
	Log     *zap.Logger
}

func NewClient(baseURL, key string, timeout time.Duration, c *cache.Cache, ttl time.Duration, l *zap.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Key:     key,
		HTTP:    &http.Client{Timeout: timeout},
		Cache:   c,
		TTL:     ttl,
		Log:     l,
	}
}

type resourceSets[T any] struct {
	StatusCode   int      `json:"statusCode"`
	ErrorDetails []string `json:"errorDetails"`
	ResourceSets []struct {
		EstimatedTotal int `json:"estimatedTotal"`
		Resources      []T `json:"resources"`
	} `json:"resourceSets"`
}

type location struct {
	Name  string `json:"name"`
	Point struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"point"`
}

type matrix struct {
	Results []struct {
		TravelDistance float64 `json:"travelDistance"`
		TravelDuration float64 `json:"travelDuration"`
	} `json:"results"`
}

func (c *Client) Geocode(ctx context.Context, address string) (*Point, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("%w: empty address", domain.ErrInvalidLocation)
	}
	key := cache.Key("geo", "loc", address)
	return cache.GetOrLoadJSON(c.Cache, ctx, key, c.TTL, func(ctx context.Context) (*Point, error) {
		q := url.Values{"query": {address}, "maxResults": {"1"}, "key": {c.Key}}
		var out resourceSets[location]
		if err := c.get(ctx, "/Locations", q, &out); err != nil {
			return nil, fmt.Errorf("geocode %q: %w", address, err)
		}
		if len(out.ResourceSets) == 0 || len(out.ResourceSets[0].Resources) == 0 {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidLocation, address)
		}
		coords := out.ResourceSets[0].Resources[0].Point.Coordinates
		if len(coords) != 2 {
			return nil, fmt.Errorf("%w: %q has no coordinates", domain.ErrInvalidLocation, address)
		}
		return &Point{Lat: coords[0], Lng: coords[1]}, nil
	})
}

// Route 先解析两端坐标，再查驾车距离；无陆路可达时返回 ErrInvalidTravel
func (c *Client) Route(ctx context.Context, from, to string) (*Route, error) {
	a, err := c.Geocode(ctx, from)
	if err != nil {
		return nil, err
	}
	b, err := c.Geocode(ctx, to)
	if err != nil {
		return nil, err
	}
	key := cache.Key("geo", "route", fmt.Sprintf("%.5f,%.5f", a.Lat, a.Lng), fmt.Sprintf("%.5f,%.5f", b.Lat, b.Lng))
	return cache.GetOrLoadJSON(c.Cache, ctx, key, c.TTL, func(ctx context.Context) (*Route, error) {
		q := url.Values{
			"origins":      {fmt.Sprintf("%f,%f", a.Lat, a.Lng)},
			"destinations": {fmt.Sprintf("%f,%f", b.Lat, b.Lng)},
			"travelMode":   {"driving"},
			"distanceUnit": {"km"},
			"timeUnit":     {"minute"},
			"key":          {c.Key},
		}
		var out resourceSets[matrix]
		if err := c.get(ctx, "/Routes/DistanceMatrix", q, &out); err != nil {
			return nil, fmt.Errorf("route %q -> %q: %w", from, to, err)
		}
		if len(out.ResourceSets) == 0 || len(out.ResourceSets[0].Resources) == 0 ||
			len(out.ResourceSets[0].Resources[0].Results) == 0 {
			return nil, fmt.Errorf("%w: no route %q -> %q", domain.ErrInvalidTravel, from, to)
		}
		r := out.ResourceSets[0].Resources[0].Results[0]
		// -1 表示只能走海路/空路
		if r.TravelDistance < 0 || r.TravelDuration < 0 {
			return nil, fmt.Errorf("%w: %q -> %q is not reachable by car", domain.ErrInvalidTravel, from, to)
		}
		return &Route{From: *a, To: *b, DistanceKm: r.TravelDistance, DurationMin: r.TravelDuration}, nil
	})
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.warn("map api unreachable", path, err)
		return fmt.Errorf("%w: map api unreachable", domain.ErrInvalidLocation)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return domain.ErrInvalidLocation
	case resp.StatusCode >= 300:
		c.warn("map api error", path, fmt.Errorf("status %d", resp.StatusCode))
		return fmt.Errorf("%w: map api status %d", domain.ErrInvalidLocation, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.warn("map api decode", path, err)
		return fmt.Errorf("%w: bad map api response", domain.ErrInvalidLocation)
	}
	return nil
}

func (c *Client) warn(msg, path string, err error) {
	if c.Log != nil {
		c.Log.Warn(msg, zap.String("path", path), zap.Error(err))
	}
}
