package geocode

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rxcompare/price-service/internal/geo"
	"github.com/rxcompare/price-service/internal/types"
)

// DefaultCacheSize bounds the number of postal codes kept in memory.
const DefaultCacheSize = 10000

var lookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rxprice_geocode_lookups_total",
	Help: "Postal code resolutions by source",
}, []string{"source"})

// Source tells where a coordinate came from.
type Source string

const (
	SourceProvider Source = "provider"
	SourceFallback Source = "fallback"
)

// Coordinates is a resolved postal code.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Source    Source  `json:"source"`
	Cached    bool    `json:"cached"`
}

// Approximate reports whether the coordinates are a regional estimate.
func (c Coordinates) Approximate() bool {
	return c.Source == SourceFallback
}

// Result is a mapping provider answer.
type Result struct {
	Latitude  float64
	Longitude float64
	Matched   bool
}

// Provider represents an external mapping backend.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, postalCode string) (*Result, error)
}

// Geocoder resolves postal codes to coordinates. It consults an in-memory
// cache, then the provider, then a deterministic regional approximation, so
// it always answers for a well-formed postal code.
type Geocoder struct {
	provider Provider
	cache    *lru.Cache[string, Coordinates]
	group    singleflight.Group
	timeout  time.Duration
	logger   zerolog.Logger
}

// Option configures a Geocoder.
type Option func(*Geocoder)

// WithProvider sets the mapping provider. Without one every lookup uses the
// regional approximation.
func WithProvider(p Provider) Option {
	return func(g *Geocoder) {
		g.provider = p
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(g *Geocoder) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(g *Geocoder) {
		if l != nil {
			g.logger = l.With().Str("component", "geocoder").Logger()
		}
	}
}

// New creates a Geocoder with an LRU cache of the given size.
func New(cacheSize int, opts ...Option) (*Geocoder, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, Coordinates](cacheSize)
	if err != nil {
		return nil, err
	}
	g := &Geocoder{
		cache:   cache,
		timeout: 5 * time.Second,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Resolve converts a postal code to coordinates. The only error is a
// *types.ValidationError for a code that is not exactly five digits.
func (g *Geocoder) Resolve(ctx context.Context, postalCode string) (Coordinates, error) {
	if err := ValidatePostalCode(postalCode); err != nil {
		return Coordinates{}, err
	}

	if c, ok := g.cache.Get(postalCode); ok {
		lookups.WithLabelValues("cache").Inc()
		c.Cached = true
		return c, nil
	}

	ch := g.group.DoChan(postalCode, func() (any, error) {
		if c, ok := g.cache.Get(postalCode); ok {
			return c, nil
		}
		// The lookup outlives any single caller so that one abandoned
		// request cannot degrade the others waiting on the same code.
		c := g.lookup(context.WithoutCancel(ctx), postalCode)
		g.cache.Add(postalCode, c)
		lookups.WithLabelValues(string(c.Source)).Inc()
		return c, nil
	})

	select {
	case <-ctx.Done():
		// Not cached: the flight still in progress will store the real answer.
		return Approximate(postalCode), nil
	case res := <-ch:
		return res.Val.(Coordinates), nil
	}
}

// Len returns the number of cached postal codes.
func (g *Geocoder) Len() int {
	return g.cache.Len()
}

func (g *Geocoder) lookup(ctx context.Context, postalCode string) Coordinates {
	if g.provider == nil {
		return Approximate(postalCode)
	}

	pctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.provider.Geocode(pctx, postalCode)
	switch {
	case err != nil:
		g.logger.Warn().Err(err).
			Str("provider", g.provider.Name()).
			Str("postal_code", postalCode).
			Msg("geocode provider failed, using regional approximation")
	case res == nil || !res.Matched:
		g.logger.Debug().
			Str("provider", g.provider.Name()).
			Str("postal_code", postalCode).
			Msg("geocode provider had no match, using regional approximation")
	case !geo.ValidCoordinates(res.Latitude, res.Longitude):
		g.logger.Warn().
			Float64("lat", res.Latitude).
			Float64("lng", res.Longitude).
			Msg("geocode provider returned out-of-range coordinates")
	default:
		return Coordinates{Latitude: res.Latitude, Longitude: res.Longitude, Source: SourceProvider}
	}
	return Approximate(postalCode)
}

// ValidatePostalCode accepts exactly five ASCII digits.
func ValidatePostalCode(postalCode string) error {
	if len(postalCode) != 5 {
		return &types.ValidationError{Field: "postalCode", Reason: "must be exactly 5 digits"}
	}
	for i := 0; i < len(postalCode); i++ {
		if postalCode[i] < '0' || postalCode[i] > '9' {
			return &types.ValidationError{Field: "postalCode", Reason: "must be exactly 5 digits"}
		}
	}
	return nil
}
