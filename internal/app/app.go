// Package app assembles the price service from its configuration. The server
// and the CLI share it so both resolve prices the same way.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rxcompare/price-service/config"
	"github.com/rxcompare/price-service/internal/auth"
	"github.com/rxcompare/price-service/internal/engine"
	"github.com/rxcompare/price-service/internal/geocode"
	httpclient "github.com/rxcompare/price-service/internal/http"
	"github.com/rxcompare/price-service/internal/upstream"
)

// Services holds the wired components.
type Services struct {
	Engine   *engine.Engine
	Tokens   *auth.Provider
	Geocoder *geocode.Geocoder
	Resolver *upstream.Resolver
}

// New wires the services described by cfg.
func New(cfg *config.Config, logger *zerolog.Logger) (*Services, error) {
	client := httpclient.NewClient(httpclient.Config{
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		UserAgent:         cfg.Upstream.UserAgent,
		Timeout:           max(cfg.Upstream.AttemptTimeout, cfg.Auth.Timeout),
	})

	resolver, err := upstream.NewResolver(upstream.ConfigFrom(cfg.Upstream))
	if err != nil {
		return nil, fmt.Errorf("upstream resolver: %w", err)
	}

	tokens := auth.NewProvider(auth.Config{
		TokenURL:     cfg.Auth.TokenURL,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		Scope:        cfg.Auth.Scope,
		Timeout:      cfg.Auth.Timeout,
	}, client, logger)

	geoOpts := []geocode.Option{
		geocode.WithTimeout(cfg.Geocoding.Timeout),
		geocode.WithLogger(logger),
	}
	if cfg.Geocoding.GoogleAPIKey != "" {
		geoOpts = append(geoOpts, geocode.WithProvider(geocode.NewGoogleProvider(
			cfg.Geocoding.GoogleAPIKey,
			geocode.WithRateLimit(cfg.Geocoding.RequestsPerSecond),
		)))
	} else {
		logger.Warn().Msg("GOOGLE_MAPS_API_KEY not set, postal codes will be approximated")
	}
	geocoder, err := geocode.New(cfg.Geocoding.CacheSize, geoOpts...)
	if err != nil {
		return nil, fmt.Errorf("geocoder: %w", err)
	}

	eng, err := engine.New(engine.Options{
		Tokens:         tokens,
		Resolver:       resolver,
		Client:         client,
		Geocoder:       geocoder,
		Logger:         logger,
		AttemptTimeout: cfg.Upstream.AttemptTimeout,
	})
	if err != nil {
		return nil, err
	}

	return &Services{
		Engine:   eng,
		Tokens:   tokens,
		Geocoder: geocoder,
		Resolver: resolver,
	}, nil
}
