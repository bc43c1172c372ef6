package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rxcompare/price-service/internal/auth"
	"github.com/rxcompare/price-service/internal/geocode"
	httpclient "github.com/rxcompare/price-service/internal/http"
	"github.com/rxcompare/price-service/internal/normalize"
	"github.com/rxcompare/price-service/internal/synthetic"
	"github.com/rxcompare/price-service/internal/types"
	"github.com/rxcompare/price-service/internal/upstream"
)

// DefaultAttemptTimeout bounds each upstream call.
const DefaultAttemptTimeout = 5 * time.Second

// Fetcher performs one upstream HTTP call.
type Fetcher interface {
	Do(ctx context.Context, method, url string, body any, bearer string) ([]byte, error)
}

// Geocoder turns postal codes into coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, postalCode string) (geocode.Coordinates, error)
}

// OfferGenerator produces placeholder offers when the upstream cannot answer.
type OfferGenerator interface {
	Generate(query types.DrugQuery, loc types.Location) []types.PharmacyOffer
}

// Options wires the engine's collaborators.
type Options struct {
	Tokens    auth.TokenSource
	Resolver  *upstream.Resolver
	Client    Fetcher
	Geocoder  Geocoder
	Generator OfferGenerator
	Logger    *zerolog.Logger
	// AttemptTimeout bounds each upstream call, lookups included.
	AttemptTimeout time.Duration
}

// Engine resolves drug prices against the upstream, walking an ordered list
// of candidate requests and falling back to synthetic offers when none of
// them yields a usable answer. It is safe for concurrent use.
type Engine struct {
	tokens         auth.TokenSource
	resolver       *upstream.Resolver
	client         Fetcher
	geocoder       Geocoder
	generator      OfferGenerator
	metrics        *MetricsRecorder
	tracer         trace.Tracer
	logger         zerolog.Logger
	attemptTimeout time.Duration

	// observe, when set, sees every finished resolution. Tests use it to
	// inspect state transitions.
	observe func(*resolution)
}

// New validates the options and returns an engine.
func New(opts Options) (*Engine, error) {
	if opts.Tokens == nil {
		return nil, errors.New("engine: token source is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("engine: resolver is required")
	}
	if opts.Client == nil {
		return nil, errors.New("engine: upstream client is required")
	}
	if opts.Geocoder == nil {
		g, err := geocode.New(geocode.DefaultCacheSize, geocode.WithLogger(opts.Logger))
		if err != nil {
			return nil, fmt.Errorf("engine: default geocoder: %w", err)
		}
		opts.Geocoder = g
	}
	if opts.Generator == nil {
		opts.Generator = synthetic.NewGenerator()
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "engine").Logger()
	}

	return &Engine{
		tokens:         opts.Tokens,
		resolver:       opts.Resolver,
		client:         opts.Client,
		geocoder:       opts.Geocoder,
		generator:      opts.Generator,
		metrics:        NewMetricsRecorder(),
		tracer:         otel.Tracer("github.com/rxcompare/price-service/internal/engine"),
		logger:         logger,
		attemptTimeout: opts.AttemptTimeout,
	}, nil
}

// Resolve returns sorted offers for query around loc.
//
// The only errors are a *types.ValidationError for malformed input and the
// context's error when the caller gives up. Every upstream failure ends in
// either the next candidate or a mock result carrying a warning.
func (e *Engine) Resolve(ctx context.Context, query types.DrugQuery, loc types.Location) (*types.ResolutionResult, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.Resolve", trace.WithAttributes(
		attribute.String("query.key", query.Key()),
		attribute.Float64("location.radius_miles", loc.RadiusMiles),
	))
	defer span.End()

	run := newResolution(ctx, query, loc, e.logger)
	result, outcome, err := e.resolve(ctx, run)
	if e.observe != nil {
		e.observe(run)
	}

	offers := 0
	if result != nil {
		offers = len(result.Offers)
		span.SetAttributes(
			attribute.Bool("result.used_mock_data", result.UsedMockData),
			attribute.Int("result.offers", offers),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	e.metrics.RecordResolution(outcome, time.Since(start), offers)
	return result, err
}

func (e *Engine) resolve(ctx context.Context, run *resolution) (*types.ResolutionResult, string, error) {
	if err := run.query.Validate(); err != nil {
		return nil, outcomeInvalid, err
	}

	if run.location.NeedsGeocoding() {
		coords, err := e.geocoder.Resolve(ctx, run.location.PostalCode)
		if err != nil {
			return nil, outcomeInvalid, err
		}
		run.location.Latitude = coords.Latitude
		run.location.Longitude = coords.Longitude
		if coords.Approximate() {
			run.warn(fmt.Sprintf("Location for postal code %s is approximate; distances may be off.", run.location.PostalCode))
		}
	}
	if err := run.location.Validate(); err != nil {
		return nil, outcomeInvalid, err
	}

	candidates, err := e.resolver.BuildRequest(run.query, &run.location)
	if err != nil {
		var ve *types.ValidationError
		if errors.As(err, &ve) {
			return nil, outcomeInvalid, err
		}
		return e.fallback(run, "no upstream endpoints are configured")
	}

	run.transition(StateAuthInProgress, 0, 0)
	token, err := e.tokens.Token(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, outcomeCanceled, ctx.Err()
		}
		run.logger.Warn().Err(err).Msg("no upstream token, skipping upstream")
		return e.fallback(run, "could not authenticate with the pricing service")
	}
	run.token = token

	reason := "no candidate returned usable offers"
	for i, cand := range candidates {
		if ctx.Err() != nil {
			return nil, outcomeCanceled, ctx.Err()
		}
		run.transition(StateQueryUpstream, i+1, len(candidates))

		if cand.Lookup != nil {
			bound, err := e.bindLookup(ctx, run, cand)
			if err != nil {
				if ctx.Err() != nil {
					return nil, outcomeCanceled, ctx.Err()
				}
				if errors.Is(err, errTokenRefresh) {
					return e.fallback(run, "could not re-authenticate with the pricing service")
				}
				reason = err.Error()
				continue
			}
			cand = bound
		}
		if !cand.Ready() {
			reason = cand.Label() + " has no drug identifier"
			continue
		}

		raw, err := e.call(ctx, run, cand.Kind, cand.Method, cand.URL, &cand.Body)
		if err != nil {
			if ctx.Err() != nil {
				return nil, outcomeCanceled, ctx.Err()
			}
			if errors.Is(err, errTokenRefresh) {
				return e.fallback(run, "could not re-authenticate with the pricing service")
			}
			reason = describe(cand.Label(), err)
			continue
		}

		offers, err := normalize.Offers(raw, string(cand.Kind), &run.location)
		if err != nil {
			run.logger.Debug().Err(err).Str("candidate", cand.Label()).Msg("unparseable price payload")
			reason = describe(cand.Label(), err)
			continue
		}
		if len(offers) == 0 {
			run.logger.Debug().Str("candidate", cand.Label()).Msg("no usable offers")
			reason = cand.Label() + " returned no usable offers"
			continue
		}

		run.transition(StateNormalizing, 0, 0)
		drug, err := normalize.Drug(raw)
		if err != nil {
			drug = nil
		}

		run.transition(StateSorting, 0, 0)
		SortOffers(offers)

		run.transition(StateDone, 0, 0)
		run.logger.Info().
			Str("candidate", cand.Label()).
			Int("offers", len(offers)).
			Msg("resolved prices from upstream")
		return &types.ResolutionResult{
			Query:        run.query,
			Location:     run.location,
			Offers:       offers,
			Drug:         drug,
			UsedMockData: false,
			Warnings:     run.warnings,
		}, outcomeUpstream, nil
	}

	return e.fallback(run, reason)
}

// fallback synthesizes offers and explains why.
func (e *Engine) fallback(run *resolution, reason string) (*types.ResolutionResult, string, error) {
	run.transition(StateMockFallback, 0, 0)
	offers := e.generator.Generate(run.query, run.location)
	SortOffers(offers)
	run.warn(fmt.Sprintf("Live prices are unavailable (%s); showing estimated prices instead.", reason))

	run.transition(StateDone, 0, 0)
	run.logger.Warn().Str("reason", reason).Int("offers", len(offers)).Msg("using synthetic offers")
	return &types.ResolutionResult{
		Query:        run.query,
		Location:     run.location,
		Offers:       offers,
		UsedMockData: true,
		Warnings:     run.warnings,
	}, outcomeMock, nil
}

// SortOffers orders offers by ascending price, then ascending distance,
// keeping the upstream order of equal offers.
func SortOffers(offers []types.PharmacyOffer) {
	sort.SliceStable(offers, func(i, j int) bool {
		if offers[i].Price != offers[j].Price {
			return offers[i].Price < offers[j].Price
		}
		return offers[i].DistanceMiles < offers[j].DistanceMiles
	})
}

// SearchNames returns drug names starting with prefix, for autocomplete.
// Upstream trouble yields an empty list rather than an error.
func (e *Engine) SearchNames(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, &types.ValidationError{Field: "q", Reason: "search prefix is required"}
	}

	ctx, span := e.tracer.Start(ctx, "engine.SearchNames", trace.WithAttributes(attribute.String("prefix", prefix)))
	defer span.End()

	run := newResolution(ctx, types.DrugQuery{Name: prefix}, types.Location{}, e.logger)
	token, err := e.tokens.Token(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		run.logger.Warn().Err(err).Msg("no upstream token for name search")
		return []string{}, nil
	}
	run.token = token

	for _, req := range e.resolver.NameSearchRequests(prefix) {
		raw, err := e.call(ctx, run, req.Kind, req.Method, req.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, errTokenRefresh) {
				break
			}
			continue
		}
		names, err := normalize.Names(raw)
		if err != nil || len(names) == 0 {
			continue
		}
		return names, nil
	}
	return []string{}, nil
}

// describe turns a failed call into a short phrase for the fallback warning.
func describe(label string, err error) string {
	var se *httpclient.StatusError
	var schema *types.SchemaError
	switch {
	case errors.As(err, &se):
		return fmt.Sprintf("%s answered HTTP %d", label, se.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return label + " timed out"
	case errors.As(err, &schema):
		return label + " returned an unreadable response"
	default:
		return label + " could not be reached"
	}
}
