package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	httpclient "github.com/rxcompare/price-service/internal/http"
	"github.com/rxcompare/price-service/internal/normalize"
	"github.com/rxcompare/price-service/internal/upstream"
)

// errTokenRefresh means a 401 could not be recovered from: the token was
// dropped and a new one could not be obtained.
var errTokenRefresh = errors.New("token refresh after upstream 401 failed")

// call performs one upstream request under the attempt timeout. On a 401 it
// drops the token and fetches a fresh one for the next call; the failed call
// itself is not repeated.
func (e *Engine) call(ctx context.Context, run *resolution, kind upstream.EndpointKind, method, url string, body *upstream.PriceRequest) ([]byte, error) {
	ctx, span := e.tracer.Start(ctx, "engine.attempt", trace.WithAttributes(
		attribute.String("endpoint.kind", string(kind)),
		attribute.String("http.url", url),
	))
	defer span.End()

	attemptCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()

	// A nil *PriceRequest must reach the client as a nil interface.
	var payload any
	if body != nil {
		payload = *body
	}

	start := time.Now()
	raw, err := e.client.Do(attemptCtx, method, url, payload, run.token)
	elapsed := time.Since(start)

	if err == nil {
		e.metrics.RecordAttempt(string(kind), "ok", elapsed)
		return raw, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "upstream call failed")

	result := "error"
	switch status := httpclient.StatusCode(err); {
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		result = "timeout"
	case httpclient.IsTransientStatus(status):
		result = "transient"
	case status != 0:
		result = "http_error"
	}
	e.metrics.RecordAttempt(string(kind), result, elapsed)

	run.logger.Debug().Err(err).
		Str("endpoint", string(kind)).
		Str("url", url).
		Dur("elapsed", elapsed).
		Msg("upstream call failed")

	if httpclient.IsUnauthorized(err) && ctx.Err() == nil {
		e.tokens.Invalidate()
		token, terr := e.tokens.Token(ctx)
		if terr != nil {
			run.logger.Warn().Err(terr).Msg("token refresh after 401 failed")
			return nil, fmt.Errorf("%w: %w", errTokenRefresh, terr)
		}
		run.token = token
	}
	return nil, err
}

// bindLookup completes a candidate whose identifier comes from a lookup
// step. The lookup runs at most once per resolution; its outcome, success or
// not, is reused by later candidates sharing it.
func (e *Engine) bindLookup(ctx context.Context, run *resolution, cand upstream.Candidate) (upstream.Candidate, error) {
	outcome, done := run.lookups[cand.Lookup]
	if !done {
		var err error
		outcome, err = e.runLookup(ctx, run, cand.Lookup)
		if err != nil {
			return cand, err
		}
		run.lookups[cand.Lookup] = outcome
	}
	if !outcome.ok {
		return cand, errors.New(outcome.reason)
	}
	return cand.Bind(outcome.name, outcome.gsn), nil
}

// runLookup tries each lookup request in order. Only cancellation and token
// failure are returned as errors; anything else is a failed lookup.
func (e *Engine) runLookup(ctx context.Context, run *resolution, l *upstream.Lookup) (lookupOutcome, error) {
	reason := string(l.Kind) + " returned no identifier"
	for _, req := range l.Requests {
		raw, err := e.call(ctx, run, req.Kind, req.Method, req.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return lookupOutcome{}, ctx.Err()
			}
			if errors.Is(err, errTokenRefresh) {
				return lookupOutcome{}, err
			}
			reason = describe(string(l.Kind), err)
			continue
		}

		switch l.Kind {
		case upstream.KindGSNLookup:
			gsn, err := normalize.GSN(raw)
			if err == nil && gsn > 0 {
				run.logger.Debug().Int("gsn", gsn).Msg("lookup resolved GSN")
				return lookupOutcome{gsn: gsn, ok: true}, nil
			}
		case upstream.KindNamesList:
			names, err := normalize.Names(raw)
			if err == nil && len(names) > 0 {
				run.logger.Debug().Str("name", names[0]).Msg("lookup resolved name")
				return lookupOutcome{name: names[0], ok: true}, nil
			}
		}
	}
	return lookupOutcome{reason: reason}, nil
}
