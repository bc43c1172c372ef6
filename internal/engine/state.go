package engine

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rxcompare/price-service/internal/types"
	"github.com/rxcompare/price-service/internal/upstream"
)

// State is a step of a resolution.
type State string

const (
	StateIdle           State = "idle"
	StateAuthInProgress State = "auth_in_progress"
	StateQueryUpstream  State = "query_upstream"
	StateNormalizing    State = "normalizing"
	StateSorting        State = "sorting"
	StateMockFallback   State = "mock_fallback"
	StateDone           State = "done"
)

const (
	outcomeUpstream = "upstream"
	outcomeMock     = "mock"
	outcomeInvalid  = "invalid"
	outcomeCanceled = "canceled"
)

// lookupOutcome remembers what a lookup step produced for the rest of the
// request, including failure, so it is never repeated.
type lookupOutcome struct {
	name   string
	gsn    int
	ok     bool
	reason string
}

// resolution carries the per-request state of one Resolve call. It is never
// shared between goroutines.
type resolution struct {
	query    types.DrugQuery
	location types.Location
	token    string
	state    State
	history  []State
	warnings []string
	lookups  map[*upstream.Lookup]lookupOutcome

	span   trace.Span
	logger zerolog.Logger
}

func newResolution(ctx context.Context, query types.DrugQuery, loc types.Location, logger zerolog.Logger) *resolution {
	r := &resolution{
		query:    query,
		location: loc,
		state:    StateIdle,
		history:  []State{StateIdle},
		warnings: []string{},
		lookups:  make(map[*upstream.Lookup]lookupOutcome),
		span:     trace.SpanFromContext(ctx),
	}
	r.logger = logger.With().Str("query", query.Key()).Logger()
	return r
}

// transition moves to next and records it. attempt and total are only
// meaningful for StateQueryUpstream.
func (r *resolution) transition(next State, attempt, total int) {
	r.state = next
	r.history = append(r.history, next)

	ev := r.logger.Debug().Str("state", string(next))
	attrs := []attribute.KeyValue{attribute.String("state", string(next))}
	if next == StateQueryUpstream {
		ev = ev.Int("attempt", attempt).Int("of", total)
		attrs = append(attrs, attribute.Int("attempt", attempt), attribute.Int("of", total))
	}
	ev.Msg("resolution state")
	r.span.AddEvent("state", trace.WithAttributes(attrs...))
}

func (r *resolution) warn(msg string) {
	r.warnings = append(r.warnings, msg)
}
