package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxcompare/price-service/internal/geocode"
	httpclient "github.com/rxcompare/price-service/internal/http"
	"github.com/rxcompare/price-service/internal/synthetic"
	"github.com/rxcompare/price-service/internal/types"
	"github.com/rxcompare/price-service/internal/upstream"
)

const (
	pathByGSN     = "/pricing/v1/drugprices/byGSN"
	pathByName    = "/pricing/v1/drugprices/byName"
	pathByDrug    = "/pricing/v1/drugprices/byDrugName"
	pathGSNLookup = "/pricing/v1/drugs/gsn"
	pathNamesList = "/pricing/v1/drugs/namesByGSN"
	pathSearch    = "/pricing/v1/drugs/names"
)

var austin = types.Location{Latitude: 30.40, Longitude: -97.75, RadiusMiles: 50}

// fakeUpstream is an httptest pricing API with per-path handlers. Paths
// without a handler answer 404.
type fakeUpstream struct {
	srv      *httptest.Server
	mu       sync.Mutex
	hits     map[string]int
	bearers  []string
	handlers map[string]http.HandlerFunc
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{hits: map[string]int{}, handlers: map[string]http.HandlerFunc{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.URL.Path]++
		f.bearers = append(f.bearers, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		h := f.handlers[r.URL.Path]
		f.mu.Unlock()
		if h == nil {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstream) handle(path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[path] = h
}

func (f *fakeUpstream) hitsFor(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeUpstream) totalHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, h := range f.hits {
		n += h
	}
	return n
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func slow(w http.ResponseWriter, r *http.Request) {
	select {
	case <-r.Context().Done():
	case <-time.After(2 * time.Second):
	}
}

func decodeBody(t *testing.T, r *http.Request) upstream.PriceRequest {
	t.Helper()
	var body upstream.PriceRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

// fakeTokens hands out tokens[i], advancing i on every Invalidate.
type fakeTokens struct {
	mu            sync.Mutex
	tokens        []string
	idx           int
	err           error
	refreshErr    error
	calls         int
	invalidations int
}

func (f *fakeTokens) Token(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.idx > 0 && f.refreshErr != nil {
		return "", f.refreshErr
	}
	if len(f.tokens) == 0 {
		return "token", nil
	}
	return f.tokens[min(f.idx, len(f.tokens)-1)], nil
}

func (f *fakeTokens) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidations++
	f.idx++
}

type engineOption func(*Options, *upstream.Config)

func withPaths(kind upstream.EndpointKind, paths ...string) engineOption {
	return func(_ *Options, c *upstream.Config) { c.Paths[kind] = paths }
}

func withAttemptTimeout(d time.Duration) engineOption {
	return func(o *Options, _ *upstream.Config) { o.AttemptTimeout = d }
}

func newTestEngine(t *testing.T, f *fakeUpstream, tokens *fakeTokens, opts ...engineOption) *Engine {
	t.Helper()
	cfg := upstream.Config{
		BaseURL:       f.srv.URL,
		HQMappingName: "rxcompare",
		Paths: map[upstream.EndpointKind][]string{
			upstream.KindPriceByGSN:  {"/drugprices/byGSN"},
			upstream.KindPriceByName: {"/drugprices/byName", "/drugprices/byDrugName"},
			upstream.KindGSNLookup:   {"/drugs/gsn"},
			upstream.KindNamesList:   {"/drugs/namesByGSN"},
			upstream.KindNameSearch:  {"/drugs/names"},
		},
	}
	o := Options{
		Tokens:         tokens,
		Client:         httpclient.NewClient(httpclient.DefaultConfig()),
		Generator:      synthetic.NewGenerator(),
		AttemptTimeout: time.Second,
	}
	for _, opt := range opts {
		opt(&o, &cfg)
	}

	resolver, err := upstream.NewResolver(cfg)
	require.NoError(t, err)
	o.Resolver = resolver

	geo, err := geocode.New(16)
	require.NoError(t, err)
	o.Geocoder = geo

	e, err := New(o)
	require.NoError(t, err)
	return e
}

func requireSorted(t *testing.T, offers []types.PharmacyOffer) {
	t.Helper()
	for i := 1; i < len(offers); i++ {
		prev, cur := offers[i-1], offers[i]
		ok := prev.Price < cur.Price || (prev.Price == cur.Price && prev.DistanceMiles <= cur.DistanceMiles)
		require.True(t, ok, "offers %d and %d out of order: %+v then %+v", i-1, i, prev, cur)
	}
}

func requireMock(t *testing.T, res *types.ResolutionResult) {
	t.Helper()
	require.True(t, res.UsedMockData)
	require.GreaterOrEqual(t, len(res.Offers), synthetic.MinOffers)
	require.LessOrEqual(t, len(res.Offers), synthetic.MaxOffers)
	for _, o := range res.Offers {
		require.Equal(t, types.DataSourceMock, o.DataSource)
	}
	require.NotEmpty(t, res.Warnings)
	requireSorted(t, res.Offers)
}

func TestResolveLipitorByName(t *testing.T) {
	f := newFakeUpstream(t)
	var got upstream.PriceRequest
	f.handle(pathByName, func(w http.ResponseWriter, r *http.Request) {
		got = decodeBody(t, r)
		respond(http.StatusOK, `{"pharmacies":[{"name":"CVS Pharmacy","price":12.99,"distance":"1.2 miles"}]}`)(w, r)
	})

	e := newTestEngine(t, f, &fakeTokens{})
	var history []State
	e.observe = func(r *resolution) { history = r.history }

	res, err := e.Resolve(context.Background(), types.DrugQuery{Name: "lipitor"}, austin)
	require.NoError(t, err)

	require.Len(t, res.Offers, 1)
	assert.False(t, res.UsedMockData)
	assert.Equal(t, 12.99, res.Offers[0].Price)
	assert.Equal(t, 1.2, res.Offers[0].DistanceMiles)
	assert.Equal(t, types.DataSourceUpstream, res.Offers[0].DataSource)
	assert.Empty(t, res.Warnings)

	assert.Equal(t, "lipitor", got.DrugName)
	assert.Equal(t, "rxcompare", got.HQMappingName)
	assert.Equal(t, 50.0, got.Radius)
	assert.Equal(t, 30.40, got.Latitude)
	assert.Equal(t, 0, f.hitsFor(pathByDrug), "later candidates must not run after a success")

	assert.Equal(t, []State{StateIdle, StateAuthInProgress, StateQueryUpstream, StateNormalizing, StateSorting, StateDone}, history)
}

func TestResolveGSNFallsBackToPriceByName(t *testing.T) {
	f := newFakeUpstream(t)
	f.handle(pathByGSN, respond(http.StatusNotFound, `{"error":"not found"}`))
	f.handle(pathNamesList, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "16784", r.URL.Query().Get("gsn"))
		respond(http.StatusOK, `{"names":["Lipitor"]}`)(w, r)
	})
	f.handle(pathByName, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "Lipitor", body.DrugName)
		assert.Nil(t, body.GSN)
		respond(http.StatusOK, `{"pharmacyPrices":[
			{"pharmacy":{"name":"Walgreens","distance":2.5},"price":{"amount":"15.40"}},
			{"pharmacy":{"name":"H-E-B Pharmacy","distance":0.8},"price":{"amount":"11.10"}}
		]}`)(w, r)
	})

	e := newTestEngine(t, f, &fakeTokens{})
	res, err := e.Resolve(context.Background(), types.DrugQuery{GSN: 16784}, austin)
	require.NoError(t, err)

	assert.False(t, res.UsedMockData)
	require.Len(t, res.Offers, 2)
	assert.Equal(t, "H-E-B Pharmacy", res.Offers[0].PharmacyName)
	assert.Equal(t, 11.10, res.Offers[0].Price)
	assert.Equal(t, "Walgreens", res.Offers[1].PharmacyName)

	assert.Equal(t, 1, f.hitsFor(pathByGSN))
	assert.Equal(t, 1, f.hitsFor(pathNamesList))
	assert.Equal(t, 1, f.hitsFor(pathByName))
}

func TestResolveTotalFallback(t *testing.T) {
	f := newFakeUpstream(t)
	f.handle(pathByName, respond(http.StatusOK, `{"pharmacies":[]}`))
	f.handle(pathByDrug, respond(http.StatusServiceUnavailable, `upstream down`))
	f.handle(pathGSNLookup, respond(http.StatusOK, `{"gsn":16784}`))
	f.handle(pathByGSN, respond(http.StatusOK, `<html>oops</html>`))

	e := newTestEngine(t, f, &fakeTokens{})
	var history []State
	e.observe = func(r *resolution) { history = r.history }

	res, err := e.Resolve(context.Background(), types.DrugQuery{Name: "lipitor"}, austin)
	require.NoError(t, err)
	requireMock(t, res)
	assert.Contains(t, res.Warnings[0], "estimated prices")

	assert.Equal(t, 1, f.hitsFor(pathByName))
	assert.Equal(t, 1, f.hitsFor(pathByDrug))
	assert.Equal(t, 1, f.hitsFor(pathGSNLookup))
	assert.Equal(t, 1, f.hitsFor(pathByGSN))

	assert.Equal(t, StateMockFallback, history[len(history)-2])
	assert.Equal(t, StateDone, history[len(history)-1])
}

func TestResolveCountsTransientUpstreamFailures(t *testing.T) {
	f := newFakeUpstream(t)
	f.handle(pathByName, respond(http.StatusServiceUnavailable, `upstream down`))
	f.handle(pathByDrug, respond(http.StatusNotFound, `no such drug`))

	kind := string(upstream.KindPriceByName)
	transient := testutil.ToFloat64(upstreamAttempts.WithLabelValues(kind, "transient"))
	httpErrors := testutil.ToFloat64(upstreamAttempts.WithLabelValues(kind, "http_error"))

	e := newTestEngine(t, f, &fakeTokens{})
	res, err := e.Resolve(context.Background(), types.DrugQuery{Name: "lipitor"}, austin)
	require.NoError(t, err)
	requireMock(t, res)

	assert.Equal(t, transient+1, testutil.ToFloat64(upstreamAttempts.WithLabelValues(kind, "transient")))
	assert.Equal(t, httpErrors+1, testutil.ToFloat64(upstreamAttempts.WithLabelValues(kind, "http_error")))
}

func TestResolveAllTimeoutsFallBackToMock(t *testing.T) {
	f := newFakeUpstream(t)
	for _, p := range []string{pathByName, pathByDrug, pathGSNLookup, pathByGSN} {
		f.handle(p, slow)
	}

	e := newTestEngine(t, f, &fakeTokens{}, withAttemptTimeout(30*time.Millisecond))

	start := time.Now()
	res, err := e.Resolve(context.Background(), types.DrugQuery{Name: "lipitor"}, austin)
	require.NoError(t, err)
	requireMock(t, res)
	assert.Contains(t, res.Warnings[0], "timed out")
	assert.Less(t, time.Since(start), time.Second)
}

func TestResolveSortsByPriceThenDistanceStably(t *testing.T) {
	f := newFakeUpstream(t)
	f.handle(pathByName, respond(http.StatusOK, `{"pharmacies":[
		{"name":"A","price":20,"distance":1.0},
		{"name":"B","price":10,"distance":5.0},
		{"name":"C","price":10,"distance":2.0},
		{"name":"D","price":"10.00","distance":2.0},
		{"name":"E","price":5,"distance":9.0}
	]}`))

	e := newTestEngine(t, f, &fakeTokens{})
	first, err := e.Resolve(context.Background(), types.DrugQuery{Name: "lipitor"}, austin)
	require.NoError(t, err)

	var names []string
	for _, o := range first.Offers {
		names = append(names, o.PharmacyName)
	}
	assert.Equal(t, []string{"E", "C", "D", "B", "A"}, names)

	second, err := e.Resolve(context.Background(), types.DrugQuery{Name: "lipitor"}, austin)
	require.NoError(t, err)
	assert.Equal(t, first.Offers, second.Offers)
}

func TestResolveMockFallbackIsDeterministic(t *testing.T) {
	f := newFakeUpstream(t)
	e := newTestEngine(t, f, &fakeTokens{})

	a, err := e.Resolve(context.Background(), types.DrugQuery{Name: "lipitor"}, austin)
	require.NoError(t, err)
	b, err := e.Resolve(context.Background(), types.DrugQuery{Name: "LIPITOR "}, austin)
	require.NoError(t, err)

	requireMock(t, a)
	assert.Equal(t, a.Offers, b.Offers)
}

func TestResolveTokenFailureSkipsUpstream(t *testing.T) {
	f := newFakeUpstream(t)
	f.handle(pathByName, respond(http.StatusOK, `{"pharmacies":[{"name":"CVS","price":1}]}`))

	tokens := &fakeTokens{err: &types.AuthError{Reason: "missing credentials: client secret"}}
	e := newTestEngine(t, f, tokens)
	var history []State
	e.observe = func(r *resolution) { history = r.history }

	res, err := e.Resolve(context.Background(), types.DrugQuery{Name: "lipitor"}, austin)
	require.NoError(t, err)
	requireMock(t, res)
	assert.Contains(t, res.Warnings[0], "authenticate")
	assert.Equal(t, 0, f.totalHits())
	assert.Equal(t, []State{StateIdle, StateAuthInProgress, StateMockFallback, StateDone}, history)
}

func TestResolveRefreshesTokenAfter401(t *testing.T) {
	f := newFakeUpstream(t)
	f.handle(pathByName, respond(http.StatusUnauthorized, `{"error":"expired"}`))
	f.handle(pathByDrug, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-2" {
			respond(http.StatusUnauthorized, `{}`)(w, r)
			return
		}
		respond(http.StatusOK, `{"pharmacies":[{"name":"CVS","price":8.25}]}`)(w, r)
	})

	tokens := &fakeTokens{tokens: []string{"tok-1", "tok-2"}}
	e := newTestEngine(t, f, tokens)

	res, err := e.Resolve(context.Background(), types.DrugQuery{Name: "lipitor"}, austin)
	require.NoError(t, err)
	assert.False(t, res.UsedMockData)
	require.Len(t, res.Offers, 1)
	assert.Equal(t, 8.25, res.Offers[0].Price)

	assert.Equal(t, 1, tokens.invalidations)
	assert.Equal(t, []string{"tok-1", "tok-2"}, f.bearers)
	assert.Equal(t, 1, f.hitsFor(pathByName), "a 401 moves on instead of repeating the call")
}

func TestResolveFailedRefreshAfter401FallsBack(t *testing.T) {
	f := newFakeUpstream(t)
	f.handle(pathByName, respond(http.StatusUnauthorized, `{}`))

	tokens := &fakeTokens{refreshErr: &types.AuthError{Reason: "token endpoint rejected request (HTTP 400)"}}
	e := newTestEngine(t, f, tokens)

	res, err := e.Resolve(context.Background(), types.DrugQuery{Name: "lipitor"}, austin)
	require.NoError(t, err)
	requireMock(t, res)
	assert.Contains(t, res.Warnings[0], "re-authenticate")
	assert.Equal(t, 0, f.hitsFor(pathByDrug))
}

func TestResolveCancellationStopsChain(t *testing.T) {
	f := newFakeUpstream(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.handle(pathByName, func(w http.ResponseWriter, r *http.Request) {
		cancel()
		slow(w, r)
	})

	e := newTestEngine(t, f, &fakeTokens{})
	res, err := e.Resolve(ctx, types.DrugQuery{Name: "lipitor"}, austin)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
	assert.Equal(t, 0, f.hitsFor(pathByDrug))
	assert.Equal(t, 0, f.hitsFor(pathGSNLookup))
}

func TestResolveValidation(t *testing.T) {
	tests := []struct {
		name  string
		query types.DrugQuery
		loc   types.Location
		field string
	}{
		{"no query", types.DrugQuery{}, austin, "query"},
		{"blank name", types.DrugQuery{Name: "   "}, austin, "query"},
		{"both variants", types.DrugQuery{Name: "lipitor", GSN: 1}, austin, "query"},
		{"zero radius", types.DrugQuery{Name: "lipitor"}, types.Location{Latitude: 30.4, Longitude: -97.75}, "radiusMiles"},
		{"negative radius", types.DrugQuery{Name: "lipitor"}, types.Location{Latitude: 30.4, Longitude: -97.75, RadiusMiles: -5}, "radiusMiles"},
		{"latitude range", types.DrugQuery{Name: "lipitor"}, types.Location{Latitude: 91, Longitude: 0, RadiusMiles: 5}, "latitude"},
		{"longitude range", types.DrugQuery{Name: "lipitor"}, types.Location{Latitude: 30, Longitude: -181, RadiusMiles: 5}, "longitude"},
		{"no location", types.DrugQuery{Name: "lipitor"}, types.Location{RadiusMiles: 50}, "location"},
		{"bad postal code", types.DrugQuery{Name: "lipitor"}, types.Location{PostalCode: "abc12", RadiusMiles: 5}, "postalCode"},
		{"short postal code", types.DrugQuery{Name: "lipitor"}, types.Location{PostalCode: "123", RadiusMiles: 5}, "postalCode"},
	}

	f := newFakeUpstream(t)
	tokens := &fakeTokens{}
	e := newTestEngine(t, f, tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Resolve(context.Background(), tt.query, tt.loc)
			assert.Nil(t, res)
			var ve *types.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
	assert.Equal(t, 0, tokens.calls)
	assert.Equal(t, 0, f.totalHits())
}

func TestResolveGeocodesPostalCode(t *testing.T) {
	f := newFakeUpstream(t)
	var got upstream.PriceRequest
	f.handle(pathByName, func(w http.ResponseWriter, r *http.Request) {
		got = decodeBody(t, r)
		respond(http.StatusOK, `{"pharmacies":[{"name":"CVS","price":4}]}`)(w, r)
	})

	e := newTestEngine(t, f, &fakeTokens{})
	res, err := e.Resolve(context.Background(), types.DrugQuery{Name: "lipitor"}, types.Location{PostalCode: "78701", RadiusMiles: 10})
	require.NoError(t, err)

	want := geocode.Approximate("78701")
	assert.Equal(t, want.Latitude, res.Location.Latitude)
	assert.Equal(t, want.Longitude, res.Location.Longitude)
	assert.Equal(t, want.Latitude, got.Latitude)
	assert.False(t, res.UsedMockData)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "approximate")
}

func TestResolveRunsLookupOnce(t *testing.T) {
	t.Run("failed lookup is not repeated", func(t *testing.T) {
		f := newFakeUpstream(t)
		f.handle(pathByName, respond(http.StatusOK, `[]`))
		f.handle(pathByDrug, respond(http.StatusOK, `{}`))
		f.handle(pathGSNLookup, respond(http.StatusOK, `{"gsn":null}`))

		e := newTestEngine(t, f, &fakeTokens{},
			withPaths(upstream.KindPriceByGSN, "/drugprices/byGSN", "/drugprices/gsn"))
		res, err := e.Resolve(context.Background(), types.DrugQuery{Name: "lipitor"}, austin)
		require.NoError(t, err)
		requireMock(t, res)
		assert.Equal(t, 1, f.hitsFor(pathGSNLookup))
		assert.Equal(t, 0, f.hitsFor(pathByGSN))
		assert.Contains(t, res.Warnings[0], "gsn-lookup returned no identifier")
	})

	t.Run("discovered id is reused", func(t *testing.T) {
		f := newFakeUpstream(t)
		f.handle(pathGSNLookup, respond(http.StatusOK, `{"data":{"gsn":"16784"}}`))
		f.handle(pathByGSN, respond(http.StatusInternalServerError, `{}`))
		f.handle("/pricing/v1/drugprices/gsn", func(w http.ResponseWriter, r *http.Request) {
			body := decodeBody(t, r)
			require.NotNil(t, body.GSN)
			assert.Equal(t, 16784, *body.GSN)
			respond(http.StatusOK, `{"pharmacies":[{"name":"Costco","price":3.5}]}`)(w, r)
		})

		e := newTestEngine(t, f, &fakeTokens{},
			withPaths(upstream.KindPriceByGSN, "/drugprices/byGSN", "/drugprices/gsn"))
		res, err := e.Resolve(context.Background(), types.DrugQuery{Name: "lipitor"}, austin)
		require.NoError(t, err)
		assert.False(t, res.UsedMockData)
		assert.Equal(t, "Costco", res.Offers[0].PharmacyName)
		assert.Equal(t, 1, f.hitsFor(pathGSNLookup))
	})
}

func TestResolveConcurrentQueries(t *testing.T) {
	f := newFakeUpstream(t)
	f.handle(pathByName, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		respond(http.StatusOK, fmt.Sprintf(`{"pharmacies":[{"name":%q,"price":5}]}`, body.DrugName))(w, r)
	})
	e := newTestEngine(t, f, &fakeTokens{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("drug-%d", i)
			res, err := e.Resolve(context.Background(), types.DrugQuery{Name: name}, austin)
			if assert.NoError(t, err) && assert.Len(t, res.Offers, 1) {
				assert.Equal(t, name, res.Offers[0].PharmacyName)
			}
		}(i)
	}
	wg.Wait()
}

func TestSearchNames(t *testing.T) {
	f := newFakeUpstream(t)
	f.handle(pathSearch, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lip", r.URL.Query().Get("prefix"))
		respond(http.StatusOK, `[{"label":"Lipitor","value":"lipitor"},{"label":"Lipofen"}]`)(w, r)
	})
	e := newTestEngine(t, f, &fakeTokens{})

	names, err := e.SearchNames(context.Background(), " lip ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lipitor", "Lipofen"}, names)

	_, err = e.SearchNames(context.Background(), "  ")
	var ve *types.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestSearchNamesDegradesToEmpty(t *testing.T) {
	f := newFakeUpstream(t)
	f.handle(pathSearch, respond(http.StatusBadGateway, `bad gateway`))
	e := newTestEngine(t, f, &fakeTokens{})

	names, err := e.SearchNames(context.Background(), "lip")
	require.NoError(t, err)
	assert.Empty(t, names)

	e = newTestEngine(t, f, &fakeTokens{err: &types.AuthError{Reason: "down"}})
	names, err = e.SearchNames(context.Background(), "lip")
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestSortOffers(t *testing.T) {
	offers := []types.PharmacyOffer{
		{PharmacyName: "x", Price: 3, DistanceMiles: 2},
		{PharmacyName: "y", Price: 3, DistanceMiles: 1},
		{PharmacyName: "z", Price: 1, DistanceMiles: 9},
		{PharmacyName: "w", Price: 3, DistanceMiles: 1},
	}
	SortOffers(offers)
	got := make([]string, len(offers))
	for i, o := range offers {
		got[i] = o.PharmacyName
	}
	assert.Equal(t, []string{"z", "y", "w", "x"}, got)
}
