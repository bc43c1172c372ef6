package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rxcompare/price-service/config"
	"github.com/rxcompare/price-service/internal/matching"
	"github.com/rxcompare/price-service/internal/types"
)

// EndpointKind names one logical capability of the pricing upstream.
type EndpointKind string

const (
	KindPriceByGSN  EndpointKind = "price-by-gsn"
	KindPriceByName EndpointKind = "price-by-name"
	KindNameSearch  EndpointKind = "name-search"
	KindGSNLookup   EndpointKind = "gsn-lookup"
	KindNamesList   EndpointKind = "names-list"
)

// DefaultVersionPath is appended to base URLs that do not already carry it.
const DefaultVersionPath = "/pricing/v1"

// DefaultRadiusMiles is used when a request is built without a location.
const DefaultRadiusMiles = 25

var (
	ErrEmptyBaseURL   = errors.New("upstream base URL is empty")
	ErrInvalidBaseURL = errors.New("upstream base URL is invalid")
	ErrNoPaths        = errors.New("no upstream paths configured")
)

// Config describes where the upstream lives and which paths serve each kind.
type Config struct {
	BaseURL       string
	VersionPath   string
	HQMappingName string
	Paths         map[EndpointKind][]string
}

// ConfigFrom maps the service configuration onto the resolver's.
func ConfigFrom(c config.UpstreamConfig) Config {
	return Config{
		BaseURL:       c.BaseURL,
		VersionPath:   c.VersionPath,
		HQMappingName: c.HQMappingName,
		Paths: map[EndpointKind][]string{
			KindPriceByGSN:  c.Paths.PriceByGSN,
			KindPriceByName: c.Paths.PriceByName,
			KindNameSearch:  c.Paths.NameSearch,
			KindGSNLookup:   c.Paths.GSNLookup,
			KindNamesList:   c.Paths.NamesList,
		},
	}
}

// PriceRequest is the body of both price endpoints. Exactly one of GSN and
// DrugName is set.
type PriceRequest struct {
	HQMappingName string  `json:"hqMappingName"`
	GSN           *int    `json:"gsn,omitempty"`
	DrugName      string  `json:"drugName,omitempty"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Radius        float64 `json:"radius"`
	Quantity      *int    `json:"quantity,omitempty"`
}

// Request is a body-less GET against one upstream path.
type Request struct {
	Kind   EndpointKind
	Method string
	URL    string
}

// Lookup is a pre-step that discovers the identifier a candidate is missing:
// a GSN for a name query (gsn-lookup) or a name for a GSN query (names-list).
// Requests are tried in order until one yields an identifier.
type Lookup struct {
	Kind     EndpointKind
	Requests []Request
}

// Candidate is one price request to attempt. When Lookup is set, the body is
// incomplete until Bind fills in the discovered identifier.
type Candidate struct {
	Kind   EndpointKind
	Path   string
	Method string
	URL    string
	Body   PriceRequest
	Lookup *Lookup
}

// Label identifies the candidate in logs and warnings.
func (c Candidate) Label() string {
	return string(c.Kind) + " " + c.Path
}

// Bind returns a copy of the candidate with the identifier a lookup found.
func (c Candidate) Bind(name string, gsn int) Candidate {
	bound := c
	switch c.Kind {
	case KindPriceByGSN:
		g := gsn
		bound.Body.GSN = &g
		bound.Body.DrugName = ""
	case KindPriceByName:
		bound.Body.DrugName = name
		bound.Body.GSN = nil
	}
	bound.Lookup = nil
	return bound
}

// Ready reports whether the body carries its identifier.
func (c Candidate) Ready() bool {
	switch c.Kind {
	case KindPriceByGSN:
		return c.Body.GSN != nil
	case KindPriceByName:
		return c.Body.DrugName != ""
	}
	return false
}

// Resolver turns queries into ordered candidate requests.
type Resolver struct {
	baseURL     string
	versionPath string
	hqMapping   string
	paths       map[EndpointKind][]string
}

// NewResolver validates the base URL and returns a resolver.
func NewResolver(cfg Config) (*Resolver, error) {
	if cfg.VersionPath == "" {
		cfg.VersionPath = DefaultVersionPath
	}
	base, err := NormalizeBaseURL(cfg.BaseURL, cfg.VersionPath)
	if err != nil {
		return nil, err
	}
	if len(cfg.Paths[KindPriceByGSN]) == 0 && len(cfg.Paths[KindPriceByName]) == 0 {
		return nil, fmt.Errorf("price endpoints: %w", ErrNoPaths)
	}
	return &Resolver{
		baseURL:     base,
		versionPath: cleanSegment(cfg.VersionPath),
		hqMapping:   cfg.HQMappingName,
		paths:       cfg.Paths,
	}, nil
}

// BaseURL returns the normalized, versioned base URL.
func (r *Resolver) BaseURL() string {
	return r.baseURL
}

// BuildRequest returns the ordered list of price requests for a query.
//
// A GSN query tries every price-by-gsn path, then every price-by-name path
// behind a GSN-to-name lookup. A name query tries every price-by-name path,
// then every price-by-gsn path behind a name-to-GSN lookup.
func (r *Resolver) BuildRequest(query types.DrugQuery, loc *types.Location) ([]Candidate, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	body := PriceRequest{
		HQMappingName: r.hqMapping,
		Radius:        DefaultRadiusMiles,
	}
	if loc != nil {
		body.Latitude = loc.Latitude
		body.Longitude = loc.Longitude
		body.Radius = loc.RadiusMiles
	}
	if query.Quantity > 0 {
		q := query.Quantity
		body.Quantity = &q
	}

	var direct, viaLookup EndpointKind
	var lookup *Lookup
	if query.ByGSN() {
		g := query.GSN
		body.GSN = &g
		direct, viaLookup = KindPriceByGSN, KindPriceByName
		lookup = &Lookup{Kind: KindNamesList, Requests: r.NamesListRequests(query.GSN)}
	} else {
		body.DrugName = matching.DisplayDrugName(query.Name)
		direct, viaLookup = KindPriceByName, KindPriceByGSN
		lookup = &Lookup{Kind: KindGSNLookup, Requests: r.GSNLookupRequests(query.Name)}
	}

	candidates := make([]Candidate, 0, len(r.paths[direct])+len(r.paths[viaLookup]))
	for _, p := range r.paths[direct] {
		candidates = append(candidates, Candidate{
			Kind:   direct,
			Path:   p,
			Method: http.MethodPost,
			URL:    r.endpoint(p, nil),
			Body:   body,
		})
	}
	if len(lookup.Requests) > 0 {
		unbound := body
		unbound.GSN = nil
		unbound.DrugName = ""
		for _, p := range r.paths[viaLookup] {
			candidates = append(candidates, Candidate{
				Kind:   viaLookup,
				Path:   p,
				Method: http.MethodPost,
				URL:    r.endpoint(p, nil),
				Body:   unbound,
				Lookup: lookup,
			})
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%s: %w", direct, ErrNoPaths)
	}
	return candidates, nil
}

// NameSearchRequests builds the prefix search requests, in path order.
func (r *Resolver) NameSearchRequests(prefix string) []Request {
	return r.getRequests(KindNameSearch, url.Values{"prefix": {strings.TrimSpace(prefix)}})
}

// GSNLookupRequests builds the name-to-GSN lookups, in path order.
func (r *Resolver) GSNLookupRequests(name string) []Request {
	return r.getRequests(KindGSNLookup, url.Values{"drugName": {matching.DisplayDrugName(name)}})
}

// NamesListRequests builds the GSN-to-names lookups, in path order.
func (r *Resolver) NamesListRequests(gsn int) []Request {
	return r.getRequests(KindNamesList, url.Values{"gsn": {strconv.Itoa(gsn)}})
}

func (r *Resolver) getRequests(kind EndpointKind, query url.Values) []Request {
	paths := r.paths[kind]
	reqs := make([]Request, 0, len(paths))
	for _, p := range paths {
		reqs = append(reqs, Request{Kind: kind, Method: http.MethodGet, URL: r.endpoint(p, query)})
	}
	return reqs
}

// endpoint joins a configured path onto the base URL. A path that repeats the
// version segment the base already ends with has it stripped, since the
// doubled segment is served as a 404.
func (r *Resolver) endpoint(path string, query url.Values) string {
	p := "/" + strings.Trim(strings.TrimSpace(path), "/")
	if r.versionPath != "" && strings.HasSuffix(r.baseURL, r.versionPath) {
		if p == r.versionPath {
			p = ""
		} else {
			p = strings.TrimPrefix(p, r.versionPath+"/")
			if !strings.HasPrefix(p, "/") {
				p = "/" + p
			}
		}
	}
	u := r.baseURL + p
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// NormalizeBaseURL trims whitespace and trailing slashes from base and appends
// versionPath unless the base path already contains it.
func NormalizeBaseURL(base, versionPath string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", ErrEmptyBaseURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q needs an http(s) scheme and host", ErrInvalidBaseURL, base)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("%w: %q must not carry a query or fragment", ErrInvalidBaseURL, base)
	}

	path := strings.TrimRight(u.Path, "/")
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}

	vp := cleanSegment(versionPath)
	if vp != "" && !containsSegment(path, vp) {
		path += vp
	}

	u.Path = path
	u.RawPath = ""
	return u.String(), nil
}

// cleanSegment turns " pricing/v1/ " into "/pricing/v1"; blank becomes "".
func cleanSegment(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "/")
	if s == "" {
		return ""
	}
	return "/" + s
}

// containsSegment reports whether seg appears in path on segment boundaries,
// so "/pricing/v10" does not count as containing "/pricing/v1".
func containsSegment(path, seg string) bool {
	return strings.Contains(path+"/", seg+"/")
}
