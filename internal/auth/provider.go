package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	httpclient "github.com/rxcompare/price-service/internal/http"
	"github.com/rxcompare/price-service/internal/types"
)

// SafetyMargin is how long before expiry a cached token stops being handed out.
const SafetyMargin = 5 * time.Minute

// defaultLifetime applies when the token endpoint omits expires_in.
const defaultLifetime = time.Hour

// maxLifetime caps what the token endpoint can claim.
const maxLifetime = 24 * time.Hour

var tokenExchanges = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rxprice_token_exchanges_total",
		Help: "Client-credentials token exchanges by result",
	},
	[]string{"result"},
)

// Config holds the client-credentials grant settings
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	// Timeout bounds a single exchange, independent of any caller's deadline.
	Timeout time.Duration
}

// TokenSource hands out bearer tokens for the upstream API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Status is a snapshot of the token cache, safe to expose to operators.
type Status struct {
	Cached    bool      `json:"cached"`
	Valid     bool      `json:"valid"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

type authToken struct {
	value     string
	expiresAt time.Time
}

type tokenResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   json.RawMessage `json:"expires_in"`
	TokenType   string          `json:"token_type"`
}

// Provider caches one bearer token and refreshes it with a single in-flight
// exchange shared by all concurrent callers.
type Provider struct {
	cfg    Config
	client *httpclient.Client
	logger zerolog.Logger

	mu    sync.RWMutex
	token *authToken

	group singleflight.Group
	now   func() time.Time
}

// NewProvider creates a provider. A nil logger disables logging.
func NewProvider(cfg Config, client *httpclient.Client, logger *zerolog.Logger) *Provider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "auth").Logger()
	}
	return &Provider{
		cfg:    cfg,
		client: client,
		logger: l,
		now:    time.Now,
	}
}

// Token returns a bearer token valid for at least SafetyMargin.
func (p *Provider) Token(ctx context.Context) (string, error) {
	if err := p.checkCredentials(); err != nil {
		return "", err
	}

	if v, ok := p.cached(); ok {
		return v, nil
	}

	ch := p.group.DoChan("token", func() (any, error) {
		// A flight that finished just before this one started may have
		// refreshed the cache already.
		if v, ok := p.cached(); ok {
			return v, nil
		}
		// The exchange outlives any single caller so that one abandoned
		// request cannot fail the others waiting on it.
		exCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.Timeout)
		defer cancel()
		return p.exchange(exCtx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token, forcing the next Token call to exchange.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.token = nil
	p.mu.Unlock()
	p.logger.Debug().Msg("token invalidated")
}

// Status reports the cache state without triggering an exchange.
func (p *Provider) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.token == nil {
		return Status{}
	}
	return Status{
		Cached:    true,
		Valid:     p.now().Before(p.token.expiresAt.Add(-SafetyMargin)),
		ExpiresAt: p.token.expiresAt,
	}
}

func (p *Provider) cached() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.token == nil {
		return "", false
	}
	if !p.now().Before(p.token.expiresAt.Add(-SafetyMargin)) {
		return "", false
	}
	return p.token.value, true
}

func (p *Provider) checkCredentials() error {
	var missing []string
	if strings.TrimSpace(p.cfg.TokenURL) == "" {
		missing = append(missing, "token URL")
	}
	if strings.TrimSpace(p.cfg.ClientID) == "" {
		missing = append(missing, "client id")
	}
	if strings.TrimSpace(p.cfg.ClientSecret) == "" {
		missing = append(missing, "client secret")
	}
	if len(missing) > 0 {
		return &types.AuthError{Reason: "missing credentials: " + strings.Join(missing, ", ")}
	}
	return nil
}

func (p *Provider) exchange(ctx context.Context) (string, error) {
	form := map[string][]string{
		"grant_type":    {"client_credentials"},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
	}
	if p.cfg.Scope != "" {
		form["scope"] = []string{p.cfg.Scope}
	}

	start := p.now()
	body, err := p.client.PostForm(ctx, p.cfg.TokenURL, form)
	if err != nil {
		tokenExchanges.WithLabelValues("error").Inc()
		reason := "token request failed"
		var se *httpclient.StatusError
		if errors.As(err, &se) {
			reason = fmt.Sprintf("token endpoint rejected request (HTTP %d)", se.StatusCode)
		}
		p.logger.Warn().Err(err).Msg("token exchange failed")
		return "", &types.AuthError{Reason: reason, Err: err}
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		tokenExchanges.WithLabelValues("error").Inc()
		return "", &types.AuthError{Reason: "malformed token response", Err: err}
	}
	if resp.AccessToken == "" {
		tokenExchanges.WithLabelValues("error").Inc()
		return "", &types.AuthError{Reason: "token response has no access_token"}
	}

	lifetime := parseExpiresIn(resp.ExpiresIn)
	tok := &authToken{value: resp.AccessToken, expiresAt: start.Add(lifetime)}

	p.mu.Lock()
	p.token = tok
	p.mu.Unlock()

	tokenExchanges.WithLabelValues("success").Inc()
	p.logger.Debug().
		Str("token_type", resp.TokenType).
		Time("expires_at", tok.expiresAt).
		Msg("token refreshed")

	return tok.value, nil
}

// parseExpiresIn accepts seconds as a JSON number or numeric string,
// capped at maxLifetime.
func parseExpiresIn(raw json.RawMessage) time.Duration {
	if len(raw) == 0 {
		return defaultLifetime
	}
	secs, err := json.Number(strings.Trim(string(raw), `"`)).Float64()
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) || secs <= 0 {
		return defaultLifetime
	}
	if secs >= maxLifetime.Seconds() {
		return maxLifetime
	}
	return time.Duration(secs * float64(time.Second))
}
