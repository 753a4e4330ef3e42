// Package gateway is the single path for HTTP traffic to the tour service.
// It attaches the current credential to every request and classifies every
// result before a caller sees it.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trekkers/tour-client/internal/core/domain"
	"github.com/trekkers/tour-client/internal/core/ports"
	"github.com/trekkers/tour-client/internal/pkg/metrics"
	"github.com/trekkers/tour-client/pkg/logger"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
	headerRequest  = "X-Request-ID"
)

// Config captures how to reach the tour service.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Option customises a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default client. Its Timeout is left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// Gateway sends requests to the tour service.
type Gateway struct {
	baseURL string
	client  *http.Client
	store   ports.CredentialStore
	log     zerolog.Logger

	mu        sync.RWMutex
	onAuthErr ports.AuthFailureHandler
}

// New builds a Gateway that reads the credential from store at request
// construction time.
func New(cfg Config, store ports.CredentialStore, log zerolog.Logger, opts ...Option) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	g := &Gateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		store:   store,
		log:     log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetAuthFailureHandler routes 401s to h. Without a handler the gateway
// purges the rejected credential from the store itself.
func (g *Gateway) SetAuthFailureHandler(h ports.AuthFailureHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onAuthErr = h
}

// Do sends body (JSON encoded, may be nil) and decodes a 2xx response into
// out (may be nil). Every non-nil error is a *domain.Failure.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &domain.Failure{Kind: domain.ValidationFailure, Message: "request body could not be encoded", Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return &domain.Failure{Kind: domain.ValidationFailure, Message: "request could not be built", Err: err}
	}

	// The token is read here and nowhere else, so attachment is a function
	// of the store's value at this instant.
	token := g.store.Get()
	if !token.IsZero() {
		req.Header.Set("Authorization", "Bearer "+string(token))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set(headerRequest, reqID)

	start := time.Now()
	f := g.roundTrip(ctx, req, out)
	elapsed := time.Since(start)

	outcome := "ok"
	if f != nil {
		outcome = string(f.Kind)
	}
	metrics.GatewayRequestsTotal.WithLabelValues(method, outcome).Inc()
	metrics.GatewayRequestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())

	ev := g.log.Debug()
	if f != nil && f.Kind != domain.ValidationFailure && f.Kind != domain.ConflictFailure {
		ev = g.log.Warn()
	}
	ev.Str("request_id", reqID).
		Str("method", method).
		Str("path", path).
		Str("outcome", outcome).
		Bool("authenticated", !token.IsZero()).
		Dur("elapsed", elapsed).
		Msg("api call")

	if f != nil && f.Kind == domain.AuthFailure {
		g.authFailed(token)
	}
	if f != nil {
		return f
	}
	return nil
}

func (g *Gateway) roundTrip(ctx context.Context, req *http.Request, out any) *domain.Failure {
	resp, err := g.client.Do(req)
	if err != nil {
		return transportFailure(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return transportFailure(ctx, err)
	}

	if f := classify(resp.StatusCode, raw); f != nil {
		return f
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.Failure{Kind: domain.ServerFailure, Status: resp.StatusCode, Message: "invalid response from server", Err: err}
	}
	return nil
}

// authFailed purges token globally. It runs for every 401 regardless of
// which caller sent the request; the handler decides whether the token is
// still the live one.
func (g *Gateway) authFailed(token domain.Credential) {
	g.mu.RLock()
	h := g.onAuthErr
	g.mu.RUnlock()

	if h != nil {
		h.HandleAuthFailure(token)
		return
	}
	cleared, err := g.store.CompareAndClear(token)
	if err != nil {
		g.log.Error().Err(err).Msg("failed to purge rejected credential")
		return
	}
	if cleared {
		metrics.GatewayAuthPurgesTotal.Inc()
		g.log.Info().Str("token", logger.Redact(string(token))).Msg("rejected credential purged")
	}
}

// transportFailure maps errors raised before a status line was read.
func transportFailure(ctx context.Context, err error) *domain.Failure {
	msg := "cannot reach the tour service"
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		msg = "request canceled"
	case errors.Is(ctx.Err(), context.DeadlineExceeded), isTimeout(err):
		msg = "request timed out"
	}
	return &domain.Failure{Kind: domain.NetworkFailure, Message: msg, Err: err}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

