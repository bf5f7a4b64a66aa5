package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/authclient/internal/client/router"
	"github.com/dmitrijs2005/authclient/internal/common"
	"github.com/dmitrijs2005/authclient/internal/logging"
	"github.com/dmitrijs2005/authclient/internal/metrics"
	"github.com/google/uuid"
)

// TokenSource yields the bearer token to attach, "" for none.
type TokenSource interface {
	Get(ctx context.Context) (string, error)
}

// TokenClearer drops the persisted token.
type TokenClearer interface {
	Clear(ctx context.Context) error
}

// Navigator performs a hard navigation that discards in-progress view state.
type Navigator interface {
	Redirect(path string)
}

// BearerToken attaches the stored token as a bearer credential. The token
// is read once per request; when none is stored the request goes out
// unauthenticated.
func BearerToken(src TokenSource) RequestStage {
	return func(req *http.Request) error {
		token, err := src.Get(req.Context())
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		if token != "" {
			req.Header.Set(common.AuthorizationHeader, common.BearerScheme+" "+token)
		}
		return nil
	}
}

// RequestID tags each request with a fresh X-Request-ID.
func RequestID() RequestStage {
	return func(req *http.Request) error {
		req.Header.Set(common.RequestIDHeader, uuid.NewString())
		return nil
	}
}

// ExpireOnUnauthorized reacts to a 401 from any endpoint: it clears the
// stored token and forces navigation to the login view. The original error
// is still returned so the caller can tell a rejected login from success.
func ExpireOnUnauthorized(store TokenClearer, nav Navigator, logger logging.Logger) ResponseStage {
	return func(ex *Exchange) error {
		if !errors.Is(ex.Err, ErrUnauthorized) {
			return ex.Err
		}

		ctx := context.WithoutCancel(ex.Request.Context())
		if err := store.Clear(ctx); err != nil {
			logger.Error(ctx, "failed to clear token after 401", "error", err)
		}
		logger.Info(ctx, "authorization rejected, redirecting to login", "path", ex.Request.URL.Path)
		nav.Redirect(router.LoginPath)

		return ex.Err
	}
}

// LogExchange writes one debug line per exchange. Request and response
// bodies are never logged: they carry credentials and tokens.
func LogExchange(logger logging.Logger) ResponseStage {
	return func(ex *Exchange) error {
		ctx := ex.Request.Context()
		args := []any{
			"method", ex.Request.Method,
			"path", ex.Request.URL.Path,
			"request_id", ex.Request.Header.Get(common.RequestIDHeader),
			"elapsed", ex.Elapsed,
		}
		if ex.Response != nil {
			args = append(args, "status", ex.Response.StatusCode)
		}
		if ex.Err != nil && ex.Response == nil {
			logger.Warn(ctx, "api request failed", append(args, "error", ex.Err)...)
			return ex.Err
		}
		logger.Debug(ctx, "api exchange", args...)
		return ex.Err
	}
}

// ObserveExchange records request duration and 401s.
func ObserveExchange(m *metrics.Metrics) ResponseStage {
	return func(ex *Exchange) error {
		status := 0
		if ex.Response != nil {
			status = ex.Response.StatusCode
		}
		endpoint := ex.Request.URL.Path
		m.ObserveRequest(ex.Request.Method, endpoint, status, ex.Elapsed)
		if status == http.StatusUnauthorized {
			m.Unauthorized.WithLabelValues(endpoint).Inc()
		}
		return ex.Err
	}
}
