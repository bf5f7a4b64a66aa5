package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/authclient/internal/client/models"
	"github.com/dmitrijs2005/authclient/internal/logging"
	"github.com/dmitrijs2005/authclient/internal/metrics"
)

// API endpoint paths.
const (
	EndpointRegister = "/auth/register"
	EndpointLogin    = "/auth/login"
	EndpointMe       = "/auth/me"
	EndpointProfile  = "/auth/profile"
	EndpointHealth   = "/health"
)

// ErrMalformedResponse is returned when a 2xx body does not carry what the
// endpoint promises.
var ErrMalformedResponse = errors.New("malformed response")

// Client is the authentication API as used by the session manager.
type Client interface {
	Register(ctx context.Context, data models.RegisterData) (*models.User, error)
	Login(ctx context.Context, data models.LoginData) (*models.TokenResponse, error)
	Me(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, upd models.UserUpdate) (*models.User, error)
	Ping(ctx context.Context) error
}

// RESTClient implements Client over a Transport.
type RESTClient struct {
	t *Transport
}

func NewRESTClient(t *Transport) *RESTClient {
	return &RESTClient{t: t}
}

// Store is the token slot the standard pipeline reads and clears.
type Store interface {
	TokenSource
	TokenClearer
}

// Settings configures New.
type Settings struct {
	BaseURL string
	Timeout time.Duration
	Store   Store
	Nav     Navigator
	Logger  logging.Logger
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// New builds a RESTClient with the standard pipeline:
//
//	request:  RequestID → BearerToken
//	response: LogExchange → ObserveExchange → ExpireOnUnauthorized
func New(s Settings) (*RESTClient, error) {
	after := []ResponseStage{LogExchange(s.Logger)}
	if s.Metrics != nil {
		after = append(after, ObserveExchange(s.Metrics))
	}
	after = append(after, ExpireOnUnauthorized(s.Store, s.Nav, s.Logger))

	t, err := NewTransport(s.BaseURL,
		WithTimeout(s.Timeout),
		WithRequestStages(RequestID(), BearerToken(s.Store)),
		WithResponseStages(after...),
	)
	if err != nil {
		return nil, err
	}
	return NewRESTClient(t), nil
}

// Register creates an account. It does not sign the user in.
func (c *RESTClient) Register(ctx context.Context, data models.RegisterData) (*models.User, error) {
	resp, err := c.t.Do(ctx, http.MethodPost, EndpointRegister, JSONBody(data))
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := resp.DecodeJSON(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login exchanges credentials, sent form-encoded, for an access token.
func (c *RESTClient) Login(ctx context.Context, data models.LoginData) (*models.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", data.Username)
	form.Set("password", data.Password)

	resp, err := c.t.Do(ctx, http.MethodPost, EndpointLogin, FormBody(form))
	if err != nil {
		return nil, err
	}
	var tr models.TokenResponse
	if err := resp.DecodeJSON(&tr); err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access_token", ErrMalformedResponse)
	}
	return &tr, nil
}

// Me fetches the profile of the token holder.
func (c *RESTClient) Me(ctx context.Context) (*models.User, error) {
	resp, err := c.t.Do(ctx, http.MethodGet, EndpointMe, nil)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := resp.DecodeJSON(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *RESTClient) UpdateProfile(ctx context.Context, upd models.UserUpdate) (*models.User, error) {
	resp, err := c.t.Do(ctx, http.MethodPut, EndpointProfile, JSONBody(upd))
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := resp.DecodeJSON(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Ping checks API liveness via the health endpoint.
func (c *RESTClient) Ping(ctx context.Context) error {
	resp, err := c.t.Do(ctx, http.MethodGet, EndpointHealth, nil)
	if err != nil {
		return err
	}
	var h struct {
		Status string `json:"status"`
	}
	if err := resp.DecodeJSON(&h); err != nil {
		return err
	}
	if h.Status != "healthy" {
		return fmt.Errorf("%w: health status %q", ErrUnavailable, h.Status)
	}
	return nil
}
