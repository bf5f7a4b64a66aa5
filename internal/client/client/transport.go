package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodySize caps how much of a response body is buffered.
const maxBodySize = 1 << 20

// Body is an encodable request payload.
type Body interface {
	ContentType() string
	Encode() (io.Reader, error)
}

type jsonBody struct{ v any }

// JSONBody encodes v as application/json.
func JSONBody(v any) Body { return jsonBody{v: v} }

func (jsonBody) ContentType() string { return "application/json" }

func (b jsonBody) Encode() (io.Reader, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, fmt.Errorf("encode json body: %w", err)
	}
	return bytes.NewReader(data), nil
}

type formBody struct{ v url.Values }

// FormBody encodes v as application/x-www-form-urlencoded.
func FormBody(v url.Values) Body { return formBody{v: v} }

func (formBody) ContentType() string { return "application/x-www-form-urlencoded" }

func (b formBody) Encode() (io.Reader, error) {
	return strings.NewReader(b.v.Encode()), nil
}

// Response is a fully buffered API response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Exchange is what response stages see: the decorated request, the
// response if one arrived, and the error that will be returned to the caller.
type Exchange struct {
	Request  *http.Request
	Response *Response
	Err      error
	Elapsed  time.Duration
}

// RequestStage decorates an outbound request. A non-nil error aborts the
// call before anything is sent.
type RequestStage func(req *http.Request) error

// ResponseStage observes or reacts to a completed exchange and returns the
// error to propagate; stages that only observe return ex.Err unchanged.
type ResponseStage func(ex *Exchange) error

// Transport issues requests against one base URL through an ordered stage
// pipeline. The pipeline is fixed at construction: individual calls cannot
// skip it.
type Transport struct {
	base       *url.URL
	httpClient *http.Client
	before     []RequestStage
	after      []ResponseStage
}

type Option func(*Transport)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		t.httpClient = c
	}
}

// WithTimeout bounds every request, including reading the response body.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.httpClient.Timeout = d
		}
	}
}

// WithRequestStages appends request stages; they run in the given order.
func WithRequestStages(stages ...RequestStage) Option {
	return func(t *Transport) {
		t.before = append(t.before, stages...)
	}
}

// WithResponseStages appends response stages; they run in the given order.
func WithResponseStages(stages ...ResponseStage) Option {
	return func(t *Transport) {
		t.after = append(t.after, stages...)
	}
}

func NewTransport(baseURL string, opts ...Option) (*Transport, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: missing host", baseURL)
	}

	t := &Transport{base: u, httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// BaseURL returns the address requests are issued against.
func (t *Transport) BaseURL() string {
	return t.base.String()
}

// Do sends one request through the pipeline. On failure the returned error
// matches ErrUnavailable (no response) or is an *APIError (non-2xx).
func (t *Transport) Do(ctx context.Context, method, path string, body Body) (*Response, error) {
	req, err := t.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	for _, stage := range t.before {
		if err := stage(req); err != nil {
			return nil, err
		}
	}

	ex := &Exchange{Request: req}
	start := time.Now()
	ex.Response, ex.Err = t.roundTrip(req)
	ex.Elapsed = time.Since(start)

	for _, stage := range t.after {
		ex.Err = stage(ex)
	}
	return ex.Response, ex.Err
}

func (t *Transport) newRequest(ctx context.Context, method, path string, body Body) (*http.Request, error) {
	var (
		payload     io.Reader
		contentType string
	)
	if body != nil {
		r, err := body.Encode()
		if err != nil {
			return nil, err
		}
		payload, contentType = r, body.ContentType()
	}

	req, err := http.NewRequestWithContext(ctx, method, t.base.JoinPath(path).String(), payload)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (t *Transport) roundTrip(req *http.Request) (*Response, error) {
	httpResp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, req.Method, req.URL.Path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrUnavailable, req.URL.Path, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
		Body:       data,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, newAPIError(resp)
	}
	return resp, nil
}
