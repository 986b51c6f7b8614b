// Package pipeline is the single HTTP transport between the dashboard and its backend.
//
// Every call is classified against a route table. Customer calls get the stored customer
// session merged into the payload; admin calls carry whatever the caller supplied; public
// calls go out bare. A 401 response is handed to the Invalidator for its session side effect
// and still returned to the caller as an error.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/recharge-dashboard/credentials"
	apperrors "github.com/jrsteele09/recharge-dashboard/internal/errors"
	"github.com/jrsteele09/recharge-dashboard/internal/logging"
	"github.com/jrsteele09/recharge-dashboard/internal/metrics"
	"github.com/jrsteele09/recharge-dashboard/internal/utils"
	"github.com/rs/zerolog"
)

// DefaultTimeout applies to every request.
const DefaultTimeout = 30 * time.Second

// Injected field names.
const (
	FieldLoginKey = "login_key"
	FieldUserID   = "user_id"
)

const HeaderRequestID = "X-Request-ID"

// StatusError is a non-2xx backend response.
type StatusError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %d %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets callers match a 401 against ErrUnauthorized and a 404 against ErrNotFound.
func (e *StatusError) Is(target error) bool {
	switch target {
	case apperrors.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case apperrors.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. hc is copied and the copy gets the
// client timeout, so hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithRoutes(r *Routes) Option {
	return func(c *Client) { c.routes = r }
}

func WithMetrics(m *metrics.Pipeline) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client sends JSON requests to the backend.
type Client struct {
	baseURL     string
	http        *http.Client
	timeout     time.Duration
	routes      *Routes
	store       *credentials.Store
	invalidator *Invalidator
	metrics     *metrics.Pipeline
	logger      zerolog.Logger
}

// NewClient creates a client for the backend at baseURL. invalidator may be nil, in which
// case 401 responses have no side effects.
func NewClient(baseURL string, store *credentials.Store, invalidator *Invalidator, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{},
		timeout:     DefaultTimeout,
		routes:      DefaultRoutes(),
		store:       store,
		invalidator: invalidator,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	hc := *c.http
	hc.Timeout = c.timeout
	c.http = &hc
	c.logger = logging.Component(c.logger, "pipeline")
	return c
}

// Post sends in as a JSON body and decodes the response into out. Either may be nil.
func (c *Client) Post(ctx context.Context, endpoint string, in, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, in, nil, out)
}

// Put is Post with the PUT method.
func (c *Client) Put(ctx context.Context, endpoint string, in, out any) error {
	return c.do(ctx, http.MethodPut, endpoint, in, nil, out)
}

// Get sends query as the URL query string and decodes the response into out.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, query, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, in any, query url.Values, out any) error {
	route := c.routes.Classify(endpoint)
	tenant := route.Tenant.String()
	log := c.logger.With().
		Str("method", method).
		Str("endpoint", route.Path).
		Str("category", route.Category.String()).
		Logger()

	query, err := requestQuery(endpoint, query)
	if err != nil {
		return apperrors.Wrapf(err, "parsing query for %s", route.Path)
	}

	var body io.Reader
	if method == http.MethodGet {
		if route.Inject() && c.injectQuery(route, query) {
			c.metrics.ObserveInjection(tenant)
		}
	} else {
		payload, injected, err := c.encodeBody(route, in)
		if err != nil {
			return apperrors.Wrapf(err, "encoding request for %s", route.Path)
		}
		if injected {
			c.metrics.ObserveInjection(tenant)
		}
		if payload != nil {
			body = bytes.NewReader(payload)
		}
	}

	target := c.baseURL + route.Path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return apperrors.Wrapf(err, "building request for %s", route.Path)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	log = log.With().Str("request_id", requestID).Logger()

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.metrics.ObserveRequest(tenant, route.Category.String(), "timeout")
			log.Warn().Err(err).Msg("request timed out")
			return fmt.Errorf("%s: %w: %v", route.Path, apperrors.ErrTimeout, err)
		}
		c.metrics.ObserveRequest(tenant, route.Category.String(), "transport_error")
		log.Warn().Err(err).Msg("request failed")
		return fmt.Errorf("%s: %w: %v", route.Path, apperrors.ErrTransport, err)
	}
	defer resp.Body.Close()

	c.metrics.ObserveRequest(tenant, route.Category.String(), strconv.Itoa(resp.StatusCode))
	log.Debug().Int("status", resp.StatusCode).Msg("response received")

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %w: reading body: %v", route.Path, apperrors.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Endpoint:   route.Path,
			Message:    backendMessage(data),
		}
		if resp.StatusCode == http.StatusUnauthorized && c.invalidator != nil {
			outcome := c.invalidator.HandleUnauthorized(route.Tenant)
			log.Info().Str("outcome", outcome.String()).Msg("authorization failure")
		}
		return statusErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Wrapf(err, "decoding response from %s", route.Path)
	}
	return nil
}

// encodeBody marshals in and, for injecting routes, merges the stored customer session into
// it without overwriting fields the caller set. Non-object payloads are sent unchanged.
func (c *Client) encodeBody(route Route, in any) (payload []byte, injected bool, err error) {
	if !route.Inject() {
		if in == nil {
			return nil, false, nil
		}
		payload, err = json.Marshal(in)
		return payload, false, err
	}

	fields := map[string]any{}
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, false, err
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			c.logger.Debug().Str("endpoint", route.Path).Msg("payload is not a JSON object, skipping credential injection")
			return raw, false, nil
		}
		if fields == nil {
			fields = map[string]any{}
		}
	}

	creds := c.store.Get(route.Tenant)
	if creds.Token != nil {
		if _, set := fields[FieldLoginKey]; !set {
			fields[FieldLoginKey] = *creds.Token
			injected = true
		}
	}
	if creds.PrincipalID != nil {
		if _, set := fields[FieldUserID]; !set {
			fields[FieldUserID] = *creds.PrincipalID
			injected = true
		}
	}

	payload, err = json.Marshal(fields)
	return payload, injected, err
}

func (c *Client) injectQuery(route Route, query url.Values) (injected bool) {
	creds := c.store.Get(route.Tenant)
	if creds.Token != nil && !query.Has(FieldLoginKey) {
		query.Set(FieldLoginKey, *creds.Token)
		injected = true
	}
	if creds.PrincipalID != nil && !query.Has(FieldUserID) {
		query.Set(FieldUserID, utils.FormatID(*creds.PrincipalID))
		injected = true
	}
	return injected
}

// requestQuery merges any query string embedded in endpoint with query into a fresh set of
// values. Values in query replace embedded ones with the same key.
func requestQuery(endpoint string, query url.Values) (url.Values, error) {
	merged := url.Values{}
	if _, raw, ok := strings.Cut(endpoint, "?"); ok {
		raw, _, _ = strings.Cut(raw, "#")
		embedded, err := url.ParseQuery(raw)
		if err != nil {
			return nil, err
		}
		for key, values := range embedded {
			merged[key] = values
		}
	}
	for key, values := range query {
		merged[key] = append([]string(nil), values...)
	}
	return merged, nil
}

func backendMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func isTimeout(err error) bool {
	if apperrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return apperrors.As(err, &netErr) && netErr.Timeout()
}
