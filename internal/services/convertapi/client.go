package convertapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pixbatch/internal/config"
	"pixbatch/internal/services"
	"pixbatch/internal/transform"
)

const (
	component = "convertapi"

	defaultTimeout        = 120 * time.Second
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryMaxDelay  = 5 * time.Second
	maxErrorBody          = 64 << 10
)

// Version is reported in the User-Agent header.
var Version = "dev"

// HTTPDoer describes the HTTP client used to reach the service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client converts sources through the remote service.
type Client struct {
	endpoint  string
	apiKey    string
	userAgent string
	timeout   time.Duration
	http      HTTPDoer

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithAPIKey sets the X-API-Key header sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent = strings.TrimSpace(agent); agent != "" {
			c.userAgent = agent
		}
	}
}

// WithTimeout bounds each request. Zero or negative disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetryMaxAttempts sets how many times a transient failure is attempted
// in total (defaults to 1, no retry).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// New constructs a client for endpoint.
func New(endpoint string, opts ...Option) *Client {
	client := &Client{
		endpoint:         strings.TrimSpace(endpoint),
		userAgent:        "pixbatch/" + Version,
		timeout:          defaultTimeout,
		http:             http.DefaultClient,
		retryMaxAttempts: 1,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// NewFromConfig constructs a client from the conversion section of cfg.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	if cfg == nil {
		return New(config.DefaultEndpoint, opts...)
	}
	base := []Option{
		WithAPIKey(cfg.Conversion.APIKey),
		WithTimeout(cfg.ConversionTimeout()),
	}
	return New(cfg.Conversion.Endpoint, append(base, opts...)...)
}

// Endpoint reports the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Convert posts req to the service and returns the converted bytes.
func (c *Client) Convert(ctx context.Context, req transform.Request) ([]byte, error) {
	if c.endpoint == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "convert", "conversion endpoint not configured", nil)
	}
	if len(req.Content) == 0 {
		return nil, services.Wrap(services.ErrValidation, component, "convert", "source is empty", nil)
	}
	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, component, "encode form", "could not encode request", err)
	}

	attempts := c.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		data, err := c.send(ctx, body, contentType)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if attempt == attempts || !retryable(ctx, err) {
			break
		}
		if err := c.sleep(ctx, c.backoffDelay(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) send(ctx context.Context, body []byte, contentType string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "build request", "invalid conversion endpoint", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, services.Wrap(services.ErrTimeout, component, "convert",
				fmt.Sprintf("conversion timed out after %s", c.timeout), err)
		}
		return nil, services.Wrap(services.ErrTransient, component, "convert", "conversion service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "read response", "conversion response interrupted", err)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, component, "convert", "conversion service returned no data", nil)
	}
	return data, nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload errorBody
	_ = json.Unmarshal(raw, &payload)

	message := strings.TrimSpace(payload.Error)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	if message == "" {
		message = fmt.Sprintf("http %d", resp.StatusCode)
	}

	var marker error
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		marker = services.ErrValidation
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError && payload.Code == "":
		marker = services.ErrTransient
	default:
		marker = services.ErrExternalTool
	}

	code := strings.TrimSpace(payload.Code)
	return &services.ServiceError{
		Marker:    marker,
		Component: component,
		Operation: "convert",
		Message:   message,
		Code:      code,
		Cause: &StatusError{
			StatusCode: resp.StatusCode,
			Code:       code,
			Body:       strings.TrimSpace(string(raw)),
		},
	}
}

// StatusError is the raw non-2xx response of the service.
type StatusError struct {
	StatusCode int
	Code       string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d (%s)", e.StatusCode, e.Code)
	}
	return "http " + strconv.Itoa(e.StatusCode)
}

func encodeForm(req transform.Request) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "image"
	}
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("format", string(req.Format)); err != nil {
		return nil, "", err
	}
	for _, field := range req.Options.Fields() {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return errors.Is(err, services.ErrTransient) || errors.Is(err, services.ErrTimeout)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.retryBaseDelay
	if delay <= 0 {
		return 0
	}
	for i := 1; i < attempt; i++ {
		if c.retryMaxDelay > 0 && delay > c.retryMaxDelay/2 {
			return c.retryMaxDelay
		}
		delay *= 2
	}
	if c.retryMaxDelay > 0 && delay > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
