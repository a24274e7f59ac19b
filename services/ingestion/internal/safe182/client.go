package safe182

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL  = "https://www.safe182.go.kr/api/lcm/findChildList.do"
	photoURLPattern = "https://www.safe182.go.kr/api/lcm/imgView.do?msspsnIdntfccd=%s"
	DefaultRowSize  = 100
)

// DefaultTargetCodes is the fixed category filter sent on every request.
var DefaultTargetCodes = []string{"010", "020", "040", "060", "061", "062", "070", "080"}

// PhotoURL builds the public photo URL for an upstream unique code.
func PhotoURL(code string) string {
	return fmt.Sprintf(photoURLPattern, url.QueryEscape(code))
}

// ClientConfig holds credentials and transport tuning.
type ClientConfig struct {
	EsntlID        string
	AuthKey        string
	RowSize        int
	TargetCodes    []string
	UserAgent      string
	MaxRetries     int
	RetryBaseDelay time.Duration
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Config     ClientConfig
	CB         *gobreaker.CircuitBreaker
	Log        *zap.Logger
}

// Option configures the Client.
type Option func(*Client)

func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Client) { c.CB = cb }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.Log = log }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

func New(baseURL string, cfg ClientConfig, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cfg.RowSize <= 0 {
		cfg.RowSize = DefaultRowSize
	}
	if len(cfg.TargetCodes) == 0 {
		cfg.TargetCodes = DefaultTargetCodes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "findme-platform-ingestion/1.0"
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Config:     cfg,
		Log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewBreaker returns the breaker settings used in production: open after
// five consecutive failures, half-open after a minute.
func NewBreaker(name string, log *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 5 },
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
}

func (c *Client) RowSize() int { return c.Config.RowSize }

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("safe182: status %d body=%q", e.Status, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// FetchPage posts the search form for one page. A non-"00" result code is
// not an error at this layer; callers inspect Response.Result.
func (c *Client) FetchPage(ctx context.Context, page int) (*Response, error) {
	if page <= 0 {
		return nil, errors.New("safe182: page must be >= 1")
	}
	form := c.form(page)
	if c.CB == nil {
		return c.postWithRetry(ctx, form)
	}
	out, err := c.CB.Execute(func() (interface{}, error) {
		return c.postWithRetry(ctx, form)
	})
	if err != nil {
		return nil, err
	}
	return out.(*Response), nil
}

func (c *Client) form(page int) url.Values {
	v := url.Values{}
	v.Set("esntlId", c.Config.EsntlID)
	v.Set("authKey", c.Config.AuthKey)
	v.Set("rowSize", strconv.Itoa(c.Config.RowSize))
	v.Set("page", strconv.Itoa(page))
	for _, code := range c.Config.TargetCodes {
		v.Add("writngTrgetDscds", code)
	}
	return v
}

func (c *Client) postWithRetry(ctx context.Context, form url.Values) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.Config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.Config.RetryBaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			c.Log.Debug("retrying safe182 request", zap.String("page", form.Get("page")), zap.Int("attempt", attempt), zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		out, err := c.post(ctx, form)
		if err == nil {
			return out, nil
		}
		lastErr = err
		c.Log.Warn("safe182 request failed", zap.String("page", form.Get("page")), zap.Int("attempt", attempt), zap.Error(err))
		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			break
		}
		if errors.Is(err, errDecode) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

var errDecode = errors.New("safe182: decode error")

func (c *Client) post(ctx context.Context, form url.Values) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.Config.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(b[:min(len(b), 200)])}
	}
	var out Response
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %v body=%q", errDecode, err, string(b[:min(len(b), 200)]))
	}
	return &out, nil
}
