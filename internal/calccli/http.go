package calccli

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/okian/endolimit/internal/adapters/report"
	service "github.com/okian/endolimit/internal/app"
	"github.com/okian/endolimit/internal/domain/limit"
	"github.com/okian/endolimit/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// readingsRequest is the body of POST /api/v1/readings/evaluate and /api/v1/report.
type readingsRequest struct {
	service.ScenarioInput
	Sample   string                 `json:"sample,omitempty"`
	Readings []service.ReadingInput `json:"readings,omitempty"`
}

// maxSafeDoseRequest is the body of POST /api/v1/max-safe-dose.
type maxSafeDoseRequest struct {
	service.ScenarioInput
	Observed float64 `json:"observed"`
}

// APIError is an error response returned by the server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap maps the response code back to the engine's sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "invalid_input":
		return limit.ErrInvalidInput
	case "unit_mismatch":
		return limit.ErrUnitMismatch
	default:
		return nil
	}
}

// ClientOption customizes NewClient.
type ClientOption func(*resty.Client)

// WithRetry sets how often and how long to wait before retrying a failed request.
func WithRetry(count int, wait time.Duration) ClientOption {
	return func(c *resty.Client) {
		c.SetRetryCount(count).SetRetryWaitTime(wait).SetRetryMaxWaitTime(wait)
	}
}

// Client talks to an endolimit server over its JSON API.
type Client struct {
	http *resty.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(defaultRetryCount).
		SetRetryWaitTime(defaultRetryWait).
		SetRetryMaxWaitTime(defaultRetryMaxWait).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(c)
	}
	return &Client{http: c}
}

// Health checks that the server answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).SetHeader("Accept", "text/plain").Get("/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("server health check failed with status: %d", resp.StatusCode())
	}
	return nil
}

// ComputeLimit calls POST /api/v1/limit.
func (c *Client) ComputeLimit(ctx context.Context, in service.ScenarioInput) (service.LimitReport, error) {
	var out service.LimitReport
	err := c.post(ctx, "/api/v1/limit", in, &out)
	return out, err
}

// EvaluateReadings calls POST /api/v1/readings/evaluate.
func (c *Client) EvaluateReadings(ctx context.Context, in service.ScenarioInput, readings []service.ReadingInput) (service.BatchReport, error) {
	var out service.BatchReport
	err := c.post(ctx, "/api/v1/readings/evaluate", readingsRequest{ScenarioInput: in, Readings: readings}, &out)
	return out, err
}

// MaxSafeDose calls POST /api/v1/max-safe-dose.
func (c *Client) MaxSafeDose(ctx context.Context, in service.ScenarioInput, observed float64) (service.SafeDoseReport, error) {
	var out service.SafeDoseReport
	err := c.post(ctx, "/api/v1/max-safe-dose", maxSafeDoseRequest{ScenarioInput: in, Observed: observed}, &out)
	return out, err
}

// Report calls POST /api/v1/report and returns the downloaded workbook.
func (c *Client) Report(ctx context.Context, sample string, in service.ScenarioInput, readings []service.ReadingInput) (*report.Report, error) {
	const path = "/api/v1/report"
	var apiErr APIError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", xlsxContentType).
		SetBody(readingsRequest{ScenarioInput: in, Sample: sample, Readings: readings}).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, responseError(resp, &apiErr)
	}

	name := ""
	if _, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	now := time.Now().UTC()
	if name == "" {
		name = report.FileName(sample, now)
	}
	logger.Get().Debug(ctx, "downloaded report",
		logger.String("reportID", resp.Header().Get("X-Report-ID")),
		logger.Int("bytes", len(resp.Body())))
	return &report.Report{
		ID:          resp.Header().Get("X-Report-ID"),
		FileName:    name,
		GeneratedAt: now,
		Data:        resp.Body(),
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	var apiErr APIError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	logger.Get().Debug(ctx, "server responded",
		logger.String("path", path),
		logger.Int("status", resp.StatusCode()),
		logger.String("duration", resp.Time().String()))
	if resp.IsError() {
		return responseError(resp, &apiErr)
	}
	return nil
}

// responseError fills in what the error body left out.
func responseError(resp *resty.Response, apiErr *APIError) error {
	apiErr.Status = resp.StatusCode()
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(resp.String())
	}
	return apiErr
}
