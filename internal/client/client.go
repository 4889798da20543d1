// Package client is a typed HTTP client for the logbook API together with the
// caller-owned ResultCache it feeds.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/drjagan/e-logbook/internal/api"
	"github.com/drjagan/e-logbook/internal/domain"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status int
	Type   string
	Detail string
	Field  string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%d): %s [%s]", e.Type, e.Status, e.Detail, e.Field)
	}
	return fmt.Sprintf("%s (%d): %s", e.Type, e.Status, e.Detail)
}

// Unwrap maps 404 responses onto domain.ErrActivityNotFound.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return domain.ErrActivityNotFound
	}
	return nil
}

// ListParams are the optional filters of a list request. Dates are sent as given.
type ListParams struct {
	Type      string
	StartDate string
	EndDate   string
	Page      int
	Limit     int
}

// ActivityFields is the body of create and partial update requests.
type ActivityFields struct {
	Title        *string `json:"title,omitempty"`
	Type         *string `json:"type,omitempty"`
	Report       *string `json:"report,omitempty"`
	ActivityDate *string `json:"activityDate,omitempty"`
}

// Client calls the logbook API with a bearer token.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// New creates a Client for baseURL.
func New(baseURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetAuthToken(token).
		SetHeader("Accept", "application/json")
	return &Client{http: httpClient, logger: logger}
}

type activityEnvelope struct {
	Data api.ActivityView `json:"data"`
}

type statsEnvelope struct {
	Data api.StatsView `json:"data"`
}

type reportEnvelope struct {
	Data api.ReportView `json:"data"`
}

// ListActivities fetches one page of activities.
func (c *Client) ListActivities(ctx context.Context, params ListParams) (*api.ListActivitiesResponse, error) {
	query := map[string]string{}
	if params.Type != "" {
		query["type"] = params.Type
	}
	if params.StartDate != "" {
		query["startDate"] = params.StartDate
	}
	if params.EndDate != "" {
		query["endDate"] = params.EndDate
	}
	if params.Page > 0 {
		query["page"] = strconv.Itoa(params.Page)
	}
	if params.Limit > 0 {
		query["limit"] = strconv.Itoa(params.Limit)
	}

	var out api.ListActivitiesResponse
	resp, err := c.request(ctx).SetQueryParams(query).SetResult(&out).Get("/v1/activities")
	if err := c.check(resp, err, "list activities"); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetActivity fetches a single activity.
func (c *Client) GetActivity(ctx context.Context, id string) (*api.ActivityView, error) {
	var out activityEnvelope
	resp, err := c.request(ctx).SetPathParam("id", id).SetResult(&out).Get("/v1/activities/{id}")
	if err := c.check(resp, err, "get activity"); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// CreateActivity logs a new activity.
func (c *Client) CreateActivity(ctx context.Context, fields ActivityFields) (*api.ActivityView, error) {
	var out activityEnvelope
	resp, err := c.request(ctx).SetBody(fields).SetResult(&out).Post("/v1/activities")
	if err := c.check(resp, err, "create activity"); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// UpdateActivity changes only the non-nil fields.
func (c *Client) UpdateActivity(ctx context.Context, id string, fields ActivityFields) (*api.ActivityView, error) {
	var out activityEnvelope
	resp, err := c.request(ctx).SetPathParam("id", id).SetBody(fields).SetResult(&out).Patch("/v1/activities/{id}")
	if err := c.check(resp, err, "update activity"); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// DeleteActivity permanently removes an activity.
func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	resp, err := c.request(ctx).SetPathParam("id", id).Delete("/v1/activities/{id}")
	return c.check(resp, err, "delete activity")
}

// Stats fetches the caller's statistics.
func (c *Client) Stats(ctx context.Context) (*api.StatsView, error) {
	var out statsEnvelope
	resp, err := c.request(ctx).SetResult(&out).Get("/v1/activities/stats")
	if err := c.check(resp, err, "get stats"); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Report composes a report and returns its page list.
func (c *Client) Report(ctx context.Context, req api.CreateReportRequest) (*api.ReportView, error) {
	var out reportEnvelope
	resp, err := c.request(ctx).SetBody(req).SetResult(&out).Post("/v1/reports")
	if err := c.check(resp, err, "compose report"); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// ReportWorkbook composes a report and returns the xlsx bytes.
func (c *Client) ReportWorkbook(ctx context.Context, req api.CreateReportRequest) ([]byte, error) {
	resp, err := c.request(ctx).SetBody(req).SetQueryParam("format", "xlsx").Post("/v1/reports")
	if err := c.check(resp, err, "export workbook"); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&api.ErrorResponse{})
}

func (c *Client) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		c.logger.Error("logbook api call failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if !resp.IsError() {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode(), Type: http.StatusText(resp.StatusCode())}
	if body, ok := resp.Error().(*api.ErrorResponse); ok && body.Type != "" {
		apiErr.Type, apiErr.Detail, apiErr.Field = body.Type, body.Detail, body.Field
	}
	c.logger.Warn("logbook api returned error",
		zap.String("op", op),
		zap.Int("status", apiErr.Status),
		zap.String("type", apiErr.Type),
	)
	return fmt.Errorf("%s: %w", op, apiErr)
}
