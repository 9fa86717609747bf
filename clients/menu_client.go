package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"menu-service/models"

	"go.uber.org/zap"
)

const (
	ActionActiveRestaurants = "getActiveRestaurants"
	ActionRestaurantData    = "getRestaurantData"

	// DefaultTimeout bounds each upstream attempt.
	DefaultTimeout = 20 * time.Second

	maxBodyBytes = 8 << 20
)

// MenuAPI is the upstream restaurant data source.
type MenuAPI interface {
	ActiveRestaurants(ctx context.Context) *models.APIResponse
	RestaurantData(ctx context.Context, id string) *models.APIResponse
}

// MenuClient calls the spreadsheet-backed web app. Failures never escape as
// errors; they come back as an error-status response.
type MenuClient struct {
	baseURL     string
	fallbackURL string
	client      *http.Client
	logger      *zap.Logger
}

func NewMenuClient(baseURL, fallbackURL string, timeout time.Duration, logger *zap.Logger) *MenuClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MenuClient{
		baseURL:     baseURL,
		fallbackURL: fallbackURL,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

func (m *MenuClient) ActiveRestaurants(ctx context.Context) *models.APIResponse {
	return m.Fetch(ctx, ActionActiveRestaurants, nil)
}

func (m *MenuClient) RestaurantData(ctx context.Context, id string) *models.APIResponse {
	return m.Fetch(ctx, ActionRestaurantData, url.Values{"id": {id}})
}

// Fetch performs action against the primary URL and, if that attempt fails,
// makes exactly one attempt against the fallback URL.
func (m *MenuClient) Fetch(ctx context.Context, action string, params url.Values) *models.APIResponse {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("action", action)

	resp, err := m.do(ctx, m.baseURL, query)
	if err == nil {
		return resp
	}
	m.logger.Warn("upstream request failed", zap.String("action", action), zap.Error(err))

	if m.fallbackURL == "" || m.fallbackURL == m.baseURL {
		return errorResponse(err)
	}

	resp, fbErr := m.do(ctx, m.fallbackURL, query)
	if fbErr == nil {
		return resp
	}
	m.logger.Error("upstream fallback failed", zap.String("action", action), zap.Error(fbErr))
	return errorResponse(fbErr)
}

func (m *MenuClient) do(ctx context.Context, base string, query url.Values) (*models.APIResponse, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url: %w", err)
	}
	q := u.Query()
	for k, v := range query {
		q[k] = v
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("upstream error: status=%d body=%s", res.StatusCode, string(body))
	}

	var out models.APIResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, maxBodyBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode upstream response: %w", err)
	}
	return &out, nil
}

func errorResponse(err error) *models.APIResponse {
	msg := "failed to reach the menu server"
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return &models.APIResponse{Status: models.StatusError, Message: msg}
}

// Data returns the payload of a successful response, or nil for "no data".
func Data(resp *models.APIResponse) json.RawMessage {
	if !resp.HasData() {
		return nil
	}
	return resp.Data
}
