package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gregmcinnes/topset/internal/models"
)

// HTTPClient implements DataSource by calling the Top-Set REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

var errNotFound = errors.New("httpclient: not found")

func (c *HTTPClient) TrainingMaxHistory(ctx context.Context, lift string) ([]models.TrainingMax, error) {
	body, err := c.get(ctx, "/api/v1/lifts/"+url.PathEscape(lift)+"/maxes", nil)
	if err != nil {
		return nil, err
	}

	var history []models.TrainingMax
	if err := json.Unmarshal(body, &history); err != nil {
		return nil, fmt.Errorf("httpclient: decode max history: %w", err)
	}
	return history, nil
}

func (c *HTTPClient) LogHistory(ctx context.Context, lift string, limit int) ([]models.LogEntry, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.get(ctx, "/api/v1/lifts/"+url.PathEscape(lift)+"/logs", params)
	if err != nil {
		return nil, err
	}

	var entries []models.LogEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("httpclient: decode log history: %w", err)
	}
	return entries, nil
}

func (c *HTTPClient) PersonalRecords(ctx context.Context) ([]models.PersonalRecord, error) {
	body, err := c.get(ctx, "/api/v1/records", nil)
	if err != nil {
		return nil, err
	}

	var records []models.PersonalRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("httpclient: decode records: %w", err)
	}
	return records, nil
}

// LatestCycle maps the API's 404-when-empty onto the (nil, nil) contract
// the rest of the codebase uses for an absent cycle.
func (c *HTTPClient) LatestCycle(ctx context.Context) (*models.CompletedCycle, error) {
	body, err := c.get(ctx, "/api/v1/cycles/latest", nil)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var cycle models.CompletedCycle
	if err := json.Unmarshal(body, &cycle); err != nil {
		return nil, fmt.Errorf("httpclient: decode cycle: %w", err)
	}
	return &cycle, nil
}
