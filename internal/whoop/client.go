package whoop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPageSize       = 25
	defaultRequestTimeout = 15 * time.Second
)

// Collection endpoint paths relative to the API base URL.
const (
	pathCycles     = "/v1/cycle"
	pathRecoveries = "/v1/recovery"
	pathSleeps     = "/v1/activity/sleep"
	pathWorkouts   = "/v1/activity/workout"
	pathProfile    = "/v1/user/profile/basic"
)

// Client fetches records from the Whoop developer API. Every collection
// endpoint shares the same `{records, next_token}` cursor pagination.
type Client struct {
	baseURL    string
	httpClient *http.Client
	pageSize   int
}

// NewClient constructs a Client against the given API base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		pageSize:   defaultPageSize,
	}
}

// page mirrors the common paginated response envelope.
type page[T any] struct {
	Records   []T     `json:"records"`
	NextToken *string `json:"next_token"`
}

// fetchAllPages walks every page of a collection endpoint for the date range.
// Any non-2xx response aborts the whole fetch; the caller re-invokes from
// scratch if it wants to retry.
func fetchAllPages[T any](ctx context.Context, c *Client, path, accessToken, startDate, endDate string) ([]T, error) {
	if c == nil {
		return nil, fmt.Errorf("whoop: nil client")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var out []T
	cursor := ""
	for {
		records, next, errPage := fetchPage[T](ctx, c, path, accessToken, startDate, endDate, cursor)
		if errPage != nil {
			return nil, errPage
		}
		out = append(out, records...)
		if next == "" {
			return out, nil
		}
		cursor = next
	}
}

func fetchPage[T any](ctx context.Context, c *Client, path, accessToken, startDate, endDate, cursor string) ([]T, string, error) {
	query := url.Values{}
	query.Set("start", startDate+"T00:00:00.000Z")
	query.Set("end", endDate+"T23:59:59.999Z")
	query.Set("limit", strconv.Itoa(c.pageSize))
	if cursor != "" {
		query.Set("nextToken", cursor)
	}

	body, errGet := c.get(ctx, path, accessToken, query)
	if errGet != nil {
		return nil, "", errGet
	}

	var parsed page[T]
	if errUnmarshal := json.Unmarshal(body, &parsed); errUnmarshal != nil {
		return nil, "", fmt.Errorf("whoop: %s: decode response: %w", path, errUnmarshal)
	}

	next := ""
	if parsed.NextToken != nil {
		next = strings.TrimSpace(*parsed.NextToken)
	}
	return parsed.Records, next, nil
}

func (c *Client) get(ctx context.Context, path, accessToken string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, errBuild := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if errBuild != nil {
		return nil, fmt.Errorf("whoop: %s: build request: %w", path, errBuild)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return nil, fmt.Errorf("whoop: %s: request failed: %w", path, errDo)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("whoop: %s: unexpected status %d", path, resp.StatusCode)
	}

	body, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return nil, fmt.Errorf("whoop: %s: read response: %w", path, errRead)
	}
	return body, nil
}

// Cycles fetches every cycle in the date range.
func (c *Client) Cycles(ctx context.Context, accessToken, startDate, endDate string) ([]Cycle, error) {
	return fetchAllPages[Cycle](ctx, c, pathCycles, accessToken, startDate, endDate)
}

// Recoveries fetches every recovery record in the date range.
func (c *Client) Recoveries(ctx context.Context, accessToken, startDate, endDate string) ([]Recovery, error) {
	return fetchAllPages[Recovery](ctx, c, pathRecoveries, accessToken, startDate, endDate)
}

// Sleeps fetches every sleep activity in the date range.
func (c *Client) Sleeps(ctx context.Context, accessToken, startDate, endDate string) ([]Sleep, error) {
	return fetchAllPages[Sleep](ctx, c, pathSleeps, accessToken, startDate, endDate)
}

// Workouts fetches every workout in the date range.
func (c *Client) Workouts(ctx context.Context, accessToken, startDate, endDate string) ([]Workout, error) {
	return fetchAllPages[Workout](ctx, c, pathWorkouts, accessToken, startDate, endDate)
}

// UserProfile fetches the basic profile of the token's owner.
func (c *Client) UserProfile(ctx context.Context, accessToken string) (*Profile, error) {
	body, errGet := c.get(ctx, pathProfile, accessToken, nil)
	if errGet != nil {
		return nil, errGet
	}
	var profile Profile
	if errUnmarshal := json.Unmarshal(body, &profile); errUnmarshal != nil {
		return nil, fmt.Errorf("whoop: %s: decode response: %w", pathProfile, errUnmarshal)
	}
	return &profile, nil
}
