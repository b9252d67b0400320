// Package dynatrace is a thin client for the Dynatrace REST API v2.
// It covers the endpoints the agent skills need: Problems (Davis AI detected
// issues), Entities (Smartscape topology), Metrics, and Events. Responses are
// returned as decoded JSON objects, verbatim from the API.
package dynatrace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// defaultFields are the extra problem fields every problem query asks for.
const defaultFields = "+evidenceDetails,+impactAnalysis,+recentComments"

// Client calls the Dynatrace REST API v2 of a single environment.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// NewClient creates a client for the environment at baseURL (no trailing
// slash), authenticating with apiToken.
func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the configured environment URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError is a non-2xx answer from the Dynatrace API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dynatrace API status %d: %s", e.Status, e.Body)
}

// Object is a decoded JSON response body.
type Object = map[string]any

// get performs a GET against /api/v2/<endpoint> and decodes the JSON body.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (Object, error) {
	u := c.baseURL + "/api/v2/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Api-Token "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var result Object
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return result, nil
}

// ProblemsQuery filters a problem listing. Zero values fall back to the last
// 24 hours of OPEN problems.
type ProblemsQuery struct {
	Status          string // OPEN, CLOSED, or "" for all
	From            string // e.g. "now-24h", "now-7d"
	To              string
	ProblemSelector string
	EntitySelector  string
	PageSize        int
}

// GetProblems lists problems detected by Davis AI, including evidence and
// impact details.
func (c *Client) GetProblems(ctx context.Context, q ProblemsQuery) (Object, error) {
	if q.From == "" {
		q.From = "now-24h"
	}
	if q.To == "" {
		q.To = "now"
	}
	if q.PageSize == 0 {
		q.PageSize = 50
	}

	params := url.Values{}
	params.Set("from", q.From)
	params.Set("to", q.To)
	params.Set("pageSize", strconv.Itoa(q.PageSize))
	params.Set("fields", defaultFields)

	if q.Status != "" {
		selector := fmt.Sprintf("status(%q)", q.Status)
		if q.ProblemSelector != "" {
			selector += "," + q.ProblemSelector
		}
		params.Set("problemSelector", selector)
	} else if q.ProblemSelector != "" {
		params.Set("problemSelector", q.ProblemSelector)
	}
	if q.EntitySelector != "" {
		params.Set("entitySelector", q.EntitySelector)
	}

	return c.get(ctx, "problems", params)
}

// GetProblemDetails fetches one problem with root cause evidence, impact
// analysis, and affected entities.
func (c *Client) GetProblemDetails(ctx context.Context, problemID string) (Object, error) {
	params := url.Values{}
	params.Set("fields", defaultFields)
	return c.get(ctx, "problems/"+url.PathEscape(problemID), params)
}

// EntitiesQuery filters an entity listing.
type EntitiesQuery struct {
	EntitySelector string // required, e.g. `type("SERVICE")`
	From           string // defaults to "now-2h"
	Fields         string // e.g. "+toRelationships,+properties"
	PageSize       int
}

// GetEntities lists monitored entities matching the selector.
func (c *Client) GetEntities(ctx context.Context, q EntitiesQuery) (Object, error) {
	if q.From == "" {
		q.From = "now-2h"
	}
	if q.PageSize == 0 {
		q.PageSize = 50
	}

	params := url.Values{}
	params.Set("entitySelector", q.EntitySelector)
	params.Set("from", q.From)
	params.Set("pageSize", strconv.Itoa(q.PageSize))
	if q.Fields != "" {
		params.Set("fields", q.Fields)
	}

	return c.get(ctx, "entities", params)
}

// GetEntity fetches one entity with its properties, relationships, and tags.
func (c *Client) GetEntity(ctx context.Context, entityID string) (Object, error) {
	params := url.Values{}
	params.Set("from", "now-2h")
	params.Set("fields", "+properties,+toRelationships,+fromRelationships,+tags")
	return c.get(ctx, "entities/"+url.PathEscape(entityID), params)
}

// MetricsQuery selects metric data points.
type MetricsQuery struct {
	MetricSelector string // required, e.g. "builtin:service.response.time:avg"
	EntitySelector string
	From           string // defaults to "now-1h"
	To             string
	Resolution     string // defaults to "5m"
}

// GetMetrics queries metric data points.
func (c *Client) GetMetrics(ctx context.Context, q MetricsQuery) (Object, error) {
	if q.From == "" {
		q.From = "now-1h"
	}
	if q.To == "" {
		q.To = "now"
	}
	if q.Resolution == "" {
		q.Resolution = "5m"
	}

	params := url.Values{}
	params.Set("metricSelector", q.MetricSelector)
	params.Set("from", q.From)
	params.Set("to", q.To)
	params.Set("resolution", q.Resolution)
	if q.EntitySelector != "" {
		params.Set("entitySelector", q.EntitySelector)
	}

	return c.get(ctx, "metrics/query", params)
}

// GetServiceMetrics fetches the key performance metrics for a service:
// response time, throughput, and error rate, keyed by those names.
func (c *Client) GetServiceMetrics(ctx context.Context, serviceID, from string) (map[string]Object, error) {
	selectors := map[string]string{
		"response_time": "builtin:service.response.time:avg",
		"throughput":    "builtin:service.requestCount.total:rate(1m)",
		"error_rate":    "builtin:service.errors.total.rate",
	}
	return c.metricsByName(ctx, serviceID, from, selectors)
}

// GetHostMetrics fetches CPU and memory usage for a host.
func (c *Client) GetHostMetrics(ctx context.Context, hostID, from string) (map[string]Object, error) {
	selectors := map[string]string{
		"cpu_usage":    "builtin:host.cpu.usage:avg",
		"memory_usage": "builtin:host.mem.usage:avg",
	}
	return c.metricsByName(ctx, hostID, from, selectors)
}

func (c *Client) metricsByName(ctx context.Context, entityID, from string, selectors map[string]string) (map[string]Object, error) {
	metrics := make(map[string]Object, len(selectors))
	for name, selector := range selectors {
		result, err := c.GetMetrics(ctx, MetricsQuery{
			MetricSelector: selector,
			EntitySelector: fmt.Sprintf("entityId(%q)", entityID),
			From:           from,
		})
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", name, err)
		}
		metrics[name] = result
	}
	return metrics, nil
}

// EventsQuery filters the event listing.
type EventsQuery struct {
	EventSelector  string
	EntitySelector string
	From           string // defaults to "now-24h"
	To             string
}

// GetEvents lists events (deployments, config changes, custom events).
func (c *Client) GetEvents(ctx context.Context, q EventsQuery) (Object, error) {
	if q.From == "" {
		q.From = "now-24h"
	}
	if q.To == "" {
		q.To = "now"
	}

	params := url.Values{}
	params.Set("from", q.From)
	params.Set("to", q.To)
	params.Set("pageSize", "100")
	if q.EventSelector != "" {
		params.Set("eventSelector", q.EventSelector)
	}
	if q.EntitySelector != "" {
		params.Set("entitySelector", q.EntitySelector)
	}

	return c.get(ctx, "events", params)
}

// GetRecentDeployments lists CUSTOM_DEPLOYMENT events, optionally scoped to
// an entity selector. from defaults to the last 7 days.
func (c *Client) GetRecentDeployments(ctx context.Context, entitySelector, from string) (Object, error) {
	if from == "" {
		from = "now-7d"
	}
	return c.GetEvents(ctx, EventsQuery{
		EventSelector:  `eventType("CUSTOM_DEPLOYMENT")`,
		EntitySelector: entitySelector,
		From:           from,
	})
}
