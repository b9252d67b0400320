//go:build e2e

// Package e2e contains end-to-end tests that require running agents and live
// LLM calls.
//
// Run with: go test -tags e2e -timeout 300s -v ./testing/e2e/...
//
// Prerequisites:
//   - joke and/or dynatrace agents running locally
//   - DYNAGENT_API_KEY environment variable set (or ANTHROPIC_API_KEY)
//   - For Dynatrace tests: DYNAGENT_DT_URL and DYNAGENT_DT_TOKEN pointing at
//     a reachable environment
//
// Environment variables:
//   - E2E_DYNATRACE_AGENT_URL: Dynatrace agent A2A URL (default: http://localhost:1201)
//   - E2E_JOKE_AGENT_URL: Joke agent A2A URL (default: http://localhost:1202)
package e2e

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// Config holds E2E test configuration from environment.
type Config struct {
	DynatraceAgentURL string
	JokeAgentURL      string
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		DynatraceAgentURL: getEnvDefault("E2E_DYNATRACE_AGENT_URL", "http://localhost:1201"),
		JokeAgentURL:      getEnvDefault("E2E_JOKE_AGENT_URL", "http://localhost:1202"),
	}
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// RequireAPIKey skips the test if no LLM API key is available.
func RequireAPIKey(t *testing.T) {
	t.Helper()
	if os.Getenv("DYNAGENT_API_KEY") == "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
		t.Skip("DYNAGENT_API_KEY or ANTHROPIC_API_KEY not set")
	}
}

// RequireDynatrace skips the test if no Dynatrace environment is configured.
func RequireDynatrace(t *testing.T) {
	t.Helper()
	if os.Getenv("DYNAGENT_DT_URL") == "" || os.Getenv("DYNAGENT_DT_TOKEN") == "" {
		t.Skip("DYNAGENT_DT_URL or DYNAGENT_DT_TOKEN not set")
	}
}

// isAgentReachable checks that an agent serves its card.
func isAgentReachable(agentURL string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cardURL := strings.TrimSuffix(agentURL, "/") + "/.well-known/agent-card.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cardURL, nil)
	if err != nil {
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// ContainsAny returns true if text contains any of the keywords (case-insensitive).
func ContainsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// AssertContainsAny checks that text contains at least one keyword.
func AssertContainsAny(t *testing.T, text string, keywords []string) {
	t.Helper()
	if !ContainsAny(text, keywords) {
		t.Errorf("Response missing expected keywords.\nExpected one of: %v\nGot: %s",
			keywords, truncate(text, 500))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
