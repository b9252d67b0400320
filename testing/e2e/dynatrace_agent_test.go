//go:build e2e

package e2e

import (
	"context"
	"testing"
	"time"

	"dynagent/testing/testutil"
)

// TestDynatraceAgentCard verifies the served card advertises all six skills.
func TestDynatraceAgentCard(t *testing.T) {
	cfg := LoadConfig()

	if !isAgentReachable(cfg.DynatraceAgentURL) {
		t.Skipf("Dynatrace agent not reachable at %s", cfg.DynatraceAgentURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	card, err := testutil.FetchCard(ctx, cfg.DynatraceAgentURL)
	if err != nil {
		t.Fatalf("FetchCard failed: %v", err)
	}

	want := map[string]bool{
		"get_problems": false, "analyze_problem": false, "get_topology": false,
		"get_health": false, "create_incident": false, "query": false,
	}
	for _, skill := range card.Skills {
		if _, ok := want[string(skill.ID)]; ok {
			want[string(skill.ID)] = true
		}
	}
	for id, found := range want {
		if !found {
			t.Errorf("card missing skill %q", id)
		}
	}
}

// TestDynatraceAgentListProblems asks for open problems; the reply must
// either list problems or report a healthy environment.
func TestDynatraceAgentListProblems(t *testing.T) {
	RequireAPIKey(t)
	RequireDynatrace(t)
	cfg := LoadConfig()

	if !isAgentReachable(cfg.DynatraceAgentURL) {
		t.Skipf("Dynatrace agent not reachable at %s", cfg.DynatraceAgentURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	resp := testutil.SendPrompt(ctx, cfg.DynatraceAgentURL, "Show me open problems")
	if resp.Error != nil {
		t.Fatalf("SendPrompt failed: %v", resp.Error)
	}
	AssertContainsAny(t, resp.Text, []string{"problem", "healthy"})
	t.Logf("Reply (%s): %s", resp.Duration, truncate(resp.Text, 300))
}

// TestDynatraceAgentHelp sends an empty prompt and expects usage hints, not
// an error and no Dynatrace traffic.
func TestDynatraceAgentHelp(t *testing.T) {
	cfg := LoadConfig()

	if !isAgentReachable(cfg.DynatraceAgentURL) {
		t.Skipf("Dynatrace agent not reachable at %s", cfg.DynatraceAgentURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp := testutil.SendPrompt(ctx, cfg.DynatraceAgentURL, "   ")
	if resp.Error != nil {
		t.Fatalf("SendPrompt failed: %v", resp.Error)
	}
	AssertContainsAny(t, resp.Text, []string{"open problems", "analyze"})
}

// TestDynatraceAgentFreeFormQuery exercises the fallback query skill.
func TestDynatraceAgentFreeFormQuery(t *testing.T) {
	RequireAPIKey(t)
	RequireDynatrace(t)
	cfg := LoadConfig()

	if !isAgentReachable(cfg.DynatraceAgentURL) {
		t.Skipf("Dynatrace agent not reachable at %s", cfg.DynatraceAgentURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	resp := testutil.SendPrompt(ctx, cfg.DynatraceAgentURL, "How many hosts are being monitored?")
	if resp.Error != nil {
		t.Fatalf("SendPrompt failed: %v", resp.Error)
	}
	if resp.Text == "" {
		t.Fatal("agent returned an empty reply")
	}
	t.Logf("Reply (%s): %s", resp.Duration, truncate(resp.Text, 300))
}
