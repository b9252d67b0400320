package main

import "testing"

func TestParseIntent_ProblemIDAlwaysAnalyzes(t *testing.T) {
	// Any recognizable problem id must choose the analysis path, even when
	// the message also contains list-problems keywords.
	inputs := []string{
		"Analyze P-12345678",
		"Root cause for P-87654321",
		"Investigate problem P-11111111",
		"P-12345678",
		"show problems for P-12345678",
		"what's wrong with p-555",
	}
	for _, in := range inputs {
		r := parseIntent(in)
		if r.skill != skillAnalyze {
			t.Errorf("parseIntent(%q).skill = %q, want %q", in, r.skill, skillAnalyze)
		}
		if r.problemID == "" {
			t.Errorf("parseIntent(%q) extracted no problem id", in)
		}
	}
}

func TestParseIntent_AnalyzeExtractsID(t *testing.T) {
	r := parseIntent("Analyze P-12345678")
	if r.skill != skillAnalyze || r.problemID != "P-12345678" {
		t.Errorf("got skill %q id %q, want %q/P-12345678", r.skill, r.problemID, skillAnalyze)
	}

	// Lowercase ids are normalised.
	r = parseIntent("root cause for p-42")
	if r.problemID != "P-42" {
		t.Errorf("problemID = %q, want P-42", r.problemID)
	}
}

func TestParseIntent_ListProblems(t *testing.T) {
	cases := []struct {
		in        string
		wantRange string
	}{
		{"Show open problems", "24h"},
		{"Show me open problems", "24h"},
		{"List issues from the last 7 days", "7d"},
		{"What issues happened in the last 7 days?", "7d"},
		{"Any current alerts?", "24h"},
		{"what's wrong", "24h"},
		{"show problems from the past 2 weeks", "2w"},
		{"any issues in the last 6 hours", "6h"},
	}
	for _, c := range cases {
		r := parseIntent(c.in)
		if r.skill != skillProblems {
			t.Errorf("parseIntent(%q).skill = %q, want %q", c.in, r.skill, skillProblems)
			continue
		}
		if r.timeRange != c.wantRange {
			t.Errorf("parseIntent(%q).timeRange = %q, want %q", c.in, r.timeRange, c.wantRange)
		}
	}
}

func TestParseIntent_Topology(t *testing.T) {
	cases := []struct {
		in          string
		wantService string
	}{
		{"Topology for OrderService", "OrderService"},
		{"Dependencies of payment-service", "payment-service"},
		{"What does checkout-api call?", "checkout-api"},
		{"topology of SERVICE-XYZ789", "SERVICE-XYZ789"},
	}
	for _, c := range cases {
		r := parseIntent(c.in)
		if r.skill != skillTopology {
			t.Errorf("parseIntent(%q).skill = %q, want %q", c.in, r.skill, skillTopology)
			continue
		}
		if r.service != c.wantService {
			t.Errorf("parseIntent(%q).service = %q, want %q", c.in, r.service, c.wantService)
		}
	}
}

func TestParseIntent_Health(t *testing.T) {
	cases := []struct {
		in     string
		wantID string
	}{
		{"Health of HOST-ABC123", "HOST-ABC123"},
		{"Status of SERVICE-XYZ789", "SERVICE-XYZ789"},
		{"Metrics for PROCESS-DEF456", "PROCESS-DEF456"},
		{"how is host-abc123", "HOST-ABC123"},
	}
	for _, c := range cases {
		r := parseIntent(c.in)
		if r.skill != skillHealth {
			t.Errorf("parseIntent(%q).skill = %q, want %q", c.in, r.skill, skillHealth)
			continue
		}
		if r.entityID != c.wantID {
			t.Errorf("parseIntent(%q).entityID = %q, want %q", c.in, r.entityID, c.wantID)
		}
	}
}

func TestParseIntent_Incident(t *testing.T) {
	cases := []string{
		"Create incident for P-12345678",
		"ServiceNow summary P-87654321",
		"generate a servicenow incident from P-99",
	}
	for _, in := range cases {
		r := parseIntent(in)
		if r.skill != skillIncident {
			t.Errorf("parseIntent(%q).skill = %q, want %q", in, r.skill, skillIncident)
		}
		if r.problemID == "" {
			t.Errorf("parseIntent(%q) extracted no problem id", in)
		}
	}

	// Incident keywords without a problem id fall back to free-form query.
	r := parseIntent("create an incident for the payment outage")
	if r.skill != skillQuery {
		t.Errorf("incident without id routed to %q, want %q", r.skill, skillQuery)
	}
}

func TestParseIntent_DefaultQuery(t *testing.T) {
	inputs := []string{
		"How many hosts are being monitored?",
		"Are there any database-related problems happening right now?",
		"tell me about the environment",
	}
	for _, in := range inputs {
		r := parseIntent(in)
		if r.skill == skillQuery && r.question != in {
			t.Errorf("parseIntent(%q).question = %q, want original text", in, r.question)
		}
	}

	// The canonical free-form example must not be swallowed by another rule.
	r := parseIntent("tell me about the environment")
	if r.skill != skillQuery {
		t.Errorf("free-form input routed to %q, want %q", r.skill, skillQuery)
	}
}

func TestMatchTimeRange(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"last 7 days", "7d"},
		{"past 12 hours", "12h"},
		{"last 1 week", "1w"},
		{"no range here", "24h"},
	}
	for _, c := range cases {
		if got := matchTimeRange(c.in); got != c.want {
			t.Errorf("matchTimeRange(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
