// Package main implements the Dynatrace observability agent.
// It answers natural-language questions about a monitored environment by
// calling the Dynatrace REST API and letting an LLM interpret the results:
// open problems, root cause analysis, service topology, entity health,
// ServiceNow incident summaries and free-form queries.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/a2aproject/a2a-go/a2a"

	"dynagent/agentutil"
	"dynagent/internal/dynatrace"
	"dynagent/internal/llm"
)

func main() {
	cfg := agentutil.MustLoadConfig("localhost:1201")
	ctx := context.Background()

	baseURL, apiToken := cfg.RequireDynatrace()

	llmModel, err := agentutil.NewLLM(ctx, cfg)
	if err != nil {
		slog.Error("failed to create LLM model", "err", err)
		os.Exit(1)
	}

	agent := NewAgent(dynatrace.NewClient(baseURL, apiToken), llm.NewGenerator(llmModel))

	if err := agentutil.ServeExecutor(ctx, agentCard(), NewExecutor(agent), cfg); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func agentCard() *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:        "Dynatrace Observability Agent",
		Description: "AI-powered observability agent for the Dynatrace platform. Analyzes problems, performs root cause analysis, monitors service health, and answers questions about your monitored environment.",
		Version:     "1.0.0",
		Provider:    &a2a.AgentProvider{Org: "Dynagent"},
		Capabilities: a2a.AgentCapabilities{
			Streaming: true,
		},
		DefaultInputModes:  []string{"text", "text/plain"},
		DefaultOutputModes: []string{"text", "text/plain"},
		PreferredTransport: a2a.TransportProtocolJSONRPC,
		Skills: []a2a.AgentSkill{
			{
				ID:          skillProblems,
				Name:        "Get Active Problems",
				Description: "Retrieve open problems detected by Davis AI, with severity, impact and root cause.",
				Tags:        []string{"monitoring", "problems", "alerts"},
				Examples: []string{
					"Show me open problems",
					"What issues happened in the last 7 days?",
				},
			},
			{
				ID:          skillAnalyze,
				Name:        "Analyze Problem",
				Description: "Root cause analysis of a specific problem: evidence, impact, recent deployments and an AI assessment.",
				Tags:        []string{"analysis", "root-cause", "troubleshooting"},
				Examples: []string{
					"Analyze problem P-12345678",
					"What's the root cause of P-12345678?",
				},
			},
			{
				ID:          skillTopology,
				Name:        "Get Service Topology",
				Description: "Show a service's upstream callers, downstream dependencies and the hosts it runs on.",
				Tags:        []string{"topology", "dependencies", "services"},
				Examples: []string{
					"Show me the topology for OrderService",
					"Show me the dependencies of payment-service",
				},
			},
			{
				ID:          skillHealth,
				Name:        "Get Entity Health",
				Description: "Health check of a host or service: key metrics and open problems affecting it.",
				Tags:        []string{"health", "metrics", "hosts", "services"},
				Examples: []string{
					"Check the health of HOST-ABC123",
					"How is SERVICE-XYZ789 doing?",
				},
			},
			{
				ID:          skillIncident,
				Name:        "Create Incident Summary",
				Description: "Build a ServiceNow-ready incident record for a problem, with structured JSON and an AI summary.",
				Tags:        []string{"incident", "servicenow", "ticketing"},
				Examples: []string{
					"Create a ServiceNow incident for P-12345678",
					"Generate an incident summary for P-12345678",
				},
			},
			{
				ID:          skillQuery,
				Name:        "Query Environment",
				Description: "Answer free-form questions about the monitored environment using live Dynatrace data.",
				Tags:        []string{"query", "observability", "assistant"},
				Examples: []string{
					"Are there any database-related problems right now?",
					"How many hosts are being monitored?",
				},
			},
		},
	}
}
