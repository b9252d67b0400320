// Package main implements the joke agent, a minimal conversational agent
// used to exercise the serving stack end to end: it tells jokes and explains
// why they are funny.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/a2aproject/a2a-go/a2a"
	"google.golang.org/adk/agent/llmagent"

	"dynagent/agentutil"
	"dynagent/prompts"
)

func main() {
	cfg := agentutil.MustLoadConfig("localhost:1202")
	ctx := context.Background()

	llmModel, err := agentutil.NewLLM(ctx, cfg)
	if err != nil {
		slog.Error("failed to create LLM model", "err", err)
		os.Exit(1)
	}

	jokeAgent, err := llmagent.New(llmagent.Config{
		Name:        "joke_agent",
		Description: "Joke agent that tells jokes on request and explains why a given joke is funny.",
		Instruction: prompts.Joke,
		Model:       llmModel,
	})
	if err != nil {
		slog.Error("failed to create joke agent", "err", err)
		os.Exit(1)
	}

	cardOpts := agentutil.CardOptions{
		Version:  "1.0.0",
		Provider: &a2a.AgentProvider{Org: "Dynagent"},
		SkillTags: map[string][]string{
			"joke_agent": {"jokes", "humor", "entertainment"},
		},
		SkillExamples: map[string][]string{
			"joke_agent": {
				"Tell me a joke about computers",
				"Why is this funny: a SQL query walks into a bar, walks up to two tables and asks, can I join you?",
			},
		},
	}

	if err := agentutil.Serve(ctx, jokeAgent, cfg, cardOpts); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
