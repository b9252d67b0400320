// Package main implements a2acall — a CLI for sending one prompt to a
// running A2A agent and printing the reply.
//
//	a2acall --agent http://localhost:1201 "Show me open problems"
//	a2acall --agent http://localhost:1202 --card
//
// Exit codes:
//
//	0  agent replied
//	1  error (network, no reply, missing args)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"dynagent/internal/logging"
	"dynagent/testing/testutil"
)

func main() {
	args := logging.InitLogging(os.Args[1:])

	fs := flag.NewFlagSet("a2acall", flag.ExitOnError)
	agentURL := fs.String("agent", envOrDefault("DYNAGENT_AGENT_URL", "http://localhost:1201"), "Agent base URL")
	showCard := fs.Bool("card", false, "Print the agent card as JSON and exit")
	timeout := fs.Duration("timeout", 120*time.Second, "Overall request timeout")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *showCard {
		card, err := testutil.FetchCard(ctx, *agentURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "a2acall: %v\n", err)
			os.Exit(1)
		}
		out, err := json.MarshalIndent(card, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "a2acall: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	prompt := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: a2acall [--agent URL] \"prompt text\"")
		os.Exit(1)
	}

	callID := "a2acall_" + uuid.New().String()[:8]
	slog.Info("sending prompt", "call", callID, "agent", *agentURL)

	resp := testutil.SendPrompt(ctx, *agentURL, prompt)
	if resp.Error != nil {
		fmt.Fprintf(os.Stderr, "a2acall: %v\n", resp.Error)
		os.Exit(1)
	}
	if resp.Text == "" {
		fmt.Fprintln(os.Stderr, "a2acall: agent returned an empty reply")
		os.Exit(1)
	}

	slog.Info("received reply", "call", callID, "duration", resp.Duration)
	fmt.Println(resp.Text)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
