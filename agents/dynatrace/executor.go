package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/a2aproject/a2a-go/a2asrv/eventqueue"
)

const helpText = `I can help you monitor your environment. Try asking:
- "Show me open problems" or "any issues in the last 7 days?"
- "Analyze problem P-12345678"
- "Show me the topology for OrderService"
- "Check the health of HOST-ABC123"
- "Create a ServiceNow incident for P-12345678"
- or any other question about your services, hosts and alerts.`

// Executor routes incoming A2A messages to the observability skills.
type Executor struct {
	agent *Agent
}

var _ a2asrv.AgentExecutor = (*Executor)(nil)

// NewExecutor returns an executor backed by the given agent.
func NewExecutor(agent *Agent) *Executor {
	return &Executor{agent: agent}
}

// Execute handles one task: parse the user's intent, run the matching skill,
// and publish the reply as an artifact plus a final status update. Skill
// failures become a failed task status carrying the error text rather than a
// protocol error.
func (e *Executor) Execute(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	if reqCtx.Message == nil {
		return fmt.Errorf("request contains no message")
	}
	query, ok := textOfMessage(reqCtx.Message)
	if !ok {
		return fmt.Errorf("request message contains no text part")
	}

	slog.Info("handling request", "task", string(reqCtx.TaskID))

	text, ok := e.respond(ctx, query)
	if !ok {
		msg := a2a.NewMessageForTask(a2a.MessageRoleAgent, reqCtx, a2a.TextPart{Text: text})
		event := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateFailed, msg)
		event.Final = true
		return queue.Write(ctx, event)
	}
	return e.reply(ctx, reqCtx, queue, text)
}

// respond turns one user query into reply text. ok is false when the reply
// describes a skill failure.
func (e *Executor) respond(ctx context.Context, query string) (text string, ok bool) {
	if strings.TrimSpace(query) == "" {
		return helpText, true
	}
	r := parseIntent(query)
	reply, err := e.dispatch(ctx, r)
	if err != nil {
		slog.Error("skill failed", "skill", r.skill, "err", err)
		return fmt.Sprintf("Sorry, I ran into an error: %v", err), false
	}
	return reply, true
}

func (e *Executor) dispatch(ctx context.Context, r route) (string, error) {
	switch r.skill {
	case skillProblems:
		return e.agent.OpenProblems(ctx, r.timeRange)
	case skillAnalyze:
		return e.agent.AnalyzeProblem(ctx, r.problemID)
	case skillTopology:
		return e.agent.ServiceTopology(ctx, r.service)
	case skillHealth:
		return e.agent.EntityHealth(ctx, r.entityID)
	case skillIncident:
		return e.agent.IncidentSummary(ctx, r.problemID)
	default:
		return e.agent.Query(ctx, r.question)
	}
}

func (e *Executor) reply(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue, text string) error {
	part := a2a.TextPart{Text: text}
	if err := queue.Write(ctx, a2a.NewArtifactEvent(reqCtx, part)); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	msg := a2a.NewMessageForTask(a2a.MessageRoleAgent, reqCtx, part)
	event := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateCompleted, msg)
	event.Final = true
	return queue.Write(ctx, event)
}

// Cancel marks the task canceled; running skills stop through ctx.
func (e *Executor) Cancel(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	event := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateCanceled, nil)
	event.Final = true
	return queue.Write(ctx, event)
}

// textOfMessage concatenates the text parts of a message.
func textOfMessage(msg *a2a.Message) (string, bool) {
	var parts []string
	found := false
	for _, p := range msg.Parts {
		if tp, ok := p.(a2a.TextPart); ok {
			parts = append(parts, tp.Text)
			found = true
		}
	}
	return strings.Join(parts, "\n"), found
}
