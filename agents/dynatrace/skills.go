package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dynagent/internal/dynatrace"
	"dynagent/prompts"
)

// platformClient is the slice of the Dynatrace client the skills use.
type platformClient interface {
	GetProblems(ctx context.Context, q dynatrace.ProblemsQuery) (dynatrace.Object, error)
	GetProblemDetails(ctx context.Context, problemID string) (dynatrace.Object, error)
	GetEntities(ctx context.Context, q dynatrace.EntitiesQuery) (dynatrace.Object, error)
	GetEntity(ctx context.Context, entityID string) (dynatrace.Object, error)
	GetServiceMetrics(ctx context.Context, serviceID, from string) (map[string]dynatrace.Object, error)
	GetHostMetrics(ctx context.Context, hostID, from string) (map[string]dynatrace.Object, error)
	GetRecentDeployments(ctx context.Context, entitySelector, from string) (dynatrace.Object, error)
	BaseURL() string
}

// textGenerator produces one prose answer per prompt.
type textGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Agent implements the observability skills: each method fetches Dynatrace
// data, optionally asks the model to interpret it, and returns a text reply.
type Agent struct {
	platform platformClient
	llm      textGenerator
}

// NewAgent wires the skills to a platform client and a text generator.
func NewAgent(platform platformClient, llm textGenerator) *Agent {
	return &Agent{platform: platform, llm: llm}
}

// OpenProblems lists problems Davis AI detected in the given range ("24h",
// "7d", ...).
func (a *Agent) OpenProblems(ctx context.Context, timeRange string) (string, error) {
	result, err := a.platform.GetProblems(ctx, dynatrace.ProblemsQuery{
		Status: "OPEN",
		From:   "now-" + timeRange,
	})
	if err != nil {
		return "", fmt.Errorf("fetching problems: %w", err)
	}

	problems := objList(result, "problems")
	if len(problems) == 0 {
		return fmt.Sprintf("No open problems detected in the last %s. Your environment is healthy.", timeRange), nil
	}

	var out strings.Builder
	fmt.Fprintf(&out, "%d open problem(s) detected in the last %s:\n", len(problems), timeRange)
	for i, p := range problems {
		fmt.Fprintf(&out, "\n%d. %s\n", i+1, str(p, "title"))
		fmt.Fprintf(&out, "   - Problem ID: %s\n", str(p, "problemId"))
		fmt.Fprintf(&out, "   - Severity: %s\n", str(p, "severityLevel"))
		fmt.Fprintf(&out, "   - Impact: %s\n", str(p, "impactLevel"))
		if rc := obj(p, "rootCauseEntity"); rc != nil {
			fmt.Fprintf(&out, "   - Root Cause: %s\n", str(rc, "name"))
		}
		fmt.Fprintf(&out, "   - Affected Entities: %d\n", len(objList(p, "affectedEntities")))
	}
	return out.String(), nil
}

// AnalyzeProblem performs root cause analysis on one problem: evidence,
// impact, recent deployments near the root cause entity, and a model-written
// assessment.
func (a *Agent) AnalyzeProblem(ctx context.Context, problemID string) (string, error) {
	problem, err := a.platform.GetProblemDetails(ctx, problemID)
	if err != nil {
		return "", fmt.Errorf("fetching problem %s: %w", problemID, err)
	}

	title := str(problem, "title")
	evidence := objList(obj(problem, "evidenceDetails"), "details")
	affected := objList(problem, "affectedEntities")
	rootCause := obj(problem, "rootCauseEntity")
	impacts := objList(obj(problem, "impactAnalysis"), "impacts")

	// Deployments are optional context; a failed lookup must not sink the
	// analysis.
	var deployments []dynatrace.Object
	if rootCause != nil {
		if entityID := str(obj(rootCause, "entityId"), "id"); entityID != "" {
			selector := fmt.Sprintf("entityId(%q)", entityID)
			if events, err := a.platform.GetRecentDeployments(ctx, selector, "now-7d"); err != nil {
				slog.Warn("deployment lookup failed", "problem", problemID, "err", err)
			} else {
				deployments = objList(events, "events")
			}
		}
	}

	analysis, err := a.llm.Generate(ctx, prompts.Analyst,
		analyzePrompt(problemID, problem, evidence, impacts, deployments, len(affected)))
	if err != nil {
		return "", fmt.Errorf("analyzing problem %s: %w", problemID, err)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "# Root Cause Analysis: %s\n\n", title)
	fmt.Fprintf(&out, "Problem ID: %s\n", problemID)
	fmt.Fprintf(&out, "Status: %s | Severity: %s\n\n", str(problem, "status"), str(problem, "severityLevel"))

	out.WriteString("## Evidence\n")
	if len(evidence) == 0 {
		out.WriteString("No evidence details available.\n")
	}
	for _, e := range firstN(evidence, 5) {
		marker := "-"
		if b, _ := e["rootCauseRelevant"].(bool); b {
			marker = "[root cause]"
		}
		fmt.Fprintf(&out, "%s %s: %s\n", marker, str(e, "evidenceType"), str(e, "displayName"))
	}

	if len(deployments) > 0 {
		out.WriteString("\n## Recent Deployments\n")
		for _, d := range firstN(deployments, 3) {
			fmt.Fprintf(&out, "- %s (%s)\n", str(d, "title"), msTime(d, "startTime"))
		}
	}

	out.WriteString("\n## Analysis\n")
	out.WriteString(analysis)
	return out.String(), nil
}

// analyzePrompt condenses the problem data into the context handed to the
// model, mirroring what an SRE would paste into a ticket.
func analyzePrompt(problemID string, problem dynatrace.Object, evidence, impacts, deployments []dynatrace.Object, affectedCount int) string {
	rootCause := obj(problem, "rootCauseEntity")

	context := map[string]any{
		"problem_id":             problemID,
		"problem_title":          str(problem, "title"),
		"severity":               str(problem, "severityLevel"),
		"root_cause_entity":      str(rootCause, "name"),
		"root_cause_entity_type": str(obj(rootCause, "entityId"), "type"),
		"affected_entities":      affectedCount,
		"impacted_users":         sumImpactedUsers(impacts),
	}

	var ev []map[string]any
	for _, e := range firstN(evidence, 10) {
		relevant, _ := e["rootCauseRelevant"].(bool)
		ev = append(ev, map[string]any{
			"type":          str(e, "evidenceType"),
			"name":          str(e, "displayName"),
			"is_root_cause": relevant,
		})
	}
	context["evidence"] = ev

	var deps []map[string]any
	for _, d := range firstN(deployments, 5) {
		deps = append(deps, map[string]any{
			"title": str(d, "title"),
			"time":  msTime(d, "startTime"),
		})
	}
	context["recent_deployments"] = deps

	data, _ := json.MarshalIndent(context, "", "  ")
	return fmt.Sprintf(`Analyze this Dynatrace problem.

Problem context:
%s

Provide:
1. Root cause determination: the most likely root cause based on the evidence.
2. Correlation analysis: links between the evidence, e.g. a deployment right before the issue.
3. Impact assessment: how severe this is and what is affected.
4. Recommended remediation: specific actions for the ops team.
5. Prevention: how to avoid a recurrence.`, data)
}

// ServiceTopology reports what calls the service and what the service calls,
// looked up by SERVICE- id or by name.
func (a *Agent) ServiceTopology(ctx context.Context, serviceName string) (string, error) {
	selector := fmt.Sprintf("type(%q),entityName.contains(%q)", "SERVICE", serviceName)
	if strings.HasPrefix(serviceName, "SERVICE-") {
		selector = fmt.Sprintf("entityId(%q)", serviceName)
	}

	result, err := a.platform.GetEntities(ctx, dynatrace.EntitiesQuery{
		EntitySelector: selector,
		Fields:         "+toRelationships,+fromRelationships,+properties",
	})
	if err != nil {
		return "", fmt.Errorf("looking up service %q: %w", serviceName, err)
	}

	entities := objList(result, "entities")
	if len(entities) == 0 {
		return fmt.Sprintf("No service found matching %q.", serviceName), nil
	}
	service := entities[0]

	var out strings.Builder
	fmt.Fprintf(&out, "# Service Topology: %s\n\n", strOr(service, "displayName", serviceName))
	fmt.Fprintf(&out, "Entity ID: %s\n", str(service, "entityId"))

	out.WriteString("\n## Upstream (callers)\n")
	writeRelated(&out, objList(obj(service, "fromRelationships"), "calls"), "No upstream callers detected.")

	out.WriteString("\n## Downstream (dependencies)\n")
	writeRelated(&out, objList(obj(service, "toRelationships"), "calls"), "No downstream dependencies detected.")

	if runsOn := objList(obj(service, "toRelationships"), "runsOn"); len(runsOn) > 0 {
		out.WriteString("\n## Infrastructure\n")
		for _, host := range firstN(runsOn, 5) {
			fmt.Fprintf(&out, "- Runs on: %s\n", str(host, "id"))
		}
	}
	return out.String(), nil
}

func writeRelated(out *strings.Builder, related []dynatrace.Object, empty string) {
	if len(related) == 0 {
		out.WriteString(empty + "\n")
		return
	}
	for _, r := range firstN(related, 10) {
		fmt.Fprintf(out, "- %s: %s\n", str(r, "type"), str(r, "id"))
	}
}

// EntityHealth checks one entity: its key metrics (by type) and any open
// problems affecting it.
func (a *Agent) EntityHealth(ctx context.Context, entityID string) (string, error) {
	entity, err := a.platform.GetEntity(ctx, entityID)
	if err != nil {
		return "", fmt.Errorf("fetching entity %s: %w", entityID, err)
	}

	entityType := str(entity, "type")

	var out strings.Builder
	fmt.Fprintf(&out, "# Entity Health: %s\n\n", strOr(entity, "displayName", entityID))
	fmt.Fprintf(&out, "Type: %s\nID: %s\n", entityType, entityID)

	switch entityType {
	case "HOST":
		metrics, err := a.platform.GetHostMetrics(ctx, entityID, "now-1h")
		if err != nil {
			return "", fmt.Errorf("fetching host metrics: %w", err)
		}
		out.WriteString("\n## Host Metrics (last hour)\n")
		writeMetrics(&out, metrics, []string{"cpu_usage", "memory_usage"})
	case "SERVICE":
		metrics, err := a.platform.GetServiceMetrics(ctx, entityID, "now-1h")
		if err != nil {
			return "", fmt.Errorf("fetching service metrics: %w", err)
		}
		out.WriteString("\n## Service Metrics (last hour)\n")
		writeMetrics(&out, metrics, []string{"response_time", "throughput", "error_rate"})
	}

	problemsResult, err := a.platform.GetProblems(ctx, dynatrace.ProblemsQuery{
		Status:         "OPEN",
		EntitySelector: fmt.Sprintf("entityId(%q)", entityID),
	})
	if err != nil {
		return "", fmt.Errorf("fetching problems for %s: %w", entityID, err)
	}

	if problems := objList(problemsResult, "problems"); len(problems) > 0 {
		fmt.Fprintf(&out, "\n## Open Problems (%d)\n", len(problems))
		for _, p := range firstN(problems, 3) {
			fmt.Fprintf(&out, "- %s\n", str(p, "title"))
		}
	} else {
		out.WriteString("\n## No Open Problems\n")
	}
	return out.String(), nil
}

func writeMetrics(out *strings.Builder, metrics map[string]dynatrace.Object, names []string) {
	for _, name := range names {
		series, ok := metrics[name]
		if !ok {
			continue
		}
		points := 0
		for _, r := range objList(series, "result") {
			points += len(objList(r, "data"))
		}
		fmt.Fprintf(out, "- %s: %d series queried\n", name, points)
	}
}

// IncidentSummary builds a ServiceNow-ready JSON record for a problem plus a
// short model-written summary.
func (a *Agent) IncidentSummary(ctx context.Context, problemID string) (string, error) {
	problem, err := a.platform.GetProblemDetails(ctx, problemID)
	if err != nil {
		return "", fmt.Errorf("fetching problem %s: %w", problemID, err)
	}

	title := str(problem, "title")
	rootCause := obj(problem, "rootCauseEntity")
	evidence := objList(obj(problem, "evidenceDetails"), "details")

	var evidenceOut []map[string]any
	var evidenceNames []string
	for _, e := range firstN(evidence, 10) {
		relevant, _ := e["rootCauseRelevant"].(bool)
		evidenceOut = append(evidenceOut, map[string]any{
			"type":        str(e, "evidenceType"),
			"description": str(e, "displayName"),
			"isRootCause": relevant,
		})
		if name := str(e, "displayName"); name != "" {
			evidenceNames = append(evidenceNames, name)
		}
	}

	var affected []map[string]any
	for _, e := range firstN(objList(problem, "affectedEntities"), 20) {
		id := obj(e, "entityId")
		affected = append(affected, map[string]any{
			"name": str(e, "name"),
			"type": str(id, "type"),
			"id":   str(id, "id"),
		})
	}

	summary, err := a.llm.Generate(ctx, prompts.Analyst, fmt.Sprintf(
		`Summarize this IT incident in 2-3 sentences for a ServiceNow ticket. Be concise and technical.

Problem: %s
Severity: %s
Root cause entity: %s (%s)
Evidence: %s`,
		title,
		str(problem, "severityLevel"),
		str(rootCause, "name"),
		str(obj(rootCause, "entityId"), "type"),
		strings.Join(firstNStrings(evidenceNames, 5), ", "),
	))
	if err != nil {
		return "", fmt.Errorf("summarizing problem %s: %w", problemID, err)
	}

	incident := map[string]any{
		"source":       "Dynatrace Davis AI",
		"problemId":    problemID,
		"title":        title,
		"severity":     str(problem, "severityLevel"),
		"impactLevel":  str(problem, "impactLevel"),
		"status":       str(problem, "status"),
		"startTime":    msTimeISO(problem, "startTime"),
		"endTime":      msTimeISO(problem, "endTime"),
		"rootCause": map[string]any{
			"entity":     str(rootCause, "name"),
			"entityType": str(obj(rootCause, "entityId"), "type"),
			"entityId":   str(obj(rootCause, "entityId"), "id"),
		},
		"evidence":         evidenceOut,
		"affectedEntities": affected,
		"dynatraceUrl":     fmt.Sprintf("%s/#problems/problemdetails;pid=%s", a.platform.BaseURL(), problemID),
		"aiSummary":        summary,
	}

	data, err := json.MarshalIndent(incident, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal incident: %w", err)
	}

	var out strings.Builder
	out.WriteString("# ServiceNow Incident Summary\n\n")
	fmt.Fprintf(&out, "Problem: %s\n", title)
	fmt.Fprintf(&out, "Severity: %s | Impact: %s\n", str(problem, "severityLevel"), str(problem, "impactLevel"))
	fmt.Fprintf(&out, "Root Cause: %s\n\n", str(rootCause, "name"))
	fmt.Fprintf(&out, "Summary: %s\n\n", summary)
	out.WriteString("## Structured Data (JSON)\n```json\n")
	out.Write(data)
	out.WriteString("\n```")
	return out.String(), nil
}

// Query answers a free-form question, fetching whatever environment data the
// question's keywords suggest before asking the model.
func (a *Agent) Query(ctx context.Context, question string) (string, error) {
	lower := strings.ToLower(question)
	contextData := map[string]any{}

	if containsAny(lower, "problem", "issue", "alert", "incident") {
		result, err := a.platform.GetProblems(ctx, dynatrace.ProblemsQuery{Status: "OPEN"})
		if err != nil {
			return "", fmt.Errorf("fetching problems: %w", err)
		}
		var open []map[string]any
		for _, p := range firstN(objList(result, "problems"), 10) {
			open = append(open, map[string]any{
				"title":     str(p, "title"),
				"severity":  str(p, "severityLevel"),
				"rootCause": str(obj(p, "rootCauseEntity"), "name"),
			})
		}
		contextData["open_problems"] = open
	}

	if containsAny(lower, "service", "application") {
		names, err := a.entityNames(ctx, "SERVICE")
		if err != nil {
			return "", err
		}
		contextData["services"] = names
	}

	if containsAny(lower, "host", "server", "infrastructure") {
		names, err := a.entityNames(ctx, "HOST")
		if err != nil {
			return "", err
		}
		contextData["hosts"] = names
	}

	contextJSON := "No specific data fetched - provide general guidance."
	if len(contextData) > 0 {
		data, _ := json.MarshalIndent(contextData, "", "  ")
		contextJSON = string(data)
	}

	answer, err := a.llm.Generate(ctx, prompts.Analyst, fmt.Sprintf(
		`Answer the following question about the monitored environment.

Question: %s

Available environment data:
%s`, question, contextJSON))
	if err != nil {
		return "", fmt.Errorf("answering query: %w", err)
	}
	return answer, nil
}

func (a *Agent) entityNames(ctx context.Context, entityType string) ([]string, error) {
	result, err := a.platform.GetEntities(ctx, dynatrace.EntitiesQuery{
		EntitySelector: fmt.Sprintf("type(%q)", entityType),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s entities: %w", strings.ToLower(entityType), err)
	}
	var names []string
	for _, e := range firstN(objList(result, "entities"), 20) {
		names = append(names, str(e, "displayName"))
	}
	return names, nil
}

// --- JSON object helpers ---

func obj(m dynatrace.Object, key string) dynatrace.Object {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

func objList(m dynatrace.Object, key string) []dynatrace.Object {
	if m == nil {
		return nil
	}
	raw, _ := m[key].([]any)
	var out []dynatrace.Object
	for _, item := range raw {
		if o, ok := item.(map[string]any); ok {
			out = append(out, o)
		}
	}
	return out
}

func str(m dynatrace.Object, key string) string {
	if m == nil {
		return ""
	}
	v, _ := m[key].(string)
	return v
}

func strOr(m dynatrace.Object, key, fallback string) string {
	if v := str(m, key); v != "" {
		return v
	}
	return fallback
}

func firstN(list []dynatrace.Object, n int) []dynatrace.Object {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func firstNStrings(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func sumImpactedUsers(impacts []dynatrace.Object) int {
	total := 0
	for _, imp := range impacts {
		if n, ok := imp["impactedUsers"].(float64); ok {
			total += int(n)
		}
	}
	return total
}

// msTime renders an epoch-milliseconds field as "2006-01-02 15:04".
func msTime(m dynatrace.Object, key string) string {
	ms, ok := m[key].(float64)
	if !ok || ms <= 0 {
		return "unknown"
	}
	return time.UnixMilli(int64(ms)).UTC().Format("2006-01-02 15:04")
}

// msTimeISO renders an epoch-milliseconds field as RFC 3339, or nil when the
// problem is still open (endTime is -1).
func msTimeISO(m dynatrace.Object, key string) any {
	ms, ok := m[key].(float64)
	if !ok || ms <= 0 {
		return nil
	}
	return time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339)
}
