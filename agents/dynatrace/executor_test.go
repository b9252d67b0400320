package main

import (
	"context"
	"strings"
	"testing"

	"github.com/a2aproject/a2a-go/a2a"

	"dynagent/internal/dynatrace"
)

func messageOf(texts ...string) *a2a.Message {
	var parts []a2a.Part
	for _, t := range texts {
		parts = append(parts, a2a.TextPart{Text: t})
	}
	return &a2a.Message{Role: a2a.MessageRoleUser, Parts: parts}
}

func TestRespond_BlankQueryReturnsHelpWithoutCalls(t *testing.T) {
	platform := newFakePlatform()
	llm := &fakeLLM{}
	exec := NewExecutor(NewAgent(platform, llm))

	text, ok := exec.respond(context.Background(), "   \n\t")
	if !ok {
		t.Fatal("help reply should not be a failure")
	}
	if !strings.Contains(text, "open problems") || !strings.Contains(text, "Analyze problem") {
		t.Errorf("help text missing usage hints: %q", text)
	}
	if len(platform.calls) != 0 {
		t.Errorf("blank query must not hit the platform, got %v", platform.calls)
	}
	if llm.calls != 0 {
		t.Errorf("blank query must not hit the model")
	}
}

func TestRespond_RoutesListProblems(t *testing.T) {
	platform := newFakePlatform()
	platform.problems = dynatrace.Object{"problems": []any{}}
	llm := &fakeLLM{}
	exec := NewExecutor(NewAgent(platform, llm))

	text, ok := exec.respond(context.Background(), "Show me open problems")
	if !ok {
		t.Fatalf("unexpected failure: %q", text)
	}
	if platform.calls["GetProblems"] != 1 || len(platform.calls) != 1 {
		t.Errorf("want exactly one GetProblems call, got %v", platform.calls)
	}
	// The list skill formats directly; a model call means the message fell
	// through to the free-form query route.
	if llm.calls != 0 {
		t.Errorf("listing problems should not call the model")
	}
}

func TestRespond_SkillErrorBecomesFailureText(t *testing.T) {
	platform := newFakePlatform()
	platform.err = &dynatrace.APIError{Status: 500, Body: "internal error"}
	exec := NewExecutor(NewAgent(platform, &fakeLLM{}))

	text, ok := exec.respond(context.Background(), "Show me open problems")
	if ok {
		t.Fatal("API failure should be reported as a failed reply")
	}
	if !strings.Contains(text, "error") || !strings.Contains(text, "500") {
		t.Errorf("failure text should describe the error: %q", text)
	}
}

func TestRespond_ProblemIDRoutesToAnalysis(t *testing.T) {
	platform := newFakePlatform()
	platform.problem = sampleProblem()
	platform.deployments = dynatrace.Object{"events": []any{}}
	exec := NewExecutor(NewAgent(platform, &fakeLLM{answer: "root cause found"}))

	text, ok := exec.respond(context.Background(), "show problems for P-12345678")
	if !ok {
		t.Fatalf("unexpected failure: %q", text)
	}
	if platform.calls["GetProblemDetails"] != 1 {
		t.Errorf("mentioning a problem id must trigger analysis, got %v", platform.calls)
	}
	if platform.calls["GetProblems"] != 0 {
		t.Errorf("analysis must not also list problems, got %v", platform.calls)
	}
}

func TestTextOfMessage(t *testing.T) {
	if _, ok := textOfMessage(messageOf()); ok {
		t.Error("message without text parts should report no text")
	}
	text, ok := textOfMessage(messageOf("hello", "world"))
	if !ok || text != "hello\nworld" {
		t.Errorf("textOfMessage = %q, %v", text, ok)
	}
}
