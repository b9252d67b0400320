package agentutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/a2aproject/a2a-go/a2a"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dynagent.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

// clearEnv unsets every DYNAGENT_* var the loader reads, restoring on cleanup.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DYNAGENT_MODEL_VENDOR", "DYNAGENT_MODEL_NAME", "DYNAGENT_API_KEY",
		"DYNAGENT_AGENT_ADDR", "DYNAGENT_DT_URL", "DYNAGENT_DT_TOKEN",
		"DYNAGENT_HOST_URL", "DYNAGENT_CONFIG",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// --- loadConfig ---

func TestLoadConfig_FileOnly(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
model_vendor: gemini
model_name: gemini-2.0-flash
api_key: file-key
dynatrace_url: https://abc123.live.dynatrace.com/
dynatrace_token: dt0c01.XYZ
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.ModelVendor != "gemini" {
		t.Errorf("ModelVendor = %q, want gemini", cfg.ModelVendor)
	}
	if cfg.APIKey != "file-key" {
		t.Errorf("APIKey = %q, want file-key", cfg.APIKey)
	}
	if cfg.DynatraceURL != "https://abc123.live.dynatrace.com/" {
		t.Errorf("DynatraceURL = %q", cfg.DynatraceURL)
	}
}

func TestLoadConfig_EnvWinsOverFile(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
model_vendor: gemini
api_key: file-key
`)
	t.Setenv("DYNAGENT_API_KEY", "env-key")
	t.Setenv("DYNAGENT_MODEL_NAME", "claude-sonnet-4-5")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key (env must win)", cfg.APIKey)
	}
	if cfg.ModelVendor != "gemini" {
		t.Errorf("ModelVendor = %q, want gemini (file value kept)", cfg.ModelVendor)
	}
	if cfg.ModelName != "claude-sonnet-4-5" {
		t.Errorf("ModelName = %q, want claude-sonnet-4-5", cfg.ModelName)
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DYNAGENT_MODEL_VENDOR", "anthropic")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.ModelVendor != "anthropic" {
		t.Errorf("ModelVendor = %q, want anthropic", cfg.ModelVendor)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "model_vendor: [unclosed")
	if _, err := loadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

// --- applyCardOptions ---

func testCard() *a2a.AgentCard {
	return &a2a.AgentCard{
		Name: "dynatrace_agent",
		Skills: []a2a.AgentSkill{
			{ID: "get_problems", Name: "Get Open Problems", Tags: []string{"problems"}},
			{ID: "query", Name: "Natural Language Query"},
		},
	}
}

func TestApplyCardOptions_MergesTagsAndExamples(t *testing.T) {
	card := testCard()
	applyCardOptions(card, CardOptions{
		Version: "1.0.0",
		SkillTags: map[string][]string{
			"get_problems": {"alerts", "davis"},
		},
		SkillExamples: map[string][]string{
			"query": {"How many hosts are monitored?"},
		},
	})

	if card.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", card.Version)
	}
	got := card.Skills[0].Tags
	want := []string{"problems", "alerts", "davis"}
	if len(got) != len(want) {
		t.Fatalf("Tags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tags[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if len(card.Skills[1].Examples) != 1 {
		t.Errorf("query Examples = %v, want one entry", card.Skills[1].Examples)
	}
}

func TestApplyCardOptions_UnknownSkillIgnored(t *testing.T) {
	card := testCard()
	applyCardOptions(card, CardOptions{
		SkillTags: map[string][]string{"no_such_skill": {"x"}},
	})
	if len(card.Skills[0].Tags) != 1 || len(card.Skills[1].Tags) != 0 {
		t.Errorf("tags changed for unmatched skill id: %+v", card.Skills)
	}
}

func TestApplyCardOptions_ProviderAndDocs(t *testing.T) {
	card := testCard()
	applyCardOptions(card, CardOptions{
		DocumentationURL: "https://example.com/docs",
		Provider:         &a2a.AgentProvider{Org: "Dynagent"},
	})
	if card.DocumentationURL != "https://example.com/docs" {
		t.Errorf("DocumentationURL = %q", card.DocumentationURL)
	}
	if card.Provider == nil || card.Provider.Org != "Dynagent" {
		t.Errorf("Provider = %+v, want Org Dynagent", card.Provider)
	}
}
