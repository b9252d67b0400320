package prompts

import (
	"strings"
	"testing"
)

func TestPrompts_NonEmpty(t *testing.T) {
	prompts := map[string]string{
		"Joke":    Joke,
		"Analyst": Analyst,
	}

	for name, content := range prompts {
		t.Run(name, func(t *testing.T) {
			if content == "" {
				t.Errorf("%s prompt is empty", name)
			}
			if len(content) < 100 {
				t.Errorf("%s prompt suspiciously short: %d bytes", name, len(content))
			}
		})
	}
}

func TestPrompts_ExpectedKeywords(t *testing.T) {
	cases := []struct {
		name     string
		content  string
		keywords []string
	}{
		{"Joke", Joke, []string{"joke", "family-friendly"}},
		{"Analyst", Analyst, []string{"Dynatrace", "Davis"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for _, kw := range c.keywords {
				if !strings.Contains(c.content, kw) {
					t.Errorf("%s prompt missing keyword %q", c.name, kw)
				}
			}
		})
	}
}
