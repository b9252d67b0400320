// Package agentutil provides the SDK surface for building dynagent agents.
// It extracts the boilerplate duplicated across agents: config loading,
// LLM creation, and A2A server startup.
package agentutil

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/joho/godotenv"
	"google.golang.org/genai"
	"gopkg.in/yaml.v3"

	"google.golang.org/adk/agent"
	adkmodel "google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/server/adka2a"
	"google.golang.org/adk/session"

	"dynagent/internal/logging"
	"dynagent/internal/model"
)

// Config holds common agent configuration from DYNAGENT_* env vars.
type Config struct {
	ModelVendor string `yaml:"model_vendor"`
	ModelName   string `yaml:"model_name"`
	APIKey      string `yaml:"api_key"`
	ListenAddr  string `yaml:"listen_addr"`

	// Dynatrace connection, used only by the dynatrace agent.
	DynatraceURL   string `yaml:"dynatrace_url"`
	DynatraceToken string `yaml:"dynatrace_token"`

	// HostURL overrides the public URL advertised in the agent card,
	// for deployments behind a proxy.
	HostURL string `yaml:"host_url"`
}

// MustLoadConfig reads configuration. Values come from an optional YAML file
// named by DYNAGENT_CONFIG, overridden by DYNAGENT_* env vars; a .env file in
// the working directory is honoured. defaultAddr is used when
// DYNAGENT_AGENT_ADDR is unset. Exits the process if required vars
// (MODEL_VENDOR, MODEL_NAME, API_KEY) are missing.
// It also initialises structured logging via logging.InitLogging.
func MustLoadConfig(defaultAddr string) Config {
	logging.InitLogging(os.Args[1:])

	// Best effort: absence of a .env file is the normal case.
	_ = godotenv.Load()

	cfg, err := loadConfig(os.Getenv("DYNAGENT_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	if cfg.ModelVendor == "" || cfg.ModelName == "" || cfg.APIKey == "" {
		slog.Error("missing required configuration: DYNAGENT_MODEL_VENDOR, DYNAGENT_MODEL_NAME, DYNAGENT_API_KEY")
		os.Exit(1)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultAddr
	}

	return cfg
}

// loadConfig parses the optional YAML config file at path and overlays
// DYNAGENT_* env vars on top. Env wins over file values.
func loadConfig(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	overlay := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	overlay(&cfg.ModelVendor, "DYNAGENT_MODEL_VENDOR")
	overlay(&cfg.ModelName, "DYNAGENT_MODEL_NAME")
	overlay(&cfg.APIKey, "DYNAGENT_API_KEY")
	overlay(&cfg.ListenAddr, "DYNAGENT_AGENT_ADDR")
	overlay(&cfg.DynatraceURL, "DYNAGENT_DT_URL")
	overlay(&cfg.DynatraceToken, "DYNAGENT_DT_TOKEN")
	overlay(&cfg.HostURL, "DYNAGENT_HOST_URL")

	return cfg, nil
}

// RequireDynatrace exits the process unless the Dynatrace URL and token are
// configured. The URL is returned with any trailing slash removed.
func (c Config) RequireDynatrace() (baseURL, token string) {
	if c.DynatraceURL == "" || c.DynatraceToken == "" {
		slog.Error("missing required configuration: DYNAGENT_DT_URL, DYNAGENT_DT_TOKEN")
		os.Exit(1)
	}
	return strings.TrimSuffix(c.DynatraceURL, "/"), c.DynatraceToken
}

// NewLLM creates an LLM model based on Config.ModelVendor (gemini or anthropic).
func NewLLM(ctx context.Context, cfg Config) (adkmodel.LLM, error) {
	switch strings.ToLower(cfg.ModelVendor) {
	case "google", "gemini":
		llm, err := gemini.NewModel(ctx, cfg.ModelName, &genai.ClientConfig{APIKey: cfg.APIKey})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini model: %v", err)
		}
		slog.Info("using model", "vendor", "gemini", "model", cfg.ModelName)
		return llm, nil

	case "anthropic":
		llm, err := model.NewAnthropicModel(ctx, cfg.ModelName, cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create Anthropic model: %v", err)
		}
		slog.Info("using model", "vendor", "anthropic", "model", cfg.ModelName)
		return llm, nil

	default:
		return nil, fmt.Errorf("unknown model vendor: %s (supported: google, gemini, anthropic)", cfg.ModelVendor)
	}
}

// CardOptions allows agents to customize the AgentCard beyond the defaults
// that Serve derives automatically from the ADK agent.
type CardOptions struct {
	// Version is the agent's version string (e.g., "1.0.0").
	Version string

	// DocumentationURL points to the agent's documentation.
	DocumentationURL string

	// Provider describes the organization providing this agent.
	Provider *a2a.AgentProvider

	// SkillTags maps a skill ID to additional tags to merge onto the
	// auto-generated skills. Skill IDs follow the ADK pattern:
	// "agentName" for the model skill, "agentName-toolName" for tool skills.
	SkillTags map[string][]string

	// SkillExamples maps a skill ID to example prompts/scenarios.
	SkillExamples map[string][]string
}

// applyCardOptions merges optional metadata onto an AgentCard.
func applyCardOptions(card *a2a.AgentCard, opts CardOptions) {
	if opts.Version != "" {
		card.Version = opts.Version
	}
	if opts.DocumentationURL != "" {
		card.DocumentationURL = opts.DocumentationURL
	}
	if opts.Provider != nil {
		card.Provider = opts.Provider
	}
	for i := range card.Skills {
		skill := &card.Skills[i]
		if tags, ok := opts.SkillTags[skill.ID]; ok {
			skill.Tags = append(skill.Tags, tags...)
		}
		if examples, ok := opts.SkillExamples[skill.ID]; ok {
			skill.Examples = examples
		}
	}
}

// agentPath is where the JSON-RPC handler is mounted on every agent server.
const agentPath = "/invoke"

// Serve starts an A2A server for the given ADK agent on cfg.ListenAddr.
// It sets up the agent card, JSON-RPC handler, in-memory session service, and blocks.
// An optional CardOptions can be passed to enrich the agent card with additional metadata.
func Serve(ctx context.Context, a agent.Agent, cfg Config, opts ...CardOptions) error {
	agentCard := &a2a.AgentCard{
		Name:               a.Name(),
		Description:        a.Description(),
		Skills:             adka2a.BuildAgentSkills(a),
		PreferredTransport: a2a.TransportProtocolJSONRPC,
		Capabilities:       a2a.AgentCapabilities{Streaming: true},
	}

	if len(opts) > 0 {
		applyCardOptions(agentCard, opts[0])
	}

	executor := adka2a.NewExecutor(adka2a.ExecutorConfig{
		RunnerConfig: runner.Config{
			AppName:        a.Name(),
			Agent:          a,
			SessionService: session.InMemoryService(),
		},
	})

	return ServeExecutor(ctx, agentCard, executor, cfg)
}

// ServeExecutor starts an A2A server for a hand-written a2asrv.AgentExecutor.
// The card's URL is derived from the bound listener unless cfg.HostURL is set.
func ServeExecutor(ctx context.Context, agentCard *a2a.AgentCard, executor a2asrv.AgentExecutor, cfg Config) error {
	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %v", cfg.ListenAddr, err)
	}

	baseURL := &url.URL{Scheme: "http", Host: listener.Addr().String()}
	if cfg.HostURL != "" {
		public, err := url.Parse(strings.TrimSuffix(cfg.HostURL, "/"))
		if err != nil {
			return fmt.Errorf("invalid DYNAGENT_HOST_URL %q: %v", cfg.HostURL, err)
		}
		agentCard.URL = public.JoinPath(agentPath).String()
	} else {
		agentCard.URL = baseURL.JoinPath(agentPath).String()
	}

	mux := http.NewServeMux()
	mux.Handle(a2asrv.WellKnownAgentCardPath, a2asrv.NewStaticAgentCardHandler(agentCard))

	requestHandler := a2asrv.NewHandler(executor)
	mux.Handle(agentPath, a2asrv.NewJSONRPCHandler(requestHandler))

	slog.Info("starting A2A server",
		"agent", agentCard.Name,
		"url", baseURL.String(),
		"card", baseURL.String()+"/.well-known/agent-card.json",
	)

	return http.Serve(listener, mux)
}
