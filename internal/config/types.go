package config

import "time"

// Config is the top-level langbridge configuration.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Run       RunConfig       `json:"run"`
	Dashboard DashboardConfig `json:"dashboard"`
	Chat      ChatConfig      `json:"chat"`
}

// ServerConfig locates the LangGraph deployment.
type ServerConfig struct {
	URL         string `json:"url"`
	AssistantID string `json:"assistant_id"`
	APIKey      string `json:"api_key,omitempty"`
	Timeout     string `json:"timeout"`
}

// ParseTimeout returns the request timeout for non-streaming calls.
func (s ServerConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// RunConfig holds per-run settings forwarded to the graph.
type RunConfig struct {
	ModelName  string `json:"model_name"`
	StreamMode string `json:"stream_mode"`
}

// DashboardConfig holds the web bridge settings.
type DashboardConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// AllowedOrigins lists extra browser origin hosts (path.Match patterns
	// such as "localhost:3000") allowed to open the websocket. Same-origin
	// pages are always allowed.
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
}

// ChatConfig holds interactive chat settings.
type ChatConfig struct {
	// Preset names the system prompt seeded into new conversations.
	Preset string `json:"preset"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			URL:     "http://127.0.0.1:5000",
			Timeout: "30s",
		},
		Run: RunConfig{
			ModelName:  "openai",
			StreamMode: "messages",
		},
		Dashboard: DashboardConfig{
			Host: "127.0.0.1",
			Port: 4099,
		},
		Chat: ChatConfig{
			Preset: "default",
		},
	}
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Server.APIKey != "" {
		c.Server.APIKey = "********"
	}
	return c
}
