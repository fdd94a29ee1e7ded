// Package config loads the fleet configuration: credential sets, client
// machines with their log sources, and the LLM endpoint settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Lookup failures are fatal for a single client only; callers convert them
// into collection-level errors rather than letting them escape the pipeline.
var (
	ErrClientNotFound      = errors.New("client not found in configuration")
	ErrCredentialsNotFound = errors.New("credential set not found in configuration")
)

// Credential is one named credential set for remote access
type Credential struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Domain   string `yaml:"domain"`
}

// Client describes one machine in the fleet
type Client struct {
	Name        string              `yaml:"name"`
	Hostname    string              `yaml:"hostname"`
	IP          string              `yaml:"ip"`
	Credentials string              `yaml:"credentials"`
	LogPaths    map[string][]string `yaml:"log_paths"`
	Commands    []string            `yaml:"powershell_commands"`

	// resolved once at load time
	commandSpecs []CommandSpec
}

// CommandSpecs returns the tagged command descriptors for this client.
// Load resolves them up front; configs built in code resolve on first use.
// Either way each template is parsed exactly once.
func (c *Client) CommandSpecs() []CommandSpec {
	if c.commandSpecs == nil && len(c.Commands) > 0 {
		c.commandSpecs = ResolveCommands(c.Commands)
	}
	return c.commandSpecs
}

// LLM holds the chat-completion endpoint settings
type LLM struct {
	Endpoint     string  `yaml:"endpoint"`
	Model        string  `yaml:"model"`
	MaxTokens    int     `yaml:"max_tokens"`
	Temperature  float64 `yaml:"temperature"`
	SystemPrompt string  `yaml:"system_prompt"`
}

// Config is the full loaded configuration
type Config struct {
	Credentials map[string]Credential `yaml:"credentials"`
	Clients     []Client              `yaml:"clients"`
	LLM         LLM                   `yaml:"llm_config"`

	TailLines  int           `yaml:"log_tail_lines"`
	ListenAddr string        `yaml:"listen_addr"`
	CacheSize  int           `yaml:"cache_size"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// Load reads YAML config from path, applies FLEETLENS_* env overrides,
// resolves command templates into tagged descriptors, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	for i := range cfg.Clients {
		cfg.Clients[i].commandSpecs = ResolveCommands(cfg.Clients[i].Commands)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TailLines <= 0 {
		c.TailLines = 2000
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8000"
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 256
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 4000
	}
	if c.LLM.Temperature <= 0 {
		c.LLM.Temperature = 0.1
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FLEETLENS_LLM_ENDPOINT"); v != "" {
		c.LLM.Endpoint = v
	}
	if v := os.Getenv("FLEETLENS_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("FLEETLENS_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("FLEETLENS_TAIL_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.TailLines = n
		}
	}
}

func (c *Config) validate() error {
	if c.LLM.Endpoint == "" {
		return errors.New("llm_config.endpoint is required")
	}
	if c.LLM.Model == "" {
		return errors.New("llm_config.model is required")
	}
	seen := make(map[string]bool, len(c.Clients))
	for _, cl := range c.Clients {
		if cl.Name == "" {
			return errors.New("client with empty name")
		}
		if seen[cl.Name] {
			return fmt.Errorf("duplicate client name %q", cl.Name)
		}
		seen[cl.Name] = true
		if _, ok := c.Credentials[cl.Credentials]; !ok {
			return fmt.Errorf("client %q references unknown credential set %q", cl.Name, cl.Credentials)
		}
	}
	return nil
}

// FindClient returns the configured client by name
func (c *Config) FindClient(name string) (*Client, error) {
	for i := range c.Clients {
		if c.Clients[i].Name == name {
			return &c.Clients[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrClientNotFound, name)
}

// CredentialFor resolves the credential set referenced by a client
func (c *Config) CredentialFor(client *Client) (Credential, error) {
	cred, ok := c.Credentials[client.Credentials]
	if !ok {
		return Credential{}, fmt.Errorf("%w: %q", ErrCredentialsNotFound, client.Credentials)
	}
	return cred, nil
}

// ClientNames returns all configured client names in config order
func (c *Config) ClientNames() []string {
	names := make([]string, len(c.Clients))
	for i, cl := range c.Clients {
		names[i] = cl.Name
	}
	return names
}
