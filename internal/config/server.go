package config

import (
	"fmt"
	"os"

	"github.com/AtDexters-Lab/nexus-interview/internal/hostnames"
	"gopkg.in/yaml.v3"
)

// DefaultQuestions is the question bank used when the server configuration lists none.
var DefaultQuestions = []string{
	"Tell me about yourself and what drew you to this role.",
	"Describe a project from your resume that you are most proud of. What was your contribution?",
	"Tell me about a time you disagreed with a teammate. How did you resolve it?",
	"Which requirement of this job description do you expect to be the hardest for you, and why?",
	"Walk me through how you would debug a production incident you have never seen before.",
}

// ServerConfig holds the development interview server configuration.
type ServerConfig struct {
	ListenAddress string   `yaml:"listenAddress"`
	Questions     []string `yaml:"questions"`
	MaxQuestions  int      `yaml:"maxQuestions"`

	// Manual TLS configuration
	TlsCertFile string `yaml:"tlsCertFile"`
	TlsKeyFile  string `yaml:"tlsKeyFile"`

	// Automatic TLS configuration via ACME
	PublicHostname string `yaml:"publicHostname"`
	AcmeCacheDir   string `yaml:"acmeCacheDir"`
}

// TLSMode reports how the server terminates TLS.
func (c *ServerConfig) TLSMode() string {
	switch {
	case c.PublicHostname != "":
		return "acme"
	case c.TlsCertFile != "":
		return "manual"
	default:
		return "none"
	}
}

func (c *ServerConfig) applyDefaults() {
	if len(c.Questions) == 0 {
		c.Questions = append([]string(nil), DefaultQuestions...)
	}
	if c.MaxQuestions == 0 || c.MaxQuestions > len(c.Questions) {
		c.MaxQuestions = len(c.Questions)
	}
}

func (c *ServerConfig) validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listenAddress must be set")
	}
	if c.MaxQuestions < 0 {
		return fmt.Errorf("maxQuestions cannot be negative")
	}

	manualTls := c.TlsCertFile != "" || c.TlsKeyFile != ""
	automaticTls := c.PublicHostname != ""
	if manualTls && automaticTls {
		return fmt.Errorf("cannot specify both manual TLS (tlsCertFile/tlsKeyFile) and automatic TLS (publicHostname) settings")
	}
	if manualTls && (c.TlsCertFile == "" || c.TlsKeyFile == "") {
		return fmt.Errorf("both tlsCertFile and tlsKeyFile must be set for manual TLS")
	}
	if automaticTls {
		c.PublicHostname = hostnames.Normalize(c.PublicHostname)
	}
	return nil
}

// LoadServerConfig reads the development server configuration from the given
// file path, unmarshals it, applies defaults and performs validation.
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file at %s: %w", path, err)
	}

	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml from %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
