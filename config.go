package onramp

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the engine configuration. It can
// be populated from JSON or YAML. The zero-value is useful – all nested
// fields inherit their package defaults.

type Config struct {
	Domain      string            `json:"domain" yaml:"domain"`
	Ticketing   TicketingConfig   `json:"ticketing" yaml:"ticketing"`
	Secrets     SecretsConfig     `json:"secrets" yaml:"secrets"`
	Screenshots ScreenshotsConfig `json:"screenshots" yaml:"screenshots"`
	Email       EmailConfig       `json:"email" yaml:"email"`
	Approval    ApprovalConfig    `json:"approval" yaml:"approval"`
	Storage     StorageConfig     `json:"storage" yaml:"storage"`
}

// TicketingConfig locates the external ticketing system.
type TicketingConfig struct {
	BaseURL string `json:"baseURL" yaml:"baseURL"`
}

// SecretsConfig configures the secret store.
type SecretsConfig struct {
	BaseURL string `json:"baseURL" yaml:"baseURL"`
	Prefix  string `json:"prefix" yaml:"prefix"`
	Key     string `json:"key" yaml:"key"`
}

// ScreenshotsConfig roots the screenshot object storage.
type ScreenshotsConfig struct {
	BaseURL string `json:"baseURL" yaml:"baseURL"`
}

// EmailConfig configures outbound sign-off mail.
type EmailConfig struct {
	Sender string `json:"sender" yaml:"sender"`
}

// ApprovalConfig overrides the per-type approval timeouts; zero values keep
// the type defaults (ticket creation 24h, environment progression 48h,
// production deployment 72h, credential issuance 24h).
type ApprovalConfig struct {
	TicketCreation     time.Duration `json:"ticketCreation" yaml:"ticketCreation"`
	EnvProgression     time.Duration `json:"envProgression" yaml:"envProgression"`
	ProdDeployment     time.Duration `json:"prodDeployment" yaml:"prodDeployment"`
	CredentialIssuance time.Duration `json:"credentialIssuance" yaml:"credentialIssuance"`
}

// StorageConfig selects the persistence backing. Empty BaseURL keeps the
// in-memory stores; a file or cloud URL switches threads and audit entries
// to the filesystem stores rooted there.
type StorageConfig struct {
	BaseURL string `json:"baseURL" yaml:"baseURL"`
}

// DefaultConfig returns a Config populated with the same defaults the
// constructors apply. Callers may modify the returned struct before passing
// it to New via WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Domain:      "example.com",
		Ticketing:   TicketingConfig{BaseURL: "https://servicenow.example.com"},
		Secrets:     SecretsConfig{BaseURL: "mem://localhost/secrets", Prefix: "onboarding"},
		Screenshots: ScreenshotsConfig{BaseURL: "mem://localhost/screenshots"},
		Email:       EmailConfig{Sender: "onboarding"},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Domain == "" {
		return fmt.Errorf("domain must not be empty")
	}
	for name, timeout := range map[string]time.Duration{
		"approval.ticketCreation":     c.Approval.TicketCreation,
		"approval.envProgression":     c.Approval.EnvProgression,
		"approval.prodDeployment":     c.Approval.ProdDeployment,
		"approval.credentialIssuance": c.Approval.CredentialIssuance,
	} {
		if timeout < 0 {
			return fmt.Errorf("%v must not be negative", name)
		}
	}
	return nil
}

// LoadConfig reads a YAML config from the supplied URL (file, memory or any
// scheme viant/afs supports) on top of the defaults.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	config := DefaultConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %v: %w", URL, err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
