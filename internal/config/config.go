package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const DefaultPath = "secrets.toml"

// Model backends.
const (
	ProviderLangChain = "langchain"
	ProviderGenAI     = "genai"
)

var (
	ErrMissingAPIKey         = errors.New("GEMINI_API_KEY not found in config")
	ErrMissingSheet          = errors.New("GSHEET_NAME or spreadsheet_id must be set")
	ErrMissingServiceAccount = errors.New("gcp_service_account block is missing client_email or private_key")
)

// ServiceAccount mirrors the JSON key file Google issues for a service
// account, so it can be marshalled straight back into credentials JSON.
type ServiceAccount struct {
	Type                    string `toml:"type" json:"type"`
	ProjectID               string `toml:"project_id" json:"project_id"`
	PrivateKeyID            string `toml:"private_key_id" json:"private_key_id"`
	PrivateKey              string `toml:"private_key" json:"private_key"`
	ClientEmail             string `toml:"client_email" json:"client_email"`
	ClientID                string `toml:"client_id" json:"client_id"`
	AuthURI                 string `toml:"auth_uri" json:"auth_uri"`
	TokenURI                string `toml:"token_uri" json:"token_uri"`
	AuthProviderX509CertURL string `toml:"auth_provider_x509_cert_url" json:"auth_provider_x509_cert_url,omitempty"`
	ClientX509CertURL       string `toml:"client_x509_cert_url" json:"client_x509_cert_url,omitempty"`
	UniverseDomain          string `toml:"universe_domain" json:"universe_domain,omitempty"`
}

// JSON returns the credentials file form of the service account.
func (s ServiceAccount) JSON() ([]byte, error) {
	if s.Type == "" {
		s.Type = "service_account"
	}
	if s.TokenURI == "" {
		s.TokenURI = "https://oauth2.googleapis.com/token"
	}
	return json.Marshal(s)
}

// Tracker holds the optional settings of the [tracker] table. Durations are
// Go duration strings ("30s", "15m").
type Tracker struct {
	SpreadsheetID        string `toml:"spreadsheet_id"`
	Worksheet            string `toml:"worksheet"`
	Model                string `toml:"model"`
	LLMProvider          string `toml:"llm_provider"`
	ListenAddr           string `toml:"listen_addr"`
	DatabaseURL          string `toml:"database_url"`
	CacheTTL             string `toml:"cache_ttl"`
	RequestTimeout       string `toml:"request_timeout"`
	LLMMaxAttempts       int    `toml:"llm_max_attempts"`
	LLMRetryDelay        string `toml:"llm_retry_delay"`
	InboxEnabled         bool   `toml:"inbox_enabled"`
	InboxInterval        string `toml:"inbox_interval"`
	GmailCredentialsFile string `toml:"gmail_credentials_file"`
	GmailTokenFile       string `toml:"gmail_token_file"`
	LogLevel             string `toml:"log_level"`
}

type file struct {
	SheetName      string         `toml:"GSHEET_NAME"`
	GeminiAPIKey   string         `toml:"GEMINI_API_KEY"`
	ServiceAccount ServiceAccount `toml:"gcp_service_account"`
	Tracker        Tracker        `toml:"tracker"`
}

// Config is the resolved process configuration. It is built once at start
// and passed to whatever needs it.
type Config struct {
	SheetName      string
	SpreadsheetID  string
	Worksheet      string
	GeminiAPIKey   string
	ServiceAccount ServiceAccount

	Model       string
	LLMProvider string

	ListenAddr     string
	DatabaseURL    string
	CacheTTL       time.Duration
	RequestTimeout time.Duration

	LLMMaxAttempts int
	LLMRetryDelay  time.Duration

	InboxEnabled         bool
	InboxInterval        time.Duration
	GmailCredentialsFile string
	GmailTokenFile       string

	LogLevel string
}

// Load reads the TOML secrets file at path and applies environment
// overrides. A missing file is only an error when required is set.
func Load(path string, required bool) (*Config, error) {
	var f file
	if path == "" {
		path = DefaultPath
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(&f)
	return resolve(f)
}

func applyEnv(f *file) {
	setString(&f.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&f.SheetName, "GSHEET_NAME")
	setString(&f.Tracker.SpreadsheetID, "SPREADSHEET_ID")
	setString(&f.Tracker.Worksheet, "WORKSHEET")
	setString(&f.Tracker.Model, "GEMINI_MODEL")
	setString(&f.Tracker.LLMProvider, "LLM_PROVIDER")
	setString(&f.Tracker.ListenAddr, "LISTEN_ADDR")
	setString(&f.Tracker.DatabaseURL, "DATABASE_URL")
	setString(&f.Tracker.LogLevel, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func resolve(f file) (*Config, error) {
	t := f.Tracker
	cfg := &Config{
		SheetName:            strings.TrimSpace(f.SheetName),
		SpreadsheetID:        strings.TrimSpace(t.SpreadsheetID),
		Worksheet:            orDefault(t.Worksheet, "Applications"),
		GeminiAPIKey:         strings.TrimSpace(f.GeminiAPIKey),
		ServiceAccount:       f.ServiceAccount,
		Model:                orDefault(t.Model, "gemini-2.5-flash"),
		LLMProvider:          strings.ToLower(orDefault(t.LLMProvider, ProviderLangChain)),
		ListenAddr:           orDefault(t.ListenAddr, ":8080"),
		DatabaseURL:          strings.TrimSpace(t.DatabaseURL),
		LLMMaxAttempts:       t.LLMMaxAttempts,
		InboxEnabled:         t.InboxEnabled,
		GmailCredentialsFile: orDefault(t.GmailCredentialsFile, "credential.json"),
		GmailTokenFile:       orDefault(t.GmailTokenFile, "token.json"),
		LogLevel:             strings.ToLower(orDefault(t.LogLevel, "info")),
	}
	if cfg.LLMMaxAttempts <= 0 {
		cfg.LLMMaxAttempts = 3
	}

	var err error
	if cfg.CacheTTL, err = duration("cache_ttl", t.CacheTTL, 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = duration("request_timeout", t.RequestTimeout, 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.LLMRetryDelay, err = duration("llm_retry_delay", t.LLMRetryDelay, 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.InboxInterval, err = duration("inbox_interval", t.InboxInterval, 15*time.Minute); err != nil {
		return nil, err
	}

	// cache_ttl = 0 turns the read cache off; the rest must be positive.
	for _, d := range []struct {
		key      string
		v        time.Duration
		positive bool
	}{
		{"cache_ttl", cfg.CacheTTL, false},
		{"llm_retry_delay", cfg.LLMRetryDelay, false},
		{"request_timeout", cfg.RequestTimeout, true},
		{"inbox_interval", cfg.InboxInterval, true},
	} {
		if d.v < 0 || (d.positive && d.v == 0) {
			return nil, fmt.Errorf("invalid value for %s: %s is out of range", d.key, d.v)
		}
	}

	switch cfg.LLMProvider {
	case ProviderLangChain, ProviderGenAI:
	default:
		return nil, fmt.Errorf("invalid llm_provider %q: expected langchain or genai", cfg.LLMProvider)
	}
	return cfg, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func duration(key, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	// bare integers are seconds
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected a duration, got '%s'", key, raw)
	}
	return d, nil
}

// RequireLLM reports whether the model can be called.
func (c *Config) RequireLLM() error {
	if c.GeminiAPIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// RequireSheet reports whether the spreadsheet can be reached.
func (c *Config) RequireSheet() error {
	if c.SheetName == "" && c.SpreadsheetID == "" {
		return ErrMissingSheet
	}
	if c.ServiceAccount.ClientEmail == "" || c.ServiceAccount.PrivateKey == "" {
		return ErrMissingServiceAccount
	}
	return nil
}
