// Package config loads the door controller's configuration from command-line
// flags, BARON_ environment variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Code source kinds accepted by --code-source.
const (
	SourceFile   = "file"
	SourceHTTP   = "http"
	SourceGitHub = "github"
)

// Defaults for optional settings.
const (
	DefaultGateEndpoint = "http://api.noisebridge.net/gate/"
	DefaultGateTimeout  = 10 * time.Second
	DefaultIdleTimeout  = 10 * time.Second
)

// EnvPrefix prefixes every environment override, e.g. BARON_CODEFILE.
const EnvPrefix = "BARON"

// ErrInvalid is wrapped by every validation failure returned from Load.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the validated process configuration.
type Config struct {
	Port         string
	CodeSource   string
	CodeFile     string
	CodeURL      string
	GitHubToken  string
	GitHubRepo   string
	GitHubPath   string
	GitHubRef    string
	LogFile      string
	Debug        bool
	SelfTest     bool
	Promiscuous  bool
	GateEndpoint string
	GateTimeout  time.Duration
	IdleTimeout  time.Duration
	ListenAddr   string
	DBPath       string
}

// HasStatusAPI reports whether the read-only status server should run.
func (c *Config) HasStatusAPI() bool { return c.ListenAddr != "" }

// HasAuditStore reports whether attempts are persisted.
func (c *Config) HasAuditStore() bool { return c.DBPath != "" }

// RegisterFlags defines every configuration flag on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "optional config file (yaml, toml or json)")
	fs.String("port", "", "serial device the keypad is attached to")
	fs.String("code-source", SourceFile, "where codes come from: file, http or github")
	fs.String("codefile", "", "code list path when --code-source=file")
	fs.String("code-url", "", "code list URL when --code-source=http")
	fs.String("github-token", "", "GitHub token when --code-source=github")
	fs.String("github-repo", "", "owner/name of the repository holding the code list")
	fs.String("github-path", "", "path of the code list inside --github-repo")
	fs.String("github-ref", "", "branch, tag or commit to read (default branch when empty)")
	fs.String("logfile", "", "append logs to this file instead of stdout")
	fs.Bool("debug", false, "log at debug level")
	fs.Bool("test", false, "run the keypad self-test and exit")
	fs.Bool("promiscuous", false, "open the gate for any key")
	fs.String("gate-endpoint", DefaultGateEndpoint, "gate trigger URL")
	fs.Duration("gate-timeout", DefaultGateTimeout, "gate trigger request timeout")
	fs.Duration("idle-timeout", DefaultIdleTimeout, "clear a half-typed code after this much inactivity")
	fs.String("listen-addr", "", "status API listen address (disabled when empty)")
	fs.String("db-path", "", "attempt history database (disabled when empty)")
}

// Load resolves configuration from fs, the environment and the optional config
// file, in that order of precedence, and validates the result.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:         v.GetString("port"),
		CodeSource:   strings.ToLower(strings.TrimSpace(v.GetString("code-source"))),
		CodeFile:     v.GetString("codefile"),
		CodeURL:      v.GetString("code-url"),
		GitHubToken:  v.GetString("github-token"),
		GitHubRepo:   v.GetString("github-repo"),
		GitHubPath:   v.GetString("github-path"),
		GitHubRef:    v.GetString("github-ref"),
		LogFile:      v.GetString("logfile"),
		Debug:        v.GetBool("debug"),
		SelfTest:     v.GetBool("test"),
		Promiscuous:  v.GetBool("promiscuous"),
		GateEndpoint: v.GetString("gate-endpoint"),
		GateTimeout:  v.GetDuration("gate-timeout"),
		IdleTimeout:  v.GetDuration("idle-timeout"),
		ListenAddr:   v.GetString("listen-addr"),
		DBPath:       v.GetString("db-path"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: --port (BARON_PORT) is required", ErrInvalid)
	}

	switch c.CodeSource {
	case SourceFile:
		if c.CodeFile == "" {
			return fmt.Errorf("%w: --codefile (BARON_CODEFILE) is required for the file code source", ErrInvalid)
		}
	case SourceHTTP:
		if err := checkURL(c.CodeURL); err != nil {
			return fmt.Errorf("%w: --code-url: %v", ErrInvalid, err)
		}
	case SourceGitHub:
		if owner, name, ok := strings.Cut(c.GitHubRepo, "/"); !ok || owner == "" || name == "" {
			return fmt.Errorf("%w: --github-repo must be owner/name, got %q", ErrInvalid, c.GitHubRepo)
		}
		if c.GitHubPath == "" {
			return fmt.Errorf("%w: --github-path is required for the github code source", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown code source %q", ErrInvalid, c.CodeSource)
	}

	if err := checkURL(c.GateEndpoint); err != nil {
		return fmt.Errorf("%w: --gate-endpoint: %v", ErrInvalid, err)
	}
	if c.GateTimeout <= 0 {
		return fmt.Errorf("%w: --gate-timeout must be positive, got %s", ErrInvalid, c.GateTimeout)
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("%w: --idle-timeout must be positive, got %s", ErrInvalid, c.IdleTimeout)
	}
	return nil
}

func checkURL(raw string) error {
	if raw == "" {
		return errors.New("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme in %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
