// Package config loads the digest configuration from an optional YAML file,
// a .env file and the process environment.
package config

import (
	"io/fs"
	"os"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvSlackHook    = "SLACK_HOOK"
	EnvRepository   = "REPOSITORY"
	EnvGitHubToken  = "GITHUB_TOKEN"
	EnvUserAgent    = "USER_AGENT"
	EnvProjectName  = "PROJECT_NAME"
	EnvGitHubAPIURL = "GITHUB_API_URL"
	EnvHTTPTimeout  = "HTTP_TIMEOUT"
)

const (
	defaultUserAgent   = "changelog-digest"
	defaultHTTPTimeout = 20 * time.Second
)

var (
	// ErrMissingValue is returned when a required setting is absent.
	ErrMissingValue = errors.New("required configuration value is missing")
	// ErrInvalidValue is returned when a setting is present but unusable.
	ErrInvalidValue = errors.New("invalid configuration value")
)

var repositoryRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// Config holds all application configuration.
type Config struct {
	SlackHook    string        `yaml:"slack_hook" env:"SLACK_HOOK" validate:"required,url"`
	Repository   string        `yaml:"repository" env:"REPOSITORY" validate:"required,repository"`
	GitHubToken  string        `yaml:"github_token" env:"GITHUB_TOKEN" validate:"required"`
	UserAgent    string        `yaml:"user_agent" env:"USER_AGENT" validate:"required"`
	ProjectName  string        `yaml:"project_name" env:"PROJECT_NAME"`
	GitHubAPIURL string        `yaml:"github_api_url" env:"GITHUB_API_URL" validate:"omitempty,url"`
	HTTPTimeout  time.Duration `yaml:"http_timeout" env:"HTTP_TIMEOUT" validate:"gt=0"`
}

// Option overrides a value after the file and environment were read.
type Option func(*Config)

// WithRepository overrides the repository identifier.
func WithRepository(repo string) Option {
	return func(c *Config) {
		if repo != "" {
			c.Repository = repo
		}
	}
}

// WithProjectName overrides the name shown in the digest header.
func WithProjectName(name string) Option {
	return func(c *Config) {
		if name != "" {
			c.ProjectName = name
		}
	}
}

// Load reads configuration. path may be empty, in which case only the
// environment (and a .env file in the working directory, if any) is used.
func Load(path string, opts ...Option) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config yaml")
		}
	}

	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	if err := applyEnvironment(cfg); err != nil {
		return nil, err
	}
	for _, o := range opts {
		o(cfg)
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvironment(cfg *Config) error {
	strs := map[string]*string{
		EnvSlackHook:    &cfg.SlackHook,
		EnvRepository:   &cfg.Repository,
		EnvGitHubToken:  &cfg.GitHubToken,
		EnvUserAgent:    &cfg.UserAgent,
		EnvProjectName:  &cfg.ProjectName,
		EnvGitHubAPIURL: &cfg.GitHubAPIURL,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv(EnvHTTPTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(ErrInvalidValue, "%s: %v", EnvHTTPTimeout, err)
		}
		cfg.HTTPTimeout = d
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}
	if cfg.ProjectName == "" {
		cfg.ProjectName = cfg.Repository
	}
}

// Validate checks the configuration. Errors wrap ErrMissingValue or
// ErrInvalidValue and name the environment variable at fault.
func (c *Config) Validate() error {
	err := newValidator().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(err, "validate config")
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return errors.Wrapf(ErrMissingValue, "%s is not set", fe.Field())
	}
	return errors.Wrapf(ErrInvalidValue, "%s fails %q check", fe.Field(), fe.Tag())
}

// Owner returns the owner part of the repository identifier.
func (c *Config) Owner() string {
	owner, _, _ := strings.Cut(c.Repository, "/")
	return owner
}

// RepoName returns the name part of the repository identifier.
func (c *Config) RepoName() string {
	_, name, _ := strings.Cut(c.Repository, "/")
	return name
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	_ = v.RegisterValidation("repository", func(fl validator.FieldLevel) bool {
		return repositoryRegex.MatchString(fl.Field().String())
	})
	return v
}
