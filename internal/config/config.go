package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Source  SourceConfig  `yaml:"source"`
	Build   BuildConfig   `yaml:"build"`
	LLMs    LLMsConfig    `yaml:"llms"`
	Summary SummaryConfig `yaml:"summary"`
	Journal JournalConfig `yaml:"journal"`
	Events  EventsConfig  `yaml:"events"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ProjectConfig carries the metadata rendered into the sitemap header.
type ProjectConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"` // defaults to a line derived from Title
	Copyright   string `yaml:"copyright,omitempty"`
}

// SourceConfig locates the documentation sources holding docref directives.
type SourceConfig struct {
	Dir      string   `yaml:"dir"`
	Suffixes []string `yaml:"suffixes,omitempty"` // target resolution order, defaults to [".md"]
}

// BuildConfig describes the external build engine invocations.
//
// Primary and Markdown are argv vectors; the placeholders {source}, {output}
// and {staging} are substituted before execution. An empty vector skips that
// build (useful when the trees are produced elsewhere, e.g. CI).
type BuildConfig struct {
	Output   string   `yaml:"output"`
	Staging  string   `yaml:"staging,omitempty"` // defaults to {output}/_markdown_build
	Flavor   Flavor   `yaml:"flavor,omitempty"`  // html|dirhtml
	Parallel *bool    `yaml:"parallel,omitempty"`
	Primary  []string `yaml:"primary,omitempty"`
	Markdown []string `yaml:"markdown,omitempty"`
}

// ParallelEnabled reports whether the markdown build runs alongside the
// primary build. Unset means parallel.
func (b *BuildConfig) ParallelEnabled() bool {
	return b.Parallel == nil || *b.Parallel
}

// LLMsConfig controls the generated llms.txt artifacts.
type LLMsConfig struct {
	SuffixMode SuffixMode `yaml:"suffix_mode,omitempty"`
	FullText   *bool      `yaml:"full_text,omitempty"`
}

// FullTextEnabled reports whether llms-full.txt is produced. Unset means yes.
func (l *LLMsConfig) FullTextEnabled() bool {
	return l.FullText == nil || *l.FullText
}

// SummaryConfig controls docref summary generation.
//
// Timeout is a Go duration string ("60s", "2m"); parsed during validation.
type SummaryConfig struct {
	Enabled                 *bool  `yaml:"enabled,omitempty"`
	Endpoint                string `yaml:"endpoint,omitempty"`
	Model                   string `yaml:"model,omitempty"`
	Timeout                 string `yaml:"timeout,omitempty"`
	Concurrency             int    `yaml:"concurrency,omitempty"`
	InvalidateOnModelChange *bool  `yaml:"invalidate_on_model_change,omitempty"`
	RequireCleanWorktree    bool   `yaml:"require_clean_worktree,omitempty"`

	timeout time.Duration
}

// RequestTimeout returns the parsed generation timeout.
func (s *SummaryConfig) RequestTimeout() time.Duration { return s.timeout }

// GenerationEnabled reports whether the refresh stage runs. Unset means yes.
func (s *SummaryConfig) GenerationEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// ModelInvalidates reports whether a model identifier change alone forces
// regeneration. Unset means yes (the stricter policy).
func (s *SummaryConfig) ModelInvalidates() bool {
	return s.InvalidateOnModelChange == nil || *s.InvalidateOnModelChange
}

// JournalConfig enables the SQLite generation journal.
type JournalConfig struct {
	Path string `yaml:"path,omitempty"` // empty disables
}

// EventsConfig enables NATS event publication.
type EventsConfig struct {
	URL     string `yaml:"url,omitempty"` // empty disables
	Subject string `yaml:"subject,omitempty"`
}

// WatchConfig tunes watch mode. Durations are Go duration strings.
type WatchConfig struct {
	Debounce    string `yaml:"debounce,omitempty"`
	Interval    string `yaml:"interval,omitempty"` // periodic full rebuild, empty disables
	Build       bool   `yaml:"build,omitempty"`    // full pipeline on change instead of refresh only
	MetricsAddr string `yaml:"metrics_addr,omitempty"`

	debounce time.Duration
	interval time.Duration
}

// DebounceDuration returns the parsed change debounce window.
func (w *WatchConfig) DebounceDuration() time.Duration { return w.debounce }

// RebuildInterval returns the parsed periodic rebuild interval, 0 when disabled.
func (w *WatchConfig) RebuildInterval() time.Duration { return w.interval }

// DefaultPath is the config filename looked up when --config is not given.
const DefaultPath = "llmdocs.yaml"

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content before decoding.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills zero values with working defaults.
func (c *Config) applyDefaults() {
	if c.Project.Title == "" {
		c.Project.Title = "Documentation"
	}
	if c.Project.Description == "" {
		c.Project.Description = fmt.Sprintf("Documentation for %s", c.Project.Title)
	}
	if c.Source.Dir == "" {
		c.Source.Dir = "docs"
	}
	if len(c.Source.Suffixes) == 0 {
		c.Source.Suffixes = []string{".md"}
	}
	if c.Build.Output == "" {
		c.Build.Output = "site"
	}
	if c.Build.Staging == "" {
		c.Build.Staging = filepath.Join(c.Build.Output, "_markdown_build")
	}
	if c.Build.Flavor == "" {
		c.Build.Flavor = FlavorHTML
	}
	if c.LLMs.SuffixMode == "" {
		c.LLMs.SuffixMode = SuffixModeAuto
	}
	if c.Summary.Endpoint == "" {
		c.Summary.Endpoint = "http://127.0.0.1:11434"
	}
	if c.Summary.Model == "" {
		c.Summary.Model = "llama3.2:3b"
	}
	if c.Summary.Timeout == "" {
		c.Summary.Timeout = "60s"
	}
	if c.Summary.Concurrency <= 0 {
		c.Summary.Concurrency = 4
	}
	if c.Events.Subject == "" {
		c.Events.Subject = "llmdocs.events"
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = "2s"
	}
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	return os.WriteFile(configPath, []byte(exampleConfig), 0o644)
}

const exampleConfig = `# llmdocs configuration
project:
  title: My Project
  # description: One-line description rendered into llms.txt
  # copyright: © Example Org

source:
  dir: docs
  # suffixes: [".md"]

build:
  output: site
  # flavor: dirhtml            # html (flat pages) or dirhtml (directory URLs)
  # parallel: true             # run the markdown build alongside the primary one
  primary: ["sphinx-build", "-b", "html", "{source}", "{output}"]
  markdown: ["sphinx-build", "-b", "markdown", "{source}", "{staging}"]

llms:
  suffix_mode: auto            # auto | file-suffix | url-suffix | replace
  full_text: true              # write llms-full.txt

summary:
  endpoint: http://127.0.0.1:11434
  model: llama3.2:3b
  timeout: 60s
  concurrency: 4
  # invalidate_on_model_change: true
  # require_clean_worktree: false

# journal:
#   path: .llmdocs/journal.db

# events:
#   url: nats://127.0.0.1:4222
#   subject: llmdocs.events

# watch:
#   debounce: 2s
#   interval: 30m
#   metrics_addr: ":9137"
`
