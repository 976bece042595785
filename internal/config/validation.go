package config

import (
	"fmt"
	"time"
)

// Validate normalizes enum fields, parses duration strings and rejects values
// the pipeline cannot act on. Called by Load after defaults are applied;
// exported for callers that assemble a Config in code.
func (c *Config) Validate() error {
	mode := NormalizeSuffixMode(string(c.LLMs.SuffixMode))
	if mode == "" {
		return fmt.Errorf("invalid llms.suffix_mode %q (want auto, file-suffix, url-suffix or replace)", c.LLMs.SuffixMode)
	}
	c.LLMs.SuffixMode = mode

	flavor := NormalizeFlavor(string(c.Build.Flavor))
	if flavor == "" {
		return fmt.Errorf("invalid build.flavor %q (want html or dirhtml)", c.Build.Flavor)
	}
	c.Build.Flavor = flavor

	if c.Build.Output == c.Build.Staging {
		return fmt.Errorf("build.staging must differ from build.output (%s)", c.Build.Output)
	}
	for _, s := range c.Source.Suffixes {
		if s == "" || s[0] != '.' {
			return fmt.Errorf("source.suffixes entries must start with a dot, got %q", s)
		}
	}

	var err error
	if c.Summary.timeout, err = time.ParseDuration(c.Summary.Timeout); err != nil {
		return fmt.Errorf("invalid summary.timeout %q: %w", c.Summary.Timeout, err)
	}
	if c.Summary.timeout <= 0 {
		return fmt.Errorf("summary.timeout must be positive, got %s", c.Summary.Timeout)
	}
	if c.Watch.debounce, err = time.ParseDuration(c.Watch.Debounce); err != nil {
		return fmt.Errorf("invalid watch.debounce %q: %w", c.Watch.Debounce, err)
	}
	if c.Watch.Interval != "" {
		if c.Watch.interval, err = time.ParseDuration(c.Watch.Interval); err != nil {
			return fmt.Errorf("invalid watch.interval %q: %w", c.Watch.Interval, err)
		}
		if c.Watch.interval < 0 {
			return fmt.Errorf("watch.interval must not be negative")
		}
	}
	return nil
}
