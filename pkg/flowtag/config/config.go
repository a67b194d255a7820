package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/flowtag/pkg/flowtag/cache"
	"github.com/cognicore/flowtag/pkg/flowtag/flow"
	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
)

// EnvPrefix prefixes every environment override, e.g.
// FLOWTAG_RESOLUTION_MINIMUM_CONFIDENCE.
const EnvPrefix = "FLOWTAG"

// Config is the process configuration.
type Config struct {
	Ontology   OntologyConfig   `mapstructure:"ontology"`
	Resolution ResolutionConfig `mapstructure:"resolution"`
	Rules      RulesConfig      `mapstructure:"rules"`
	Matching   MatchingConfig   `mapstructure:"matching"`
	Cache      cache.Options    `mapstructure:"cache"`
	Stoplist   string           `mapstructure:"stoplist"`
	Workers    int              `mapstructure:"workers"`
	Log        LogConfig        `mapstructure:"log"`
}

// OntologyConfig selects the ontology and where it is loaded from. SQLite
// takes precedence over Dir when both are set.
type OntologyConfig struct {
	Name   string `mapstructure:"name"`
	Dir    string `mapstructure:"dir"`
	SQLite string `mapstructure:"sqlite"`
}

// Override is one parent → children entry. Overrides are a list rather
// than a map because viper lower-cases map keys and flow names are case
// sensitive.
type Override struct {
	Parent   string   `mapstructure:"parent"`
	Children []string `mapstructure:"children"`
}

// ResolutionConfig tunes flow scoring and the summary passes.
type ResolutionConfig struct {
	MinimumConfidence  float64    `mapstructure:"minimum_confidence"`
	CatchAllFlow       string     `mapstructure:"catch_all_flow"`
	HierarchyOverrides []Override `mapstructure:"hierarchy_overrides"`
	BaseConfidence     float64    `mapstructure:"base_confidence"`
}

// RulesConfig tunes individual confidence rules.
type RulesConfig struct {
	ExcludeAllOfGuard string `mapstructure:"exclude_all_of_guard"`
}

// MatchingConfig tunes the text pipeline and matchers.
type MatchingConfig struct {
	MaxGram            int  `mapstructure:"max_gram"`
	LongDistanceWindow int  `mapstructure:"long_distance_window"`
	StripHTML          bool `mapstructure:"strip_html"`
}

// LogConfig configures internal/logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ontology.name", "default")
	v.SetDefault("ontology.dir", "ontologies")
	v.SetDefault("ontology.sqlite", "")

	v.SetDefault("resolution.minimum_confidence", 0.0)
	v.SetDefault("resolution.catch_all_flow", "")
	v.SetDefault("resolution.base_confidence", 0.0)

	v.SetDefault("rules.exclude_all_of_guard", string(flow.GuardExcludeOneOf))

	v.SetDefault("matching.max_gram", 4)
	v.SetDefault("matching.long_distance_window", 0) // whole input
	v.SetDefault("matching.strip_html", false)

	v.SetDefault("cache.backend", cache.BackendNone)
	v.SetDefault("cache.size", cache.DefaultSize)
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.ttl", time.Duration(0))

	v.SetDefault("stoplist", "")
	v.SetDefault("workers", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// NewViper returns a viper instance with defaults and FLOWTAG_* environment
// binding. A non-empty path is read as the config file.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}
	return v, nil
}

// Load reads configuration from path (optional), the environment and the
// defaults, then validates it.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates configuration from v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Ontology.Name) == "" {
		return internalerr.InvalidConfig("ontology.name is required")
	}
	if c.Ontology.Dir == "" && c.Ontology.SQLite == "" {
		return internalerr.InvalidConfig("one of ontology.dir or ontology.sqlite is required")
	}
	if c.Resolution.MinimumConfidence < 0 || c.Resolution.MinimumConfidence > 100 {
		return internalerr.InvalidConfig("resolution.minimum_confidence %v outside [0, 100]", c.Resolution.MinimumConfidence)
	}
	seen := make(map[string]struct{})
	for _, o := range c.Resolution.HierarchyOverrides {
		if strings.TrimSpace(o.Parent) == "" {
			return internalerr.InvalidConfig("hierarchy override without parent")
		}
		if _, dup := seen[o.Parent]; dup {
			return internalerr.InvalidConfig("hierarchy override for %q listed twice", o.Parent)
		}
		seen[o.Parent] = struct{}{}
	}
	if _, err := flow.ParseGuard(c.Rules.ExcludeAllOfGuard); err != nil {
		return err
	}
	if c.Matching.MaxGram < 0 || c.Matching.MaxGram > 5 {
		return internalerr.InvalidConfig("matching.max_gram %d outside 0-5", c.Matching.MaxGram)
	}
	if c.Matching.LongDistanceWindow < 0 {
		return internalerr.InvalidConfig("matching.long_distance_window %d is negative", c.Matching.LongDistanceWindow)
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "", cache.BackendNone, cache.BackendLRU, cache.BackendBadger, cache.BackendRedis:
	default:
		return internalerr.InvalidConfig("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Workers < 0 {
		return internalerr.InvalidConfig("workers %d is negative", c.Workers)
	}
	return nil
}

// SummaryConfig converts the resolution settings for the flow package.
func (c *Config) SummaryConfig() flow.SummaryConfig {
	var overrides map[string][]string
	if len(c.Resolution.HierarchyOverrides) > 0 {
		overrides = make(map[string][]string, len(c.Resolution.HierarchyOverrides))
		for _, o := range c.Resolution.HierarchyOverrides {
			overrides[o.Parent] = append([]string(nil), o.Children...)
		}
	}
	return flow.SummaryConfig{
		MinimumConfidence:  c.Resolution.MinimumConfidence,
		CatchAllFlow:       c.Resolution.CatchAllFlow,
		HierarchyOverrides: overrides,
	}
}

// Guard returns the configured ExcludeAllOf guard. Validate has already
// rejected unknown values.
func (c *Config) Guard() flow.Guard {
	g, _ := flow.ParseGuard(c.Rules.ExcludeAllOfGuard)
	return g
}

// Stoplist represents the stopword list file
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, errors.Wrapf(internalerr.ErrInvalidConfig, "stoplist %s: %v", path, err)
	}

	return &sl, nil
}
