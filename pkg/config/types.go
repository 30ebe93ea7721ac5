package config

// Config is the root of the merge-rule configuration file.
type Config struct {
	// MergeRules are applied to every request in order.
	MergeRules []RuleConfig `yaml:"mergeRules"`
}

// RuleConfig describes one merge rule.
type RuleConfig struct {
	// NewName is the naming template for merged requests. Placeholders
	// {x} and {x:g} insert filter replacement text; see pkg/mergerules.
	NewName string `yaml:"newName"`

	// Patterns maps request fields (name, transaction, agent, url,
	// contentType, statusCode, method) to regular expressions the
	// field must match.
	Patterns map[string]string `yaml:"patterns"`

	// ExcludePatterns maps request fields to regular expressions the
	// field must NOT match. A field may not appear in both maps.
	ExcludePatterns map[string]string `yaml:"excludePatterns"`

	// RunTimeRanges are ascending millisecond boundaries for runtime
	// bucketing, available as {r} in NewName.
	RunTimeRanges []int64 `yaml:"runTimeRanges"`

	// StopOnMatch stops rule processing for a request once this rule
	// matched it. Defaults to true.
	StopOnMatch *bool `yaml:"stopOnMatch"`

	// CacheSize bounds each filter's result cache; 0 disables
	// caching. Defaults to mergerules.DefaultCacheSize.
	CacheSize *int `yaml:"cacheSize"`
}

// stopOnMatch resolves the configured value with its default.
func (rc *RuleConfig) stopOnMatch() bool {
	if rc.StopOnMatch == nil {
		return true
	}
	return *rc.StopOnMatch
}
