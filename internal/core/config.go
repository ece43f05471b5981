// Package core contains the business logic for Todo Nexus: the in-memory
// task store, the view projector, task ID generation and configuration.
package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/todo-nexus/pkg/models"
	"golang.org/x/text/language"
)

// ConfigFileName is the name of the configuration file looked up in the base path.
const ConfigFileName = ".nexusconfig"

// validPrefixPattern matches uppercase alphanumeric prefixes between 1 and 10 characters.
var validPrefixPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// ConfigurationManager defines the interface for loading and validating
// configuration from the .nexusconfig file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(config *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the root directory where .nexusconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with sensible defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		DefaultPriority: models.PriorityMedium,
		DefaultFilter:   models.FilterAll,
		DefaultSort:     models.SortNewest,
		DefaultCategory: models.DefaultCategory,
		TaskIDStrategy:  models.IDStrategyCounter,
		TaskIDPrefix:    "TASK",
		TaskIDPadWidth:  5,
		Locale:          "en",
		EventLog: models.EventLogConfig{
			Enabled: true,
			Path:    ".nexus_events.jsonl",
		},
	}
}

// LoadGlobalConfig reads the .nexusconfig file from the base path using Viper.
// If the file does not exist, defaults are returned. The loaded configuration
// is validated before it is returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("defaults.priority", string(cfg.DefaultPriority))
	v.SetDefault("defaults.filter", string(cfg.DefaultFilter))
	v.SetDefault("defaults.sort", string(cfg.DefaultSort))
	v.SetDefault("defaults.category", cfg.DefaultCategory)
	v.SetDefault("task_id.strategy", string(cfg.TaskIDStrategy))
	v.SetDefault("task_id.prefix", cfg.TaskIDPrefix)
	v.SetDefault("task_id.pad_width", cfg.TaskIDPadWidth)
	v.SetDefault("locale", cfg.Locale)
	v.SetDefault("event_log.enabled", cfg.EventLog.Enabled)
	v.SetDefault("event_log.path", cfg.EventLog.Path)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	// Map nested YAML keys to flat GlobalConfig fields.
	cfg.DefaultPriority = models.Priority(strings.ToLower(v.GetString("defaults.priority")))
	cfg.DefaultFilter = models.FilterMode(strings.ToLower(v.GetString("defaults.filter")))
	cfg.DefaultSort = models.SortMode(strings.ToLower(v.GetString("defaults.sort")))
	cfg.DefaultCategory = v.GetString("defaults.category")
	cfg.TaskIDStrategy = models.TaskIDStrategy(strings.ToLower(v.GetString("task_id.strategy")))
	cfg.TaskIDPrefix = v.GetString("task_id.prefix")
	cfg.Locale = v.GetString("locale")
	cfg.EventLog.Enabled = v.GetBool("event_log.enabled")
	cfg.EventLog.Path = v.GetString("event_log.path")

	// Use IsSet to distinguish "not set" (use default 5) from "explicitly set to 0".
	if v.IsSet("task_id.pad_width") {
		cfg.TaskIDPadWidth = v.GetInt("task_id.pad_width")
	}

	if err := cm.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateConfig checks the configuration for invalid values and returns an
// error listing every problem found.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if !cfg.DefaultPriority.Valid() {
		errs = append(errs, fmt.Sprintf(
			"defaults.priority %q is invalid, must be one of: high, medium, low",
			cfg.DefaultPriority,
		))
	}

	if !cfg.DefaultFilter.Valid() {
		errs = append(errs, fmt.Sprintf(
			"defaults.filter %q is invalid, must be one of: all, active, completed, starred",
			cfg.DefaultFilter,
		))
	}

	if !cfg.DefaultSort.Valid() {
		errs = append(errs, fmt.Sprintf(
			"defaults.sort %q is invalid, must be one of: newest, oldest, priority, alphabetical",
			cfg.DefaultSort,
		))
	}

	if strings.TrimSpace(cfg.DefaultCategory) == "" {
		errs = append(errs, "defaults.category must not be empty")
	}

	switch cfg.TaskIDStrategy {
	case models.IDStrategyCounter, models.IDStrategyUUID, models.IDStrategyNanoID:
	default:
		errs = append(errs, fmt.Sprintf(
			"task_id.strategy %q is invalid, must be one of: counter, uuid, nanoid",
			cfg.TaskIDStrategy,
		))
	}

	if !validPrefixPattern.MatchString(cfg.TaskIDPrefix) {
		errs = append(errs, fmt.Sprintf(
			"task_id.prefix %q is invalid, must match [A-Z0-9]{1,10}",
			cfg.TaskIDPrefix,
		))
	}

	if cfg.TaskIDPadWidth < 0 || cfg.TaskIDPadWidth > 10 {
		errs = append(errs, fmt.Sprintf(
			"task_id.pad_width %d is invalid, must be between 0 and 10",
			cfg.TaskIDPadWidth,
		))
	}

	if _, err := language.Parse(cfg.Locale); err != nil {
		errs = append(errs, fmt.Sprintf("locale %q is invalid: %v", cfg.Locale, err))
	}

	if cfg.EventLog.Enabled && strings.TrimSpace(cfg.EventLog.Path) == "" {
		errs = append(errs, "event_log.path must not be empty when the event log is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
