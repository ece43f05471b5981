package models

import "gopkg.in/yaml.v3"

// TaskIDStrategy selects how new task IDs are generated.
type TaskIDStrategy string

const (
	IDStrategyCounter TaskIDStrategy = "counter"
	IDStrategyUUID    TaskIDStrategy = "uuid"
	IDStrategyNanoID  TaskIDStrategy = "nanoid"
)

// EventLogConfig controls the structured JSONL event log.
type EventLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// GlobalConfig holds settings read from .nexusconfig via Viper. The file
// groups keys under defaults and task_id; MarshalYAML and UnmarshalYAML use
// that layout.
type GlobalConfig struct {
	DefaultPriority Priority
	DefaultFilter   FilterMode
	DefaultSort     SortMode
	DefaultCategory string
	TaskIDStrategy  TaskIDStrategy
	TaskIDPrefix    string
	TaskIDPadWidth  int
	Locale          string
	EventLog        EventLogConfig
}

// configFile mirrors the on-disk layout of .nexusconfig.
type configFile struct {
	Defaults struct {
		Priority Priority   `yaml:"priority"`
		Filter   FilterMode `yaml:"filter"`
		Sort     SortMode   `yaml:"sort"`
		Category string     `yaml:"category"`
	} `yaml:"defaults"`
	TaskID struct {
		Strategy TaskIDStrategy `yaml:"strategy"`
		Prefix   string         `yaml:"prefix"`
		PadWidth int            `yaml:"pad_width"`
	} `yaml:"task_id"`
	Locale   string         `yaml:"locale"`
	EventLog EventLogConfig `yaml:"event_log"`
}

// MarshalYAML writes the configuration in the .nexusconfig layout.
func (c GlobalConfig) MarshalYAML() (any, error) {
	var f configFile
	f.Defaults.Priority = c.DefaultPriority
	f.Defaults.Filter = c.DefaultFilter
	f.Defaults.Sort = c.DefaultSort
	f.Defaults.Category = c.DefaultCategory
	f.TaskID.Strategy = c.TaskIDStrategy
	f.TaskID.Prefix = c.TaskIDPrefix
	f.TaskID.PadWidth = c.TaskIDPadWidth
	f.Locale = c.Locale
	f.EventLog = c.EventLog
	return f, nil
}

// UnmarshalYAML reads a document in the .nexusconfig layout.
func (c *GlobalConfig) UnmarshalYAML(value *yaml.Node) error {
	var f configFile
	if err := value.Decode(&f); err != nil {
		return err
	}
	*c = GlobalConfig{
		DefaultPriority: f.Defaults.Priority,
		DefaultFilter:   f.Defaults.Filter,
		DefaultSort:     f.Defaults.Sort,
		DefaultCategory: f.Defaults.Category,
		TaskIDStrategy:  f.TaskID.Strategy,
		TaskIDPrefix:    f.TaskID.Prefix,
		TaskIDPadWidth:  f.TaskID.PadWidth,
		Locale:          f.Locale,
		EventLog:        f.EventLog,
	}
	return nil
}
