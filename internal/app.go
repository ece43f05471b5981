// Package internal provides the App struct that wires all components of
// Todo Nexus together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/todo-nexus/internal/cli"
	"github.com/valter-silva-au/todo-nexus/internal/core"
	"github.com/valter-silva-au/todo-nexus/internal/observability"
	"github.com/valter-silva-au/todo-nexus/pkg/models"
)

// HomeEnvVar overrides the base path lookup.
const HomeEnvVar = "NEXUS_HOME"

// App holds all service dependencies for Todo Nexus.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig

	// Core services
	Collator *core.Collator

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components of Todo Nexus. basePath is the
// directory holding .nexusconfig and, by default, the event log.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	app.Config = cfg

	app.Collator, err = core.NewCollator(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("configuring locale: %w", err)
	}

	// Fail at startup rather than on the first store.
	if _, err := core.NewTaskIDGenerator(cfg.TaskIDStrategy, cfg.TaskIDPrefix, cfg.TaskIDPadWidth); err != nil {
		return nil, fmt.Errorf("configuring task IDs: %w", err)
	}

	// --- Observability ---
	if cfg.EventLog.Enabled {
		eventLogPath := cfg.EventLog.Path
		if !filepath.IsAbs(eventLogPath) {
			eventLogPath = filepath.Join(basePath, eventLogPath)
		}
		app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
		if err != nil {
			// Non-fatal: run without observability if the log can't be created.
			app.EventLog = nil
		}
	}
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}

	// --- Wire CLI package-level variables ---
	cli.NewStore = app.NewStore
	cli.Collator = app.Collator
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// NewStore returns an empty task store configured from the loaded settings.
// Every store gets its own ID sequence.
func (a *App) NewStore() core.TaskStore {
	cfg := a.Config
	// The strategy was validated in NewApp.
	idGen, _ := core.NewTaskIDGenerator(cfg.TaskIDStrategy, cfg.TaskIDPrefix, cfg.TaskIDPadWidth)

	var events core.EventLogger
	if a.EventLog != nil {
		events = &eventLogAdapter{log: a.EventLog}
	}

	return core.NewTaskStore(core.StoreOptions{
		IDGen:    idGen,
		Events:   events,
		Collator: a.Collator,
		Settings: models.ViewSettings{
			Filter: cfg.DefaultFilter,
			Sort:   cfg.DefaultSort,
		},
		DraftPriority: cfg.DefaultPriority,
		Category:      cfg.DefaultCategory,
	})
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the directory holding .nexusconfig. It checks the
// NEXUS_HOME env var, then walks up from the current directory, then falls
// back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv(HomeEnvVar); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	cwd := dir
	for {
		for _, name := range []string{core.ConfigFileName, core.ConfigFileName + ".yaml"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   observability.LevelForEventType(eventType),
		Type:    eventType,
		Message: observability.MessageForEventType(eventType),
		Data:    data,
	})
}
