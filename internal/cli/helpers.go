package cli

import (
	"fmt"

	"github.com/canvasgrab/canvasgrab/internal/logger"
	"github.com/canvasgrab/canvasgrab/pkg/archive"
	"github.com/canvasgrab/canvasgrab/pkg/canvas"
	"github.com/canvasgrab/canvasgrab/pkg/config"
	"github.com/canvasgrab/canvasgrab/pkg/download"
	"github.com/canvasgrab/canvasgrab/pkg/errors"
	"github.com/canvasgrab/canvasgrab/pkg/hook"
	"github.com/canvasgrab/canvasgrab/pkg/orchestrator"
	"github.com/canvasgrab/canvasgrab/pkg/registry"
)

// These variables will be set by the main package.
var (
	ConfigPath *string
	Verbose    *bool
)

// loadConfig loads the configuration file, overlays the environment, and
// applies global CLI flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.ApplyEnv()

	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	logger.InitLogger(cfg.Settings.LogLevel)

	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// requireCanvas validates that the settings needed to talk to a Canvas
// instance are present, after config, env and flags have been merged.
func requireCanvas(cfg *config.Config) error {
	if cfg.Canvas.BaseURL == "" {
		return errors.Wrap(errors.ErrConfigValidation, "canvas base URL is not set (config canvas.base_url or CANVAS_BASE_URL)")
	}
	if cfg.Canvas.AccessToken == "" {
		return errors.Wrap(errors.ErrConfigValidation, "access token is not set (config canvas.access_token or ACCESS_TOKEN)")
	}
	if cfg.Canvas.CourseID == "" {
		return errors.Wrap(errors.ErrConfigValidation, "course ID is not set (config canvas.course_id, COURSE_ID, or --course)")
	}
	return nil
}

func loadCanvasClient(cfg *config.Config) *canvas.Client {
	return canvas.New(cfg.Canvas.BaseURL, cfg.Canvas.AccessToken, cfg.Settings.HTTPTimeout)
}

func loadRegistryBuilder(cfg *config.Config, client *canvas.Client) *registry.Builder {
	return &registry.Builder{Client: client, PerPage: cfg.Settings.PerPage}
}

// loadHookManager builds the hook manager from the script paths in config.
func loadHookManager(cfg *config.Config) (*hook.DefaultHookManager, error) {
	manager := hook.NewHookManager()
	err := hook.LoadFromFiles(manager, map[hook.HookType]string{
		hook.PreDownload:  cfg.Hooks.PreDownload,
		hook.PostDownload: cfg.Hooks.PostDownload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load hook scripts: %w", err)
	}
	return manager, nil
}

// loadOrchestrator wires the full pipeline for a fetch run.
func loadOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, error) {
	hooks, err := loadHookManager(cfg)
	if err != nil {
		return nil, err
	}

	client := loadCanvasClient(cfg)
	return orchestrator.New(
		loadRegistryBuilder(cfg, client),
		download.NewManager(client),
		archive.NewManager(),
		hooks,
		orchestrator.Hooks{OnEvent: printEvent},
	), nil
}

// printEvent renders progress events on the console.
func printEvent(e orchestrator.Event) {
	switch e.Phase {
	case "discovering":
		logger.Infof("discovering files for course %s", e.Msg)
	case "planning":
		fmt.Printf("would download: %s\n", e.Msg)
	case "downloading":
		logger.Infof("downloading: %s", e.Msg)
	case "skipping":
		logger.Debugf("skipping: %s", e.Msg)
	case "error":
		logger.Errorf("download failed: %s", e.Msg)
	}
}
