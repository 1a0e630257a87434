package backend

import (
	"fmt"

	"nctracker/internal/config"
	"nctracker/internal/core"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	cfg := Config{
		Type:                 backendType,
		FilePath:             appConfig.FilePath,
		RequireRequestNumber: appConfig.RequireRequestNumber,
		DescriptionSeparator: appConfig.DescriptionSeparator,
		DataDirectory:        appConfig.DataDir,
	}
	if appConfig.JournalEnabled {
		cfg.JournalDBPath = appConfig.JournalDBPath
	}
	return cfg, nil
}

// Policy returns the record policy the stores enforce.
func (c Config) Policy() core.Policy {
	return core.Policy{
		RequireRequestNumber: c.RequireRequestNumber,
		Separator:            c.DescriptionSeparator,
	}
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == XLSXBackend && c.FilePath == "" {
		return fmt.Errorf("workbook path is required for xlsx backend")
	}
	return nil
}
