package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// AppDirName is the per-user folder holding the workbook and journal.
	AppDirName = "NetworkChangesTracker"
	// DefaultFileName is the workbook created on first use.
	DefaultFileName = "network_changes.xlsx"
	// DefaultJournalName is the SQLite activity journal file.
	DefaultJournalName = "journal.db"
)

type Config struct {
	// Workbook
	FilePath             string
	DataDir              string
	RequireRequestNumber bool
	DescriptionSeparator string

	// Backend selection
	DataBackend string

	// Journal
	JournalEnabled bool
	JournalDBPath  string

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadEnvFile loads a .env file from the working directory when present.
// A missing file is not an error.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func Load() *Config {
	dataDir := getEnv("TRACKER_DATA_DIR", DefaultDataDir())

	cfg := &Config{
		DataDir:              dataDir,
		FilePath:             getEnv("TRACKER_FILE", filepath.Join(dataDir, DefaultFileName)),
		RequireRequestNumber: getEnvBool("REQUIRE_REQUEST_NUMBER", false),
		DescriptionSeparator: getEnvRaw("DESCRIPTION_SEPARATOR", ", "),

		DataBackend: getEnv("DATA_BACKEND", "xlsx"),

		JournalEnabled: getEnvBool("JOURNAL_ENABLED", true),
		JournalDBPath:  getEnv("JOURNAL_DB_PATH", filepath.Join(dataDir, DefaultJournalName)),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{"xlsx", "memory"}
	if !contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "xlsx" {
		if strings.TrimSpace(c.FilePath) == "" {
			errors = append(errors, "workbook path cannot be empty when using xlsx backend")
		} else if ext := strings.ToLower(filepath.Ext(c.FilePath)); ext != ".xlsx" && ext != ".xlsm" {
			errors = append(errors, fmt.Sprintf("invalid workbook path '%s': must end with .xlsx or .xlsm", c.FilePath))
		}
	}

	if c.DescriptionSeparator == "" {
		errors = append(errors, "description separator cannot be empty")
	} else if strings.ContainsAny(c.DescriptionSeparator, "\r\n") {
		errors = append(errors, "description separator cannot contain line breaks")
	}

	if c.JournalEnabled && strings.TrimSpace(c.JournalDBPath) == "" {
		errors = append(errors, "journal database path cannot be empty when the journal is enabled")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}
	validFormats := []string{"text", "json"}
	if !contains(validFormats, strings.ToLower(c.LogFormat)) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// DefaultDataDir returns the per-user folder for the live workbook. It is
// kept out of synced folders (OneDrive) on purpose; exports go there.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	switch runtime.GOOS {
	case "windows":
		if base := os.Getenv("LOCALAPPDATA"); base != "" {
			return filepath.Join(base, AppDirName)
		}
		return filepath.Join(home, "AppData", "Local", AppDirName)
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", AppDirName)
	default:
		if base := os.Getenv("XDG_DATA_HOME"); base != "" {
			return filepath.Join(base, AppDirName)
		}
		return filepath.Join(home, ".local", "share", AppDirName)
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvRaw keeps surrounding whitespace, which matters for separators.
func getEnvRaw(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
