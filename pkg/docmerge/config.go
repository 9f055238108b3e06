package docmerge

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// DefaultArchiveName is the archive file written into the output directory
// when archiving is requested without a name.
const DefaultArchiveName = "generated_documents.zip"

// Config contains the environment-level options for document generation
type Config struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string
	// ArchiveName is the file name of the optional zip archive
	ArchiveName string
	// StateDB is the path of the profile database used by the CLI. Empty
	// disables persistence.
	StateDB string
	// Overwrite allows replacing documents left in the output directory by
	// an earlier run instead of numbering around them
	Overwrite bool
	// Strict turns mapped columns missing from the CSV into an input error
	Strict bool
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func init() {
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:    "info",
		ArchiveName: DefaultArchiveName,
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	// DOCMERGE_LOG_LEVEL
	if val := os.Getenv("DOCMERGE_LOG_LEVEL"); val != "" {
		config.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}

	// DOCMERGE_ARCHIVE_NAME
	if val := os.Getenv("DOCMERGE_ARCHIVE_NAME"); val != "" {
		config.ArchiveName = val
	}

	// DOCMERGE_STATE_DB
	if val, ok := os.LookupEnv("DOCMERGE_STATE_DB"); ok {
		config.StateDB = val
	}

	// DOCMERGE_OVERWRITE
	if val := os.Getenv("DOCMERGE_OVERWRITE"); val != "" {
		config.Overwrite = parseBool(val)
	}

	// DOCMERGE_STRICT
	if val := os.Getenv("DOCMERGE_STRICT"); val != "" {
		config.Strict = parseBool(val)
	}

	return config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}

	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.ArchiveName == "" {
		return errors.New("archive name cannot be empty")
	}

	if strings.ContainsAny(c.ArchiveName, `/\`) {
		return errors.New("archive name must be a file name, not a path: " + c.ArchiveName)
	}

	return nil
}

// GetGlobalConfig returns a copy of the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
