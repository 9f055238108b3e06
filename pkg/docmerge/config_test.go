package docmerge

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.LogLevel != "info" {
		t.Errorf("DefaultConfig LogLevel = %s, want info", config.LogLevel)
	}

	if config.ArchiveName != DefaultArchiveName {
		t.Errorf("DefaultConfig ArchiveName = %s, want %s", config.ArchiveName, DefaultArchiveName)
	}

	if config.StateDB != "" {
		t.Errorf("DefaultConfig StateDB = %q, want empty", config.StateDB)
	}

	if config.Overwrite || config.Strict {
		t.Errorf("DefaultConfig Overwrite/Strict = %v/%v, want false/false", config.Overwrite, config.Strict)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("DefaultConfig is invalid: %v", err)
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, config *Config)
	}{
		{
			name: "log level",
			envVars: map[string]string{
				"DOCMERGE_LOG_LEVEL": " DEBUG ",
			},
			check: func(t *testing.T, config *Config) {
				if config.LogLevel != "debug" {
					t.Errorf("LogLevel = %s, want debug", config.LogLevel)
				}
			},
		},
		{
			name: "archive name",
			envVars: map[string]string{
				"DOCMERGE_ARCHIVE_NAME": "batch.zip",
			},
			check: func(t *testing.T, config *Config) {
				if config.ArchiveName != "batch.zip" {
					t.Errorf("ArchiveName = %s, want batch.zip", config.ArchiveName)
				}
			},
		},
		{
			name: "state db can be disabled with an empty value",
			envVars: map[string]string{
				"DOCMERGE_STATE_DB": "",
			},
			check: func(t *testing.T, config *Config) {
				if config.StateDB != "" {
					t.Errorf("StateDB = %q, want empty", config.StateDB)
				}
			},
		},
		{
			name: "state db path",
			envVars: map[string]string{
				"DOCMERGE_STATE_DB": "/tmp/state.db",
			},
			check: func(t *testing.T, config *Config) {
				if config.StateDB != "/tmp/state.db" {
					t.Errorf("StateDB = %q, want /tmp/state.db", config.StateDB)
				}
			},
		},
		{
			name: "boolean flags",
			envVars: map[string]string{
				"DOCMERGE_OVERWRITE": "yes",
				"DOCMERGE_STRICT":    "1",
			},
			check: func(t *testing.T, config *Config) {
				if !config.Overwrite {
					t.Error("Overwrite = false, want true")
				}
				if !config.Strict {
					t.Error("Strict = false, want true")
				}
			},
		},
		{
			name: "unrecognized boolean is false",
			envVars: map[string]string{
				"DOCMERGE_STRICT": "maybe",
			},
			check: func(t *testing.T, config *Config) {
				if config.Strict {
					t.Error("Strict = true, want false")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			config := ConfigFromEnvironment()
			tt.check(t, config)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"log level off", func(c *Config) { c.LogLevel = "off" }, false},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"empty archive name", func(c *Config) { c.ArchiveName = "" }, true},
		{"archive path", func(c *Config) { c.ArchiveName = "out/docs.zip" }, true},
		{"windows archive path", func(c *Config) { c.ArchiveName = `out\docs.zip` }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGlobalConfig(t *testing.T) {
	original := GetGlobalConfig()
	defer SetGlobalConfig(original)

	config := DefaultConfig()
	config.ArchiveName = "custom.zip"
	SetGlobalConfig(config)

	got := GetGlobalConfig()
	if got.ArchiveName != "custom.zip" {
		t.Errorf("GetGlobalConfig ArchiveName = %s, want custom.zip", got.ArchiveName)
	}

	got.ArchiveName = "changed.zip"
	if GetGlobalConfig().ArchiveName != "custom.zip" {
		t.Error("GetGlobalConfig returned a shared instance")
	}

	SetGlobalConfig(nil)
	if GetGlobalConfig().ArchiveName != DefaultArchiveName {
		t.Error("GetGlobalConfig with nil config should return defaults")
	}
}
