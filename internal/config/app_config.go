package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
	// SkipGlobal ignores the file under the home directory.
	SkipGlobal bool
}

// ApplicationConfiguration holds the defaults applied before command-line flags.
type ApplicationConfiguration struct {
	Dump    DumpConfiguration    `mapstructure:"dump"`
	Logging LoggingConfiguration `mapstructure:"logging"`
}

// DumpConfiguration defines the dump rendering defaults.
type DumpConfiguration struct {
	Format    string             `mapstructure:"format"`
	Color     string             `mapstructure:"color"`
	Indent    *int               `mapstructure:"indent"`
	Times     *bool              `mapstructure:"times"`
	Summary   *bool              `mapstructure:"summary"`
	Clipboard *bool              `mapstructure:"copy"`
	Watch     WatchConfiguration `mapstructure:"watch"`
}

// WatchConfiguration controls re-dumping when the archive changes.
type WatchConfiguration struct {
	DebounceMilliseconds *int `mapstructure:"debounce_ms"`
}

// LoggingConfiguration selects the log level.
type LoggingConfiguration struct {
	Level string `mapstructure:"level"`
}

// LoadApplicationConfiguration loads configuration from the global file, then the local
// or explicit file, each overriding the keys it sets.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory, err := resolveWorkingDirectory(options.WorkingDirectory)
	if err != nil {
		return ApplicationConfiguration{}, err
	}

	var merged ApplicationConfiguration

	if !options.SkipGlobal {
		if globalPath, pathErr := GlobalConfigurationPath(); pathErr == nil {
			globalConfig, loadErr := loadConfigurationFromPath(globalPath)
			if loadErr != nil {
				return ApplicationConfiguration{}, loadErr
			}
			merged = merged.Merge(globalConfig)
		}
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if options.ExplicitFilePath != "" {
		if _, statErr := os.Stat(localPath); statErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("configuration file %s: %w", localPath, statErr)
		}
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	return merged, nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Dump = result.Dump.merge(override.Dump)
	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	return result
}

func (config DumpConfiguration) merge(override DumpConfiguration) DumpConfiguration {
	result := config
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Color != "" {
		result.Color = override.Color
	}
	if override.Indent != nil {
		result.Indent = cloneInt(override.Indent)
	}
	if override.Times != nil {
		result.Times = cloneBool(override.Times)
	}
	if override.Summary != nil {
		result.Summary = cloneBool(override.Summary)
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	if override.Watch.DebounceMilliseconds != nil {
		result.Watch.DebounceMilliseconds = cloneInt(override.Watch.DebounceMilliseconds)
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
