// Package config discovers, merges and initializes the abcdump YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/temirov/abcdump/internal/utils"
)

// GlobalConfigurationPath returns ~/.abcdump/config.yaml for the current user.
func GlobalConfigurationPath() (string, error) {
	homeDirectory, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for configuration: %w", err)
	}
	if homeDirectory == "" {
		return "", fmt.Errorf("resolve home directory for configuration: empty path")
	}
	return filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName), nil
}

// LocalConfigurationPath returns the path of the per-directory configuration file.
func LocalConfigurationPath(workingDirectory string) string {
	return filepath.Join(workingDirectory, utils.LocalConfigFileName)
}

func resolveWorkingDirectory(workingDirectory string) (string, error) {
	if workingDirectory != "" {
		return workingDirectory, nil
	}
	current, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return current, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return LocalConfigurationPath(workingDirectory), nil
}
