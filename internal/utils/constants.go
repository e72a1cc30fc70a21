package utils

// ApplicationName is the binary name used in help text and configuration paths.
const ApplicationName = "abcdump"

// Configuration file locations: GlobalConfigDirectoryName/GlobalConfigFileName under the
// home directory and LocalConfigFileName in the working directory.
const (
	GlobalConfigDirectoryName = "." + ApplicationName
	GlobalConfigFileName      = "config.yaml"
	LocalConfigFileName       = "." + ApplicationName + ".yaml"
)
