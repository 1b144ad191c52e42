package seammcp

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvPrefix prefixes every environment variable viper binds (SEAMMCP_*).
	EnvPrefix = "SEAMMCP"
	// LogEnvPrefix prefixes the pslog environment settings (SEAMMCP_LOG_LEVEL, ...).
	LogEnvPrefix = "SEAMMCP_LOG_"
	// SeamAPIKeyEnv is the conventional Seam SDK variable, accepted as an
	// alternative to SEAMMCP_SEAM_API_KEY.
	SeamAPIKeyEnv = "SEAM_API_KEY"
	// ConfigDirEnv overrides DefaultConfigDir.
	ConfigDirEnv = "SEAMMCP_CONFIG_DIR"
	// DefaultConfigFileName is the config file searched for when --config is omitted.
	DefaultConfigFileName = "config.yaml"
	// DotEnvFileName is loaded from the working directory when present.
	DotEnvFileName = ".env"
)

// DefaultConfigDir returns the default configuration directory ($HOME/.seammcp).
func DefaultConfigDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(ConfigDirEnv)); override != "" {
		if filepath.IsAbs(override) {
			return override, nil
		}
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", err
		}
		return abs, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".seammcp"), nil
}

// DefaultConfigPath returns DefaultConfigDir joined with DefaultConfigFileName.
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFileName), nil
}
