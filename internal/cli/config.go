// Config loading for the workbench CLI.
package cli

import (
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyDataDir = "data_dir"
)

// loadDataDirFromConfig reads data_dir from config.yaml in the config
// directory using Viper. Returns empty string if the file does not exist or
// does not set a data directory.
func loadDataDirFromConfig(configDir string) string {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		// A missing or unreadable config.yaml is not an error; the caller
		// falls back to the default data directory.
		return ""
	}
	return v.GetString(cfgKeyDataDir)
}

// configPath returns the path of config.yaml inside the config directory.
func configPath(configDir string) string {
	return filepath.Join(configDir, configFileName+"."+configFileType)
}
