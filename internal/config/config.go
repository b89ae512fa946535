// Package config loads AVM runtime configuration: mount point, image
// spec, and verbosity. Values come from cobra flags on the command line,
// with an optional viper-backed config file/environment overlay for
// defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the fully resolved set of AVM runtime settings.
type Config struct {
	ImageSpec      string `mapstructure:"image"`
	MountPoint     string `mapstructure:"mount_point"`
	Verbose        bool   `mapstructure:"verbose"`
	Foreground     bool   `mapstructure:"foreground"`
	SingleThreaded bool   `mapstructure:"single_threaded"`
	ReadOnly       bool   `mapstructure:"read_only"`
}

// Load reads defaults from an optional "altofs" config file (searched in
// the current directory, $HOME/.altofs and /etc/altofs) and the ALTOFS_*
// environment, then returns them for the CLI layer to override with
// explicit flags.
func Load() (*Config, error) {
	viper.SetConfigName("altofs")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.altofs")
	viper.AddConfigPath("/etc/altofs")

	viper.SetDefault("verbose", false)
	viper.SetDefault("foreground", false)
	viper.SetDefault("single_threaded", false)
	viper.SetDefault("read_only", false)

	viper.SetEnvPrefix("ALTOFS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}
	return &c, nil
}
