package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "SHARKPIPE"

// Load reads a profile from a YAML/TOML/JSON file (format detected from the
// extension). SHARKPIPE_* environment variables override file values, e.g.
// SHARKPIPE_DISPLAY_FILTER overrides display_filter.
func Load(path string) (*Profile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config: profile does not exist: %s", path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	// Not validated here: callers may still overlay flag values onto a
	// partial profile before validating.
	var profile Profile
	if err := v.Unmarshal(&profile); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &profile, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("live", false)
	v.SetDefault("count", 0)
	v.SetDefault("log.level", "info")
}
