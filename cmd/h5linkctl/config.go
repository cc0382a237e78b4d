package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the on-disk configuration for h5linkctl, loaded with --config.
// Flags passed on the command line override whatever the file sets.
type Config struct {
	Port                  string        `yaml:"port"`
	Baud                  int           `yaml:"baud"`
	RetransmissionTimeout time.Duration `yaml:"retransmission_timeout"`
}

// defaultConfig holds the values used when neither the config file nor a
// flag sets a field.
func defaultConfig() Config {
	return Config{
		Port:                  "",
		Baud:                  1000000,
		RetransmissionTimeout: 250 * time.Millisecond,
	}
}

// LoadConfig reads and parses a YAML config file. A missing path is not an
// error: callers get the defaults back.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
