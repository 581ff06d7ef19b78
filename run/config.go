package run

import (
	"fmt"

	"github.com/relex/lineforwarder/forwarder"
	"github.com/relex/lineforwarder/input/tailinput"
	"github.com/relex/lineforwarder/util"
)

// Config is the root of the configuration file
type Config struct {
	Inputs    []tailinput.Config `yaml:"inputs"`
	Forwarder forwarder.Config   `yaml:"forwarder"`
}

// ParseConfigFile loads the YAML config file, applies defaults and validates it
func ParseConfigFile(path string) (Config, error) {
	var config Config
	if err := util.UnmarshalYamlFile(path, &config); err != nil {
		return config, fmt.Errorf("config file '%s': %w", path, err)
	}
	if err := verifyConfig(&config); err != nil {
		return config, fmt.Errorf("config file '%s': %w", path, err)
	}
	return config, nil
}

// ParseConfigString is for testing
func ParseConfigString(contents string) (Config, error) {
	var config Config
	if err := util.UnmarshalYamlString(contents, &config); err != nil {
		return config, err
	}
	if err := verifyConfig(&config); err != nil {
		return config, err
	}
	return config, nil
}

func verifyConfig(config *Config) error {
	for index := range config.Inputs {
		if _, err := config.Inputs[index].Validate(); err != nil {
			return fmt.Errorf("inputs[%d]%w", index, err)
		}
	}
	config.Forwarder.ApplyDefaults()
	if err := config.Forwarder.Validate(); err != nil {
		return fmt.Errorf("forwarder%w", err)
	}
	return nil
}
