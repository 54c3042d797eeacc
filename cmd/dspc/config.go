package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// config is the dspc.yaml file format.  Flags override any value set here.
type config struct {
	Src       string   `yaml:"src"`
	Out       string   `yaml:"out"`
	Namespace string   `yaml:"namespace"`
	Watch     bool     `yaml:"watch"`
	Ignore    []string `yaml:"ignore"`
}

// loadConfig reads the config file at path.  With path empty, dspc.yaml in
// the working directory is tried, and its absence is not an error.
func loadConfig(path string) (config, error) {
	var explicit = path != ""
	if path == "" {
		path = "dspc.yaml"
	}
	var cfg config
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
