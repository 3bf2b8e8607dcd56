package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads path. When the file cannot be opened it returns defaults along
// with the error so the caller can decide whether to continue.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		var cfg Config
		cfg.Defaults()
		return &cfg, err
	}
	defer f.Close()
	return FromReader(f)
}

func FromReader(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
