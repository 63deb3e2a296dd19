package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// appConfig holds the active plant settings, replaced at startup.
var appConfig = defaultConfig()

// Config carries plant-level settings. All fields have working defaults;
// the YAML file and environment are both optional.
type Config struct {
	PlantName          string `yaml:"plant_name"`
	DefaultDestination string `yaml:"default_destination"`
	DefaultCustomer    string `yaml:"default_customer"`
	Timezone           string `yaml:"timezone"`
}

func defaultConfig() Config {
	return Config{
		PlantName:          "OQC",
		DefaultDestination: "Warehouse",
		DefaultCustomer:    "LG",
		Timezone:           "America/Mexico_City",
	}
}

// loadConfig reads the YAML config file if present, then applies
// environment overrides. A missing file is not an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if v := os.Getenv("OQC_PLANT_NAME"); v != "" {
		cfg.PlantName = v
	}
	if v := os.Getenv("OQC_DEFAULT_DESTINATION"); v != "" {
		cfg.DefaultDestination = v
	}
	if v := os.Getenv("OQC_DEFAULT_CUSTOMER"); v != "" {
		cfg.DefaultCustomer = v
	}
	if v := os.Getenv("OQC_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	return cfg, nil
}
