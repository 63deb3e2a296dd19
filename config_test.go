package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Missing config file must not be an error: %v", err)
	}
	if cfg.DefaultDestination != "Warehouse" {
		t.Errorf("Expected default destination Warehouse, got %s", cfg.DefaultDestination)
	}
	if cfg.DefaultCustomer != "LG" {
		t.Errorf("Expected default customer LG, got %s", cfg.DefaultCustomer)
	}
	if cfg.Timezone != "America/Mexico_City" {
		t.Errorf("Expected plant timezone, got %s", cfg.Timezone)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oqcgate.yaml")
	data := "plant_name: Monterrey\ndefault_destination: Dock 3\ntimezone: UTC\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.PlantName != "Monterrey" {
		t.Errorf("Expected plant name Monterrey, got %s", cfg.PlantName)
	}
	if cfg.DefaultDestination != "Dock 3" {
		t.Errorf("Expected destination Dock 3, got %s", cfg.DefaultDestination)
	}
	// Fields absent from the file keep their defaults.
	if cfg.DefaultCustomer != "LG" {
		t.Errorf("Expected default customer LG, got %s", cfg.DefaultCustomer)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oqcgate.yaml")
	if err := os.WriteFile(path, []byte("default_destination: Dock 3\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("OQC_DEFAULT_DESTINATION", "Dock 9")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.DefaultDestination != "Dock 9" {
		t.Errorf("Environment must override the file, got %s", cfg.DefaultDestination)
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oqcgate.yaml")
	if err := os.WriteFile(path, []byte("plant_name: [un終"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Error("Expected an error for malformed YAML")
	}
}
