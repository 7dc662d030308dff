package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	content := "CentralAi/offspringCount = 15\nTree/pool = FS,PCA,OS,US\n"
	if err := os.WriteFile(filepath.Join(dir, settingsFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := loadSettings(dir)
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}

	n, err := cfg.Int("CentralAi/offspringCount", 0)
	if err != nil {
		t.Fatalf("Int: %v", err)
	}
	if n != 15 {
		t.Errorf("offspringCount = %d, want 15", n)
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := loadSettings(dir); err == nil {
		t.Error("expected an error for a missing settings file")
	}
}
