package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/wlattner/automl/config"
)

// settingsFileName is the single settings file expected inside settingsDir.
const settingsFileName = "settings.conf"

func loadSettings(settingsDir string) (config.RunConfig, error) {
	path := filepath.Join(settingsDir, settingsFileName)
	f, err := os.Open(path)
	if err != nil {
		return config.RunConfig{}, errors.Wrapf(err, "opening settings file %q", path)
	}
	defer f.Close()

	cfg, err := config.Load(f)
	if err != nil {
		return config.RunConfig{}, errors.Wrapf(err, "parsing settings file %q", path)
	}
	return cfg, nil
}
