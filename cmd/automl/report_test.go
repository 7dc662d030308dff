package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wlattner/automl/automl"
)

func TestWritePipelineInfoWithoutModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline_info.txt")

	res := automl.Result{Creature: []string{"FS", "US"}}
	if err := writePipelineInfo(path, res); err != nil {
		t.Fatalf("writePipelineInfo: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(b), "pipeline: [FS US]") {
		t.Errorf("expected pipeline line in output, got %q", string(b))
	}
}

func TestWritePerformanceInfoWithoutConfusion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "performance_info.csv")

	res := automl.Result{Validation: 0.25}
	if err := writePerformanceInfo(path, res); err != nil {
		t.Fatalf("writePerformanceInfo: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(b), "0.25") {
		t.Errorf("expected validation score in output, got %q", string(b))
	}
}
