package data

import (
	"strings"
	"testing"
)

func TestLoadCSVInfersTypes(t *testing.T) {
	src := "key,x0,x1,group\n" +
		"a,1.0,2.0,red\n" +
		"b,3.0,4.0,blue\n"

	td, err := LoadCSV(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}

	if td.Header.Types[0] != "numeric" || td.Header.Types[1] != "numeric" {
		t.Errorf("expected x0, x1 to be numeric, got %v", td.Header.Types)
	}
	if td.Header.Types[2] != "categorical" {
		t.Errorf("expected group to be categorical, got %q", td.Header.Types[2])
	}

	row, ok := td.Row("a")
	if !ok {
		t.Fatal("expected key \"a\" to be present")
	}
	if row[0] != "1.0" {
		t.Errorf("x0 for key a = %q, want 1.0", row[0])
	}
}

func TestLoadCSVDropsNARows(t *testing.T) {
	src := "key,x0,x1\n" +
		"a,1.0,2.0\n" +
		"b,NA,2.0\n"

	td, err := LoadCSV(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if td.HasKey("b") {
		t.Error("expected row with NA value to be dropped")
	}
	if !td.HasKey("a") {
		t.Error("expected row \"a\" to survive")
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	src := "key,x0,x1\n" +
		"a,1.0,2.0\n" +
		"b,3.0,4.0\n"

	td, err := LoadCSV(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}

	var buf strings.Builder
	if err := WriteCSV(&buf, td); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	roundTripped, err := LoadCSV(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("LoadCSV (round trip): %v", err)
	}
	for _, key := range td.Keys() {
		orig, _ := td.Row(key)
		got, ok := roundTripped.Row(key)
		if !ok {
			t.Fatalf("round-tripped table missing key %q", key)
		}
		for i := range orig {
			if orig[i] != got[i] {
				t.Errorf("key %q col %d: got %q, want %q", key, i, got[i], orig[i])
			}
		}
	}
}
