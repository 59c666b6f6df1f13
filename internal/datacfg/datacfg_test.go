package datacfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewEntryDefaults(t *testing.T) {
	e, err := NewEntry("/mnt/training-data", Overrides{})
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}

	if e.General.ForecastPath != "/mnt/training-data/" {
		t.Errorf("forecast path = %q", e.General.ForecastPath)
	}
	if e.General.TruthPath != "/mnt/training-data/TRUTH/" {
		t.Errorf("truth path = %q", e.General.TruthPath)
	}
	if e.General.ConstantsPath != "/mnt/training-data/constants/" {
		t.Errorf("constants path = %q", e.General.ConstantsPath)
	}
	if e.TFRecords.TFRecordsPath != "/mnt/training-data/tfrecords/" {
		t.Errorf("tfrecords path = %q", e.TFRecords.TFRecordsPath)
	}
}

func TestNewEntryOverrides(t *testing.T) {
	e, err := NewEntry("/mnt/data", Overrides{
		TruthPath:     "/fast-disk/truth",
		TFRecordsPath: "/fast-disk/tfrecords/",
	})
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}

	if e.General.TruthPath != "/fast-disk/truth/" {
		t.Errorf("truth path = %q", e.General.TruthPath)
	}
	if e.TFRecords.TFRecordsPath != "/fast-disk/tfrecords/" {
		t.Errorf("tfrecords path = %q, want single trailing slash", e.TFRecords.TFRecordsPath)
	}
	if e.General.ForecastPath != "/mnt/data/" {
		t.Errorf("forecast path = %q, default should remain", e.General.ForecastPath)
	}
}

func TestUpdateCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "data_paths.yaml")

	e, err := NewEntry("/mnt/data", Overrides{})
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if err := Update(path, "VM_SESSION", e); err != nil {
		t.Fatalf("Update: %v", err)
	}

	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := entries["VM_SESSION"]
	if !ok {
		t.Fatalf("entry VM_SESSION missing, have %v", entries)
	}
	if got.General.ConstantsPath != "/mnt/data/constants/" {
		t.Errorf("constants path = %q", got.General.ConstantsPath)
	}
}

func TestUpdatePreservesOtherEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_paths.yaml")

	first, err := NewEntry("/mnt/one", Overrides{})
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if err := Update(path, "MACHINE_A", first); err != nil {
		t.Fatalf("Update: %v", err)
	}

	second, err := NewEntry("/mnt/two", Overrides{})
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if err := Update(path, "MACHINE_B", second); err != nil {
		t.Fatalf("Update: %v", err)
	}

	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries["MACHINE_A"].General.ForecastPath != "/mnt/one/" {
		t.Errorf("MACHINE_A forecast path = %q", entries["MACHINE_A"].General.ForecastPath)
	}
	if entries["MACHINE_B"].General.ForecastPath != "/mnt/two/" {
		t.Errorf("MACHINE_B forecast path = %q", entries["MACHINE_B"].General.ForecastPath)
	}
}

func TestUpdateReplacesEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_paths.yaml")

	old, err := NewEntry("/mnt/old", Overrides{})
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if err := Update(path, "VM_SESSION", old); err != nil {
		t.Fatalf("Update: %v", err)
	}

	fresh, err := NewEntry("/mnt/new", Overrides{})
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if err := Update(path, "VM_SESSION", fresh); err != nil {
		t.Fatalf("Update: %v", err)
	}

	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries["VM_SESSION"].General.ForecastPath != "/mnt/new/" {
		t.Errorf("entry not replaced: %q", entries["VM_SESSION"].General.ForecastPath)
	}
}

func TestUpdateKeepsExpectedYAMLKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_paths.yaml")

	e, err := NewEntry("/mnt/data", Overrides{})
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if err := Update(path, "VM_SESSION", e); err != nil {
		t.Fatalf("Update: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// The training code looks these keys up verbatim.
	for _, key := range []string{"GENERAL", "TRUTH_PATH", "FORECAST_PATH", "CONSTANTS_PATH", "TFRecords", "tfrecords_path"} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("output missing key %q:\n%s", key, raw)
		}
	}
}
