package calibration

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/agbru/primelab/internal/circuit"
)

func TestNewProfile(t *testing.T) {
	t.Parallel()
	profile := NewProfile()

	if profile == nil {
		t.Fatal("NewProfile returned nil")
	}
	if profile.NumCPU != runtime.NumCPU() {
		t.Errorf("NumCPU = %d, want %d", profile.NumCPU, runtime.NumCPU())
	}
	if profile.GOARCH != runtime.GOARCH {
		t.Errorf("GOARCH = %s, want %s", profile.GOARCH, runtime.GOARCH)
	}
	if profile.GOOS != runtime.GOOS {
		t.Errorf("GOOS = %s, want %s", profile.GOOS, runtime.GOOS)
	}
	if profile.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %s, want %s", profile.GoVersion, runtime.Version())
	}
	if profile.ProfileVersion != CurrentProfileVersion {
		t.Errorf("ProfileVersion = %d, want %d", profile.ProfileVersion, CurrentProfileVersion)
	}
	if profile.WordSize != 32<<(^uint(0)>>63) {
		t.Errorf("Unexpected WordSize %d", profile.WordSize)
	}
	if profile.CPUFeatures == "" {
		t.Error("CPUFeatures is empty")
	}
	if profile.CalibratedAt.IsZero() {
		t.Error("CalibratedAt is zero")
	}
}

func TestProfileSaveLoad(t *testing.T) {
	t.Parallel()
	profilePath := filepath.Join(t.TempDir(), "test_profile.json")

	original := NewProfile()
	original.Model = circuit.LargePrimeModel{K: 0.47, Threshold: 100, SizeCorrection: 0.0015, EnergyScaling: 1.1}
	original.MeanAccuracy = 61.5
	original.Samples = []int{101, 103, 107}
	original.Voltage = 10
	original.CalibrationTime = "12ms"

	if err := original.SaveProfile(profilePath); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	info, err := os.Stat(profilePath)
	if err != nil {
		t.Fatalf("Profile file was not created: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0o600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := LoadProfile(profilePath)
	if err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if loaded.Model != original.Model {
		t.Errorf("Model = %+v, want %+v", loaded.Model, original.Model)
	}
	if loaded.MeanAccuracy != original.MeanAccuracy {
		t.Errorf("MeanAccuracy = %v, want %v", loaded.MeanAccuracy, original.MeanAccuracy)
	}
	if len(loaded.Samples) != 3 || loaded.Samples[2] != 107 {
		t.Errorf("Samples = %v, want %v", loaded.Samples, original.Samples)
	}
	if !loaded.IsValid() {
		t.Error("Expected the reloaded profile to be valid")
	}
}

func TestProfileIsValid(t *testing.T) {
	t.Parallel()
	valid := func() *CalibrationProfile {
		p := NewProfile()
		p.Model = circuit.DefaultLargePrimeModel()
		return p
	}

	if !valid().IsValid() {
		t.Error("Expected a profile with the default model to be valid")
	}

	tests := []struct {
		name   string
		mutate func(*CalibrationProfile)
	}{
		{"wrong CPU count", func(p *CalibrationProfile) { p.NumCPU = 999 }},
		{"wrong architecture", func(p *CalibrationProfile) { p.GOARCH = "invalid_arch" }},
		{"wrong word size", func(p *CalibrationProfile) { p.WordSize = 16 }},
		{"wrong version", func(p *CalibrationProfile) { p.ProfileVersion = 999 }},
		{"zero model", func(p *CalibrationProfile) { p.Model = circuit.LargePrimeModel{} }},
		{"negative size correction", func(p *CalibrationProfile) { p.Model.SizeCorrection = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := valid()
			tt.mutate(p)
			if p.IsValid() {
				t.Errorf("Expected profile with %s to be invalid", tt.name)
			}
		})
	}

	var nilProfile *CalibrationProfile
	if nilProfile.IsValid() {
		t.Error("Expected nil profile to be invalid")
	}
}

func TestProfileIsStale(t *testing.T) {
	t.Parallel()
	p := NewProfile()
	if p.IsStale(time.Hour) {
		t.Error("Expected a new profile not to be stale")
	}
	p.CalibratedAt = time.Now().Add(-48 * time.Hour)
	if !p.IsStale(24 * time.Hour) {
		t.Error("Expected a two-day-old profile to be stale after a day")
	}
	var nilProfile *CalibrationProfile
	if !nilProfile.IsStale(time.Hour) {
		t.Error("Expected nil profile to be stale")
	}
}

func TestProfileString(t *testing.T) {
	t.Parallel()
	p := NewProfile()
	p.Model = circuit.LargePrimeModel{K: 0.47, Threshold: 100, SizeCorrection: 0.002, EnergyScaling: 1.3}
	p.MeanAccuracy = 55.25

	s := p.String()
	for _, want := range []string{"k: 0.47", "size correction: 0.002", "energy scaling: 1.3", "55.25%"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %q in %q", want, s)
		}
	}

	var nilProfile *CalibrationProfile
	if nilProfile.String() != "<nil profile>" {
		t.Errorf("Unexpected nil string %q", nilProfile.String())
	}
}

func TestLoadNonExistentProfile(t *testing.T) {
	t.Parallel()
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error loading a missing profile")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProfile(path); err == nil {
		t.Error("Expected error parsing invalid JSON")
	}
}

func TestLoadOrCreateProfile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	p, loaded := LoadOrCreateProfile(filepath.Join(dir, "missing.json"))
	if loaded || p == nil {
		t.Errorf("Expected a fresh profile for a missing file, got loaded=%v", loaded)
	}

	path := filepath.Join(dir, "valid.json")
	saved := NewProfile()
	saved.Model = circuit.DefaultLargePrimeModel()
	if err := saved.SaveProfile(path); err != nil {
		t.Fatal(err)
	}
	p, loaded = LoadOrCreateProfile(path)
	if !loaded || p.Model != saved.Model {
		t.Errorf("Expected the saved profile to load, got loaded=%v model=%+v", loaded, p.Model)
	}

	stalePath := filepath.Join(dir, "incompatible.json")
	saved.NumCPU = runtime.NumCPU() + 1
	if err := saved.SaveProfile(stalePath); err != nil {
		t.Fatal(err)
	}
	if _, loaded := LoadOrCreateProfile(stalePath); loaded {
		t.Error("Expected a profile from another machine to be replaced")
	}
}

func TestProfileExists(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "p.json")
	if ProfileExists(path) {
		t.Error("Expected no profile before saving")
	}
	if err := NewProfile().SaveProfile(path); err != nil {
		t.Fatal(err)
	}
	if !ProfileExists(path) {
		t.Error("Expected the profile to exist after saving")
	}
}

func TestGetDefaultProfilePath(t *testing.T) {
	t.Parallel()
	path := GetDefaultProfilePath()
	if filepath.Base(path) != DefaultProfileFileName {
		t.Errorf("Expected path ending in %s, got %s", DefaultProfileFileName, path)
	}
}
