// This file implements calibration profile persistence.
package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/agbru/primelab/internal/circuit"
	"github.com/agbru/primelab/internal/cli"
)

// CalibrationProfile stores the outcome of a calibration run together with
// the hardware it ran on, so that a cached profile can be checked before
// use.
type CalibrationProfile struct {
	// Hardware identification
	CPUModel    string `json:"cpu_model"`
	CPUFeatures string `json:"cpu_features"`
	NumCPU      int    `json:"num_cpu"`
	GOARCH      string `json:"goarch"`
	GOOS        string `json:"goos"`
	GoVersion   string `json:"go_version"`
	WordSize    int    `json:"word_size"`

	// Calibrated model
	Model        circuit.LargePrimeModel `json:"model"`
	MeanAccuracy float64                 `json:"mean_accuracy"`
	Samples      []int                   `json:"samples"`
	Voltage      float64                 `json:"voltage"`
	Candidates   int                     `json:"candidates"`

	// Calibration metadata
	CalibratedAt    time.Time `json:"calibrated_at"`
	CalibrationTime string    `json:"calibration_time"`

	ProfileVersion int `json:"profile_version"`
}

const (
	// CurrentProfileVersion is bumped on incompatible format changes.
	CurrentProfileVersion = 1

	// DefaultProfileFileName is created in the user's home directory.
	DefaultProfileFileName = ".primelab_calibration.json"
)

// GetDefaultProfilePath returns ~/.primelab_calibration.json, or the bare
// file name when the home directory is unknown.
func GetDefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfileFileName
	}
	return filepath.Join(home, DefaultProfileFileName)
}

func wordSize() int { return 32 << (^uint(0) >> 63) }

// NewProfile returns an empty profile stamped with the current hardware.
func NewProfile() *CalibrationProfile {
	return &CalibrationProfile{
		CPUModel:       fmt.Sprintf("%s-%d-cores", runtime.GOARCH, runtime.NumCPU()),
		CPUFeatures:    cli.CPUFeatures(),
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		GOOS:           runtime.GOOS,
		GoVersion:      runtime.Version(),
		WordSize:       wordSize(),
		CalibratedAt:   time.Now(),
		ProfileVersion: CurrentProfileVersion,
	}
}

// LoadProfile reads a profile. An empty path means the default path.
func LoadProfile(path string) (*CalibrationProfile, error) {
	if path == "" {
		path = GetDefaultProfilePath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var profile CalibrationProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile writes the profile as indented JSON with mode 0600. An empty
// path means the default path.
func (p *CalibrationProfile) SaveProfile(path string) error {
	if path == "" {
		path = GetDefaultProfilePath()
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// IsValid reports whether the profile can be applied here: same format
// version, same CPU count, architecture and word size, and a model that
// passes circuit validation.
func (p *CalibrationProfile) IsValid() bool {
	if p == nil {
		return false
	}
	if p.ProfileVersion != CurrentProfileVersion {
		return false
	}
	if p.NumCPU != runtime.NumCPU() || p.GOARCH != runtime.GOARCH || p.WordSize != wordSize() {
		return false
	}
	return p.Model.Validate() == nil
}

// IsStale reports whether the profile is older than maxAge.
func (p *CalibrationProfile) IsStale(maxAge time.Duration) bool {
	if p == nil {
		return true
	}
	return time.Since(p.CalibratedAt) > maxAge
}

func (p *CalibrationProfile) String() string {
	if p == nil {
		return "<nil profile>"
	}
	return fmt.Sprintf(
		"CalibrationProfile{CPU: %s, k: %g, size correction: %g, energy scaling: %g, accuracy: %.2f%%, Calibrated: %s}",
		p.CPUModel,
		p.Model.K,
		p.Model.SizeCorrection,
		p.Model.EnergyScaling,
		p.MeanAccuracy,
		p.CalibratedAt.Format(time.RFC3339),
	)
}

// LoadOrCreateProfile loads the profile at path. It returns a fresh
// profile and false when the file is missing, unreadable or invalid for
// this machine.
func LoadOrCreateProfile(path string) (*CalibrationProfile, bool) {
	profile, err := LoadProfile(path)
	if err != nil || !profile.IsValid() {
		return NewProfile(), false
	}
	return profile, true
}

// ProfileExists reports whether a file exists at path (or the default
// path).
func ProfileExists(path string) bool {
	if path == "" {
		path = GetDefaultProfilePath()
	}
	_, err := os.Stat(path)
	return err == nil
}
