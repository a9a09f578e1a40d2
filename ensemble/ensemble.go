// Package ensemble defines the parameter set of one HMC run: physical
// parameters of the lattice Hubbard model and the trajectory schedule.
// Parameters are loaded from YAML files; lattice file parsing itself is
// external, only the file reference is carried here.
package ensemble

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schedule is the HMC evolution schedule.
type Schedule struct {
	// NTherm is the number of thermalization trajectories.
	NTherm int `yaml:"n_therm"`
	// NLeapfrogTherm is the leapfrog step count at the start of
	// thermalization; it is annealed down to NLeapfrog over NTherm steps.
	NLeapfrogTherm int `yaml:"n_leapfrog_therm"`
	// NLeapfrog is the production leapfrog step count.
	NLeapfrog int `yaml:"n_leapfrog"`
	// NProduction is the number of production trajectories.
	NProduction int `yaml:"n_production"`
}

// Ensemble bundles the physical and evolution parameters of one run.
type Ensemble struct {
	// Name overrides the derived ensemble name when set.
	Name string `yaml:"name"`
	// LatticeFile references the lattice description consumed by the
	// external physics library.
	LatticeFile string `yaml:"lattice"`

	NT         int     `yaml:"nt"`   // time slices
	U          float64 `yaml:"U"`    // Hubbard on-site coupling
	Beta       float64 `yaml:"beta"` // inverse temperature
	Mu         float64 `yaml:"mu"`   // chemical potential
	SigmaKappa float64 `yaml:"sigma_kappa"`

	HMC Schedule `yaml:"hmc"`
}

// Load reads and validates an ensemble parameter file.
func Load(path string) (*Ensemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates ensemble parameters from YAML.
func Parse(data []byte) (*Ensemble, error) {
	var e Ensemble
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&e); err != nil {
		return nil, fmt.Errorf("ensemble: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Validate checks the parameters for internal consistency.
func (e *Ensemble) Validate() error {
	if e.LatticeFile == "" {
		return fmt.Errorf("ensemble: lattice file is required")
	}
	if e.NT <= 0 {
		return fmt.Errorf("ensemble: nt must be positive, got %d", e.NT)
	}
	if e.Beta <= 0 {
		return fmt.Errorf("ensemble: beta must be positive, got %v", e.Beta)
	}
	if e.HMC.NTherm < 0 || e.HMC.NProduction < 0 {
		return fmt.Errorf("ensemble: trajectory counts must be non-negative")
	}
	if e.HMC.NLeapfrog <= 0 {
		return fmt.Errorf("ensemble: n_leapfrog must be positive, got %d", e.HMC.NLeapfrog)
	}
	if e.HMC.NLeapfrogTherm < e.HMC.NLeapfrog {
		return fmt.Errorf("ensemble: n_leapfrog_therm %d below production step count %d",
			e.HMC.NLeapfrogTherm, e.HMC.NLeapfrog)
	}
	return nil
}

// Delta returns the temporal lattice spacing beta / nt.
func (e *Ensemble) Delta() float64 { return e.Beta / float64(e.NT) }

// UTilde returns the coupling scaled to lattice units.
func (e *Ensemble) UTilde() float64 { return e.U * e.Delta() }

// MuTilde returns the chemical potential scaled to lattice units.
func (e *Ensemble) MuTilde() float64 { return e.Mu * e.Delta() }

// ScaleHopping scales a hopping matrix by delta, yielding kappa-tilde.
func (e *Ensemble) ScaleHopping(hopping [][]float64) [][]float64 {
	delta := e.Delta()
	out := make([][]float64, len(hopping))
	for i, row := range hopping {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v * delta
		}
	}
	return out
}

// CanonicalName derives the ensemble name from its parameters:
// <lattice>.nt<nt>.U<U>.beta<beta>.mu<mu>. An explicit Name wins.
func (e *Ensemble) CanonicalName() string {
	if e.Name != "" {
		return e.Name
	}
	base := filepath.Base(e.LatticeFile)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return fmt.Sprintf("%s.nt%d.U%s.beta%s.mu%s", base, e.NT, num(e.U), num(e.Beta), num(e.Mu))
}

// TotalTrajectories returns the full schedule length.
func (e *Ensemble) TotalTrajectories() int {
	return e.HMC.NTherm + e.HMC.NProduction
}
