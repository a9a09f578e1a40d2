package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
lattice: one_site.yml
nt: 8
U: 2
beta: 5
mu: 0
sigma_kappa: -1
hmc:
  n_therm: 3000
  n_leapfrog_therm: 12
  n_leapfrog: 3
  n_production: 10000
`

func TestParse(t *testing.T) {
	e, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 8, e.NT)
	assert.Equal(t, 2.0, e.U)
	assert.Equal(t, -1.0, e.SigmaKappa)
	assert.Equal(t, 3000, e.HMC.NTherm)
	assert.Equal(t, 13000, e.TotalTrajectories())

	assert.InDelta(t, 0.625, e.Delta(), 1e-15)
	assert.InDelta(t, 1.25, e.UTilde(), 1e-15)
	assert.Equal(t, 0.0, e.MuTilde())

	assert.Equal(t, "one_site.nt8.U2.beta5.mu0", e.CanonicalName())
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("lattice: x.yml\nnt: 4\nbeta: 1\nbogus: 1\nhmc:\n  n_leapfrog: 1\n  n_leapfrog_therm: 1\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Ensemble {
		e, err := Parse([]byte(sampleYAML))
		require.NoError(t, err)
		return e
	}

	e := base()
	e.NT = 0
	assert.Error(t, e.Validate())

	e = base()
	e.Beta = -1
	assert.Error(t, e.Validate())

	e = base()
	e.LatticeFile = ""
	assert.Error(t, e.Validate())

	e = base()
	e.HMC.NLeapfrogTherm = 1
	assert.Error(t, e.Validate())
}

func TestCanonicalNameStripsDirectory(t *testing.T) {
	e, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	// A dot in a parent directory must not eat the lattice stem.
	e.LatticeFile = "runs.2024/one_site.yml"
	assert.Equal(t, "one_site.nt8.U2.beta5.mu0", e.CanonicalName())

	e.LatticeFile = "lattices/c60_ipr.yml"
	assert.Equal(t, "c60_ipr.nt8.U2.beta5.mu0", e.CanonicalName())
}

func TestExplicitNameWins(t *testing.T) {
	e, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	e.Name = "custom"
	assert.Equal(t, "custom", e.CanonicalName())
}

func TestScaleHopping(t *testing.T) {
	e, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	hopping := [][]float64{{0, 1}, {1, 0}}
	scaled := e.ScaleHopping(hopping)
	assert.InDelta(t, 0.625, scaled[0][1], 1e-15)
	assert.Equal(t, 0.0, scaled[0][0])
	// Input untouched.
	assert.Equal(t, 1.0, hopping[0][1])
}
