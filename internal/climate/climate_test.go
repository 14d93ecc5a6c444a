package climate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOmittedScalingDefaultsToNoScalingNotZero(t *testing.T) {
	// Regression test for the historical defect where a missing isohyet map
	// defaulted to all zeros and silently eliminated precipitation.
	r := NewRegistry()
	st, err := r.AddStation("gauge_a", "basestations", nil)
	require.NoError(t, err)

	st.Weights = map[CellID]float64{1: 1, 2: 1, 3: 1}
	for cell := range st.Weights {
		assert.Equal(t, 1.0, st.Scaling.Factor(cell), "cell %d must scale by exactly 1.0", cell)
		assert.NotEqual(t, 0.0, st.Scaling.Factor(cell))
	}
	assert.True(t, st.Scaling.Uniform())
}

func TestPartialScalingTableFallsBackToNoScaling(t *testing.T) {
	g := NewScaling(map[CellID]float64{7: 85})
	assert.Equal(t, 0.85, g.Factor(7))
	assert.Equal(t, 1.0, g.Factor(8), "cells outside the isohyet footprint keep their precipitation")
}

func TestDuplicateStationRejected(t *testing.T) {
	r := NewRegistry()
	_, err := r.AddStation("gauge_a", "basestations", nil)
	require.NoError(t, err)
	_, err = r.AddStation("gauge_a", "basestations", nil)
	assert.ErrorContains(t, err, "already registered")
}

func TestValidateAllPassesWithDominantStations(t *testing.T) {
	r := NewRegistry()
	a, err := r.AddStation("gauge_a", "basestations", nil)
	require.NoError(t, err)
	b, err := r.AddStation("gauge_b", "basestations", nil)
	require.NoError(t, err)

	a.Weights = map[CellID]float64{1: 0.9, 2: 0.6}
	b.Weights = map[CellID]float64{2: 0.4, 3: 0.8}
	assert.NoError(t, r.ValidateAll())
}

func TestValidateAllReportsAllConflictPairsAtOnce(t *testing.T) {
	r := NewRegistry()
	a, err := r.AddStation("gauge_a", "basestations", nil)
	require.NoError(t, err)
	b, err := r.AddStation("gauge_b", "basestations", nil)
	require.NoError(t, err)
	c, err := r.AddStation("gauge_c", "basestations", nil)
	require.NoError(t, err)

	// Cell 10: a and b tie. Cell 20: b and c tie. Cell 30: fine.
	a.Weights = map[CellID]float64{10: 0.5, 30: 0.9}
	b.Weights = map[CellID]float64{10: 0.5, 20: 0.7}
	c.Weights = map[CellID]float64{20: 0.7, 30: 0.1}

	err = r.ValidateAll()
	var conflict *ConflictingStationsError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, [][2]string{{"gauge_a", "gauge_b"}, {"gauge_b", "gauge_c"}}, conflict.Pairs)
}

func TestValidateAllThreeWayTie(t *testing.T) {
	r := NewRegistry()
	names := []string{"gauge_a", "gauge_b", "gauge_c"}
	for _, n := range names {
		st, err := r.AddStation(n, "basestations", nil)
		require.NoError(t, err)
		st.Weights = map[CellID]float64{5: 1.0}
	}

	err := r.ValidateAll()
	var conflict *ConflictingStationsError
	require.ErrorAs(t, err, &conflict)
	assert.Len(t, conflict.Pairs, 3, "every pair among the tied stations is reported")
}

func TestValidateAllEmptyRegistry(t *testing.T) {
	assert.NoError(t, NewRegistry().ValidateAll())
}

func TestLoadDirParsesStationsAndIgnoresStrata(t *testing.T) {
	dir := t.TempDir()
	src := `
stratum "tree" {
  lai = 4.5
}

station "gauge_a" {
  base_map = "basestations"
}

station "gauge_b" {
  base_map = "basestations"
  isohyet  = "annual_isohyet"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.hcl"), []byte(src), 0o644))

	defs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "gauge_a", defs[0].Name)
	assert.Empty(t, defs[0].Isohyet)
	assert.Equal(t, "annual_isohyet", defs[1].Isohyet)
	assert.Equal(t, "basestations", defs[1].BaseMap)
}

func TestParseWeightTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.txt")
	src := "# cell weight\n1 0.9\n2 0.1\n\n3 1\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	w, err := ParseWeightTable(path)
	require.NoError(t, err)
	assert.Equal(t, map[CellID]float64{1: 0.9, 2: 0.1, 3: 1}, w)
}

func TestParseWeightTableBadLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.txt")
	require.NoError(t, os.WriteFile(path, []byte("1 0.9 extra\n"), 0o644))

	_, err := ParseWeightTable(path)
	assert.ErrorContains(t, err, "expected 'cell weight'")
}

func TestParseScalingTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "isohyet.txt")
	require.NoError(t, os.WriteFile(path, []byte("1 120\n2 80\n"), 0o644))

	g, err := ParseScalingTable(path)
	require.NoError(t, err)
	assert.Equal(t, 1.2, g.Factor(1))
	assert.Equal(t, 0.8, g.Factor(2))
	assert.Equal(t, 1.0, g.Factor(99))
}
