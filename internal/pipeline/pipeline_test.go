package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/hydroprep/internal/ledger"
)

func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	dir := t.TempDir()
	s, err := ledger.Open(filepath.Join(dir, "metadata.json"), filepath.Join(dir, ".ledger.lock"), ledger.Wait)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.Ledger()
}

func statusByName(report []Status) map[string]Status {
	out := make(map[string]Status, len(report))
	for _, s := range report {
		out[s.Name] = s
	}
	return out
}

func TestFreshProjectOnlyRegisterDEMReady(t *testing.T) {
	report := Report(newLedger(t))
	byName := statusByName(report)

	assert.True(t, byName[StepRegisterDEM].Ready)
	for _, s := range report {
		assert.False(t, s.Ran, "nothing has run yet: %s", s.Name)
		if s.Name != StepRegisterDEM {
			assert.False(t, s.Ready, "%s must not be ready on a fresh project", s.Name)
		}
	}
}

func TestReadinessFollowsRecordedSteps(t *testing.T) {
	led := newLedger(t)
	_, err := led.RecordStep(StepRegisterDEM, ledger.Params{}, nil, nil)
	require.NoError(t, err)

	byName := statusByName(Report(led))
	assert.True(t, byName[StepRegisterDEM].Ran)
	assert.True(t, byName[StepDelineate].Ready)
	assert.True(t, byName[StepClimate].Ready)
	assert.False(t, byName[StepLandcover].Ready)
	assert.False(t, byName[StepWorldfile].Ready)
}

func TestWorldfileReadyOnlyAfterAllThree(t *testing.T) {
	led := newLedger(t)
	for _, name := range []string{StepRegisterDEM, StepDelineate, StepLandcover} {
		_, err := led.RecordStep(name, ledger.Params{}, nil, nil)
		require.NoError(t, err)
	}
	byName := statusByName(Report(led))
	assert.False(t, byName[StepWorldfile].Ready)

	_, err := led.RecordStep(StepClimate, ledger.Params{}, nil, nil)
	require.NoError(t, err)
	byName = statusByName(Report(led))
	assert.True(t, byName[StepWorldfile].Ready)
}

func TestLookup(t *testing.T) {
	s, ok := Lookup(StepRun)
	require.True(t, ok)
	assert.Equal(t, []string{StepWorldfile}, s.After)

	_, ok = Lookup("not-a-step")
	assert.False(t, ok)
}
