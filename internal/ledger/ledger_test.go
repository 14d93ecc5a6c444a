package ledger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/hydroprep/internal/artifact"
)

func openTestSession(t *testing.T, dir string) *Session {
	t.Helper()
	s, err := Open(filepath.Join(dir, "metadata.json"), filepath.Join(dir, ".ledger.lock"), Wait)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func demArtifact(name string) artifact.Artifact {
	return artifact.Artifact{
		Name: name,
		Type: artifact.TypeDEM,
		Path: "maps/" + name,
		Spatial: &artifact.SpatialMeta{
			Projection: "EPSG:32618",
			Extent:     artifact.Extent{North: 4500000, South: 4490000, East: 590000, West: 580000},
			CellSize:   artifact.CellSize{EW: 10, NS: 10},
		},
	}
}

func TestRecordAndGetStep(t *testing.T) {
	dir := t.TempDir()
	s := openTestSession(t, dir)

	params := Params{}
	params.Set("dem", "site_dem")
	rec, err := s.Ledger().RecordStep("register-dem", params, nil, []artifact.Artifact{demArtifact("site_dem")})
	require.NoError(t, err)
	assert.Equal(t, "register-dem", rec.Name)
	assert.Equal(t, []string{"site_dem"}, rec.Produced)

	got, err := s.Ledger().GetStep("register-dem")
	require.NoError(t, err)
	assert.Equal(t, "site_dem", got.Params.Get("dem"))

	a, ok := s.Ledger().Artifact("site_dem")
	require.True(t, ok)
	assert.Equal(t, artifact.TypeDEM, a.Type)
	assert.Equal(t, "register-dem", a.Step)
}

func TestGetStepNotFound(t *testing.T) {
	s := openTestSession(t, t.TempDir())

	_, err := s.Ledger().GetStep("delineate")
	assert.ErrorIs(t, err, ErrStepNotFound)
}

func TestRecordStepRejectsUnknownConsumedRef(t *testing.T) {
	s := openTestSession(t, t.TempDir())

	_, err := s.Ledger().RecordStep("delineate", Params{}, []string{"site_dem"}, nil)
	assert.ErrorContains(t, err, "not registered")
}

func TestRerunOverwritesRecordWholesale(t *testing.T) {
	dir := t.TempDir()
	s := openTestSession(t, dir)

	first := Params{}
	first.Set("threshold", "500")
	first.Set("only_in_first", "yes")
	_, err := s.Ledger().RecordStep("delineate", first, nil, []artifact.Artifact{
		{Name: "streams_a", Type: artifact.TypeRasterMap, Path: "maps/streams_a"},
	})
	require.NoError(t, err)

	second := Params{}
	second.Set("threshold", "1000")
	_, err = s.Ledger().RecordStep("delineate", second, nil, []artifact.Artifact{
		{Name: "streams_b", Type: artifact.TypeRasterMap, Path: "maps/streams_b"},
	})
	require.NoError(t, err)

	got, err := s.Ledger().GetStep("delineate")
	require.NoError(t, err)
	assert.Equal(t, "1000", got.Params.Get("threshold"))
	assert.Empty(t, got.Params.Get("only_in_first"), "record must be replaced, never merged")
	assert.Equal(t, []string{"streams_b"}, got.Produced)
}

func TestLedgerRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s := openTestSession(t, dir)
	_, err := s.Ledger().RecordStep("register-dem", Params{}, nil, []artifact.Artifact{demArtifact("site_dem")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2 := openTestSession(t, dir)
	a, ok := s2.Ledger().Artifact("site_dem")
	require.True(t, ok)
	require.NotNil(t, a.Spatial)
	assert.Equal(t, "EPSG:32618", a.Spatial.Projection)
	assert.Equal(t, artifact.CellSize{EW: 10, NS: 10}, a.Spatial.CellSize)

	dems := s2.Ledger().ListArtifacts(artifact.TypeDEM)
	require.Len(t, dems, 1)
	assert.Equal(t, "site_dem", dems[0].Name)
}

func TestCorruptLedgerIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path, filepath.Join(dir, ".ledger.lock"), Wait)
	var corrupt *CorruptLedgerError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, path, corrupt.Path)
}

func TestOldSchemaVersionIsRejectedNotUpgraded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")
	old, err := json.Marshal(map[string]any{"schema_version": 1, "steps": map[string]any{}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, old, 0o644))

	_, err = Open(path, filepath.Join(dir, ".ledger.lock"), Wait)
	var corrupt *CorruptLedgerError
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Reason, "not auto-upgraded")
}

func TestNoWaitFailsFastWhenLocked(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "metadata.json")
	lockPath := filepath.Join(dir, ".ledger.lock")

	holder, err := Open(ledgerPath, lockPath, Wait)
	require.NoError(t, err)
	defer holder.Close()

	_, err = Open(ledgerPath, lockPath, NoWait)
	assert.ErrorIs(t, err, ErrLedgerBusy)
}

func TestWaitSerializesSecondOpen(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "metadata.json")
	lockPath := filepath.Join(dir, ".ledger.lock")

	holder, err := Open(ledgerPath, lockPath, Wait)
	require.NoError(t, err)

	opened := make(chan *Session, 1)
	errs := make(chan error, 1)
	go func() {
		s, err := Open(ledgerPath, lockPath, Wait)
		if err != nil {
			errs <- err
			return
		}
		opened <- s
	}()

	select {
	case <-opened:
		t.Fatal("second Open must block while the lock is held")
	case err := <-errs:
		t.Fatalf("second Open failed: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, holder.Close())

	select {
	case s := <-opened:
		s.Close()
	case err := <-errs:
		t.Fatalf("second Open failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("second Open did not proceed after the lock was released")
	}
}

func TestDuplicateStepConflict(t *testing.T) {
	dir := t.TempDir()
	s := openTestSession(t, dir)

	// Simulate a racing invocation that recorded the same step after this
	// session loaded the ledger.
	racing := ledgerFile{
		SchemaVersion: SchemaVersion,
		Steps: map[string]*StepRecord{
			"delineate": {Name: "delineate", Timestamp: time.Now().Add(time.Minute)},
		},
	}
	data, err := json.Marshal(&racing)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), data, 0o644))

	_, err = s.Ledger().RecordStep("delineate", Params{}, nil, nil)
	var conflict *DuplicateStepConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "delineate", conflict.Step)

	// A different step name is unaffected by the conflict.
	_, err = s.Ledger().RecordStep("register-dem", Params{}, nil, []artifact.Artifact{demArtifact("site_dem")})
	assert.NoError(t, err)
}

func TestRacingWritersLeaveWellFormedLedger(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "metadata.json")
	lockPath := filepath.Join(dir, ".ledger.lock")

	done := make(chan error, 2)
	writer := func(threshold string) {
		s, err := Open(ledgerPath, lockPath, Wait)
		if err != nil {
			done <- err
			return
		}
		defer s.Close()
		p := Params{}
		p.Set("threshold", threshold)
		_, err = s.Ledger().RecordStep("delineate", p, nil, nil)
		done <- err
	}
	go writer("500")
	go writer("1000")

	for i := 0; i < 2; i++ {
		err := <-done
		if err != nil {
			var conflict *DuplicateStepConflictError
			require.ErrorAs(t, err, &conflict)
		}
	}

	s := openTestSession(t, dir)
	rec, err := s.Ledger().GetStep("delineate")
	require.NoError(t, err)
	got := rec.Params.Get("threshold")
	assert.Contains(t, []string{"500", "1000"}, got, "ledger must hold one well-formed record, never a merge")
}

func TestParamsCloneIsDeep(t *testing.T) {
	p := Params{}
	p.SetList("stations", "gauge_a", "gauge_b")

	c := p.Clone()
	c["stations"][0] = "mutated"
	assert.Equal(t, "gauge_a", p["stations"][0])
}

func TestMissingLedgerFileStartsEmpty(t *testing.T) {
	s := openTestSession(t, t.TempDir())
	assert.Empty(t, s.Ledger().Steps())

	_, err := s.Ledger().GetStep("anything")
	assert.True(t, errors.Is(err, ErrStepNotFound))
}
