// Package testutil provides shared fixtures for exercising pipeline steps
// without a real GIS engine or simulator.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/hydroprep/internal/artifact"
	"github.com/vk/hydroprep/internal/ctxlog"
	"github.com/vk/hydroprep/internal/engine"
	"github.com/vk/hydroprep/internal/ledger"
	"github.com/vk/hydroprep/internal/project"
)

// Ctx returns a context carrying a discard logger, as every entrypoint does
// for real invocations.
func Ctx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// TempProject opens a throwaway project with its layout created.
func TempProject(t *testing.T) *project.Project {
	t.Helper()
	p, err := project.Open(t.TempDir())
	require.NoError(t, err)
	return p
}

// OpenSession opens a ledger session on the project, closed at test cleanup.
func OpenSession(t *testing.T, p *project.Project) *ledger.Session {
	t.Helper()
	s, err := ledger.Open(p.LedgerPath(), p.LockPath(), ledger.Wait)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// DEMMeta is the spatial metadata fixture used across step tests.
func DEMMeta() artifact.SpatialMeta {
	return artifact.SpatialMeta{
		Projection: "EPSG:32618",
		Extent:     artifact.Extent{North: 4500000, South: 4490000, East: 590000, West: 580000},
		CellSize:   artifact.CellSize{EW: 10, NS: 10},
	}
}

// WriteFile writes content under the project (or any) directory and returns
// the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// FakeGIS is a scripted GIS engine. Outputs are returned per operation name;
// Err, when set, fails every call. Calls records each invocation.
type FakeGIS struct {
	Outputs map[string][]engine.OutputMap
	Err     error
	Calls   []FakeCall
}

// FakeCall captures one RunOperation invocation.
type FakeCall struct {
	Op     string
	Inputs []string
	Params map[string]string
}

// RunOperation implements engine.GIS.
func (f *FakeGIS) RunOperation(_ context.Context, op string, inputs []string, params map[string]string) ([]engine.OutputMap, error) {
	f.Calls = append(f.Calls, FakeCall{Op: op, Inputs: inputs, Params: params})
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Outputs[op], nil
}

// FakeSimulator is a scripted simulator.
type FakeSimulator struct {
	Outputs []engine.OutputMap
	Err     error
	Worlds  []string
}

// RunModel implements engine.Simulator.
func (f *FakeSimulator) RunModel(_ context.Context, worldfile string, _ map[string]string) ([]engine.OutputMap, error) {
	f.Worlds = append(f.Worlds, worldfile)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Outputs, nil
}
