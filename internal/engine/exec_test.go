package engine

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/hydroprep/internal/ctxlog"
)

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test engine scripts are POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-engine")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestRunOperationParsesOutputListing(t *testing.T) {
	bin := writeScript(t, "printf 'flowdir\\t/tmp/maps/flowdir\\nstreams\\t/tmp/maps/streams\\n'")
	gis := &ExecGIS{Bin: bin, OutputDir: "/tmp/maps"}

	outs, err := gis.RunOperation(testCtx(), "delineate", []string{"site_dem"}, map[string]string{"threshold": "500"})
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, OutputMap{Name: "flowdir", Path: "/tmp/maps/flowdir"}, outs[0])
	assert.Equal(t, OutputMap{Name: "streams", Path: "/tmp/maps/streams"}, outs[1])
}

func TestRunOperationSurfacesEngineErrorVerbatim(t *testing.T) {
	bin := writeScript(t, "echo 'r.watershed: region mismatch' >&2; exit 3")
	gis := &ExecGIS{Bin: bin, OutputDir: "/tmp/maps"}

	_, err := gis.RunOperation(testCtx(), "delineate", nil, nil)
	var engErr *EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, "delineate", engErr.Op)
	assert.Equal(t, 3, engErr.Code)
	assert.Equal(t, "r.watershed: region mismatch", engErr.Message)
}

func TestRunModelSurfacesSimulatorErrorVerbatim(t *testing.T) {
	bin := writeScript(t, "echo 'rhessys: bad worldfile' >&2; exit 1")
	sim := &ExecSimulator{Bin: bin, OutputDir: "/tmp/out"}

	_, err := sim.RunModel(testCtx(), "world.template", nil)
	var simErr *SimulatorError
	require.ErrorAs(t, err, &simErr)
	assert.Equal(t, 1, simErr.Code)
	assert.Equal(t, "rhessys: bad worldfile", simErr.Message)
}

func TestMalformedOutputLineRejected(t *testing.T) {
	bin := writeScript(t, "echo 'no-tab-here'")
	gis := &ExecGIS{Bin: bin, OutputDir: "/tmp/maps"}

	_, err := gis.RunOperation(testCtx(), "delineate", nil, nil)
	assert.ErrorContains(t, err, "malformed engine output")
}

func TestParseOutputsSkipsBlankLines(t *testing.T) {
	outs, err := parseOutputs([]byte("\n\na\tb\n\n"))
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, "a", outs[0].Name)
}
