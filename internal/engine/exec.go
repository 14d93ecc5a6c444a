package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/vk/hydroprep/internal/ctxlog"
)

// ExecGIS drives a GIS engine binary as a subprocess. The invocation
// contract is one operation per call:
//
//	<bin> <op> --output-dir <dir> [--in <map>]... [--param k=v]...
//
// The engine lists each produced file on stdout as "name<TAB>path". Stderr
// is captured and returned inside EngineError on non-zero exit. No timeout
// is applied here; long-running terrain analysis is expected, and limits are
// the engine's own concern.
type ExecGIS struct {
	Bin       string
	OutputDir string
	Env       []string
}

// RunOperation implements GIS.
func (g *ExecGIS) RunOperation(ctx context.Context, op string, inputs []string, params map[string]string) ([]OutputMap, error) {
	args := []string{op, "--output-dir", g.OutputDir}
	for _, in := range inputs {
		args = append(args, "--in", in)
	}
	for _, k := range sortedKeys(params) {
		args = append(args, "--param", k+"="+params[k])
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("invoking GIS engine", "bin", g.Bin, "op", op, "inputs", inputs)

	stdout, err := runCommand(ctx, g.Bin, args, g.Env)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &EngineError{
				Op:      op,
				Code:    exitErr.ExitCode(),
				Message: strings.TrimSpace(string(exitErr.Stderr)),
			}
		}
		return nil, fmt.Errorf("failed to invoke GIS engine %q: %w", g.Bin, err)
	}
	return parseOutputs(stdout)
}

// ExecSimulator drives the simulator binary as a subprocess:
//
//	<bin> --world <worldfile> --output-dir <dir> [--param k=v]...
//
// with the same stdout listing and verbatim error contract as ExecGIS.
type ExecSimulator struct {
	Bin       string
	OutputDir string
	Env       []string
}

// RunModel implements Simulator.
func (s *ExecSimulator) RunModel(ctx context.Context, worldfile string, params map[string]string) ([]OutputMap, error) {
	args := []string{"--world", worldfile, "--output-dir", s.OutputDir}
	for _, k := range sortedKeys(params) {
		args = append(args, "--param", k+"="+params[k])
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("invoking simulator", "bin", s.Bin, "worldfile", worldfile)

	stdout, err := runCommand(ctx, s.Bin, args, s.Env)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &SimulatorError{
				Code:    exitErr.ExitCode(),
				Message: strings.TrimSpace(string(exitErr.Stderr)),
			}
		}
		return nil, fmt.Errorf("failed to invoke simulator %q: %w", s.Bin, err)
	}
	return parseOutputs(stdout)
}

func runCommand(ctx context.Context, bin string, args, env []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) == 0 {
			exitErr.Stderr = stderr.Bytes()
		}
		return nil, err
	}
	return out, nil
}

func parseOutputs(stdout []byte) ([]OutputMap, error) {
	var outs []OutputMap
	for _, line := range strings.Split(string(stdout), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, path, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("malformed engine output line %q (want name<TAB>path)", line)
		}
		outs = append(outs, OutputMap{Name: strings.TrimSpace(name), Path: strings.TrimSpace(path)})
	}
	return outs, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
