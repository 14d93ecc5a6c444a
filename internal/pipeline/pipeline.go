// Package pipeline describes the fixed step topology of the preparation
// workflow. The system never enforces execution order; validation happens
// lazily when a step runs. This package only answers "what does each step
// require" and "what looks ready", for the validator and the status report.
package pipeline

import (
	"errors"
	"time"

	"github.com/vk/hydroprep/internal/artifact"
	"github.com/vk/hydroprep/internal/ledger"
)

// Step names double as ledger keys and CLI subcommand names.
const (
	StepRegisterDEM = "register-dem"
	StepDelineate   = "delineate"
	StepLandcover   = "landcover"
	StepPatchStats  = "patch-stats"
	StepClimate     = "climate"
	StepWorldfile   = "worldfile"
	StepRun         = "run"
)

// Step is one node of the fixed topology.
type Step struct {
	Name string

	// Requires lists the artifact types the validator checks before the
	// step may call the engine.
	Requires []artifact.Type

	// After names the steps whose records must exist for this step to be
	// considered ready in the status report.
	After []string
}

// Steps is the pipeline in canonical invocation order.
var Steps = []Step{
	{
		Name: StepRegisterDEM,
	},
	{
		Name:     StepDelineate,
		Requires: []artifact.Type{artifact.TypeDEM},
		After:    []string{StepRegisterDEM},
	},
	{
		Name:     StepLandcover,
		Requires: []artifact.Type{artifact.TypeDEM, artifact.TypeRasterMap},
		After:    []string{StepDelineate},
	},
	{
		Name:     StepPatchStats,
		Requires: []artifact.Type{artifact.TypeRasterMap},
		After:    []string{StepDelineate, StepLandcover},
	},
	{
		Name:     StepClimate,
		Requires: []artifact.Type{artifact.TypeDEM},
		After:    []string{StepRegisterDEM},
	},
	{
		Name:     StepWorldfile,
		Requires: []artifact.Type{artifact.TypeDEM, artifact.TypeRasterMap, artifact.TypeTable},
		After:    []string{StepDelineate, StepLandcover, StepClimate},
	},
	{
		Name:     StepRun,
		Requires: []artifact.Type{artifact.TypeWorldfileTemplate},
		After:    []string{StepWorldfile},
	},
}

// Lookup returns the topology entry for a step name.
func Lookup(name string) (Step, bool) {
	for _, s := range Steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

// Status is one row of the pipeline status report.
type Status struct {
	Name  string
	Ran   bool
	RanAt time.Time

	// Ready means every step in After has a ledger record. Readiness is
	// advisory; the validator has the final say at run time.
	Ready bool
}

// Report computes the status of every step against the ledger.
func Report(led *ledger.Ledger) []Status {
	ran := make(map[string]time.Time)
	for _, name := range led.Steps() {
		if rec, err := led.GetStep(name); err == nil {
			ran[name] = rec.Timestamp
		}
	}

	out := make([]Status, 0, len(Steps))
	for _, s := range Steps {
		st := Status{Name: s.Name, Ready: true}
		if at, ok := ran[s.Name]; ok {
			st.Ran = true
			st.RanAt = at
		}
		for _, dep := range s.After {
			if _, ok := ran[dep]; !ok {
				st.Ready = false
				break
			}
		}
		out = append(out, st)
	}
	return out
}

// ErrUnknownStep is returned by callers resolving user-supplied step names.
var ErrUnknownStep = errors.New("unknown pipeline step")
