package steps

import (
	"fmt"

	"github.com/vk/hydroprep/internal/artifact"
	"github.com/vk/hydroprep/internal/engine"
	"github.com/vk/hydroprep/internal/ledger"
	"github.com/vk/hydroprep/internal/pipeline"
	"github.com/vk/hydroprep/internal/project"
	"github.com/vk/hydroprep/internal/validate"
)

// Env bundles everything a step invocation needs: the open project, the
// locked ledger session's ledger, and the external engines. Steps never
// reach for ambient state; the CLI constructs one Env per invocation.
type Env struct {
	Project *project.Project
	Ledger  *ledger.Ledger
	GIS     engine.GIS
	Sim     engine.Simulator
}

// gate runs the dependency validator for the named step using its declared
// requirements from the pipeline topology.
func gate(env *Env, stepName string) error {
	step, ok := pipeline.Lookup(stepName)
	if !ok {
		return fmt.Errorf("%w: %s", pipeline.ErrUnknownStep, stepName)
	}
	return validate.Step(env.Ledger, stepName, step.Requires)
}

// dem returns the project's registered DEM artifact. Steps that derive maps
// inherit its spatial metadata, since engine operations preserve the grid
// geometry of their inputs.
func dem(env *Env) (*artifact.Artifact, error) {
	dems := env.Ledger.ListArtifacts(artifact.TypeDEM)
	if len(dems) == 0 {
		return nil, &validate.MissingPrerequisiteError{Step: pipeline.StepRegisterDEM, Missing: []artifact.Type{artifact.TypeDEM}}
	}
	return &dems[0], nil
}
