package steps

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vk/hydroprep/internal/artifact"
	"github.com/vk/hydroprep/internal/ctxlog"
	"github.com/vk/hydroprep/internal/ledger"
	"github.com/vk/hydroprep/internal/pipeline"
)

// Run invokes the external simulator against the generated worldfile
// template and captures the run outputs back into the ledger as model-run
// artifacts, tagged with a unique run id so repeated runs stay auditable in
// the step parameters even though the step record itself is overwritten.
func Run(ctx context.Context, env *Env, simParams map[string]string) error {
	ctx = ctxlog.With(ctx, "step", pipeline.StepRun)
	logger := ctxlog.FromContext(ctx)

	if err := gate(env, pipeline.StepRun); err != nil {
		return err
	}
	templates := env.Ledger.ListArtifacts(artifact.TypeWorldfileTemplate)
	world := templates[0]

	runID := uuid.NewString()
	outs, err := env.Sim.RunModel(ctx, world.Path, simParams)
	if err != nil {
		return err
	}
	if len(outs) == 0 {
		return fmt.Errorf("simulator reported success but produced no outputs")
	}

	produced := make([]artifact.Artifact, 0, len(outs))
	for _, out := range outs {
		produced = append(produced, artifact.Artifact{
			Name: out.Name,
			Type: artifact.TypeModelRun,
			Path: out.Path,
		})
	}

	params := ledger.Params{}
	params.Set("run_id", runID)
	params.Set("worldfile", world.Name)
	for k, v := range simParams {
		params.Set("sim."+k, v)
	}
	if _, err := env.Ledger.RecordStep(pipeline.StepRun, params, []string{world.Name}, produced); err != nil {
		return err
	}
	logger.Info("model run captured", "run_id", runID, "outputs", len(produced))
	return nil
}
