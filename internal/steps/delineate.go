package steps

import (
	"context"
	"strconv"

	"github.com/vk/hydroprep/internal/artifact"
	"github.com/vk/hydroprep/internal/ctxlog"
	"github.com/vk/hydroprep/internal/engine"
	"github.com/vk/hydroprep/internal/ledger"
	"github.com/vk/hydroprep/internal/pipeline"
)

// Delineate runs watershed delineation against the registered DEM. The
// engine produces the flow-direction, stream, subbasin, and patch rasters
// later steps consume.
func Delineate(ctx context.Context, env *Env, threshold int) error {
	ctx = ctxlog.With(ctx, "step", pipeline.StepDelineate)
	logger := ctxlog.FromContext(ctx)

	if err := gate(env, pipeline.StepDelineate); err != nil {
		return err
	}
	d, err := dem(env)
	if err != nil {
		return err
	}

	outs, err := env.GIS.RunOperation(ctx, "watershed.delineate", []string{d.Name}, map[string]string{
		"threshold": strconv.Itoa(threshold),
	})
	if err != nil {
		// Engine failed: no step record is written, the step has not run.
		return err
	}

	produced := make([]artifact.Artifact, 0, len(outs))
	for _, out := range outs {
		produced = append(produced, engine.Raster(out, d.Spatial))
	}

	params := ledger.Params{}
	params.Set("threshold", strconv.Itoa(threshold))
	if _, err := env.Ledger.RecordStep(pipeline.StepDelineate, params, []string{d.Name}, produced); err != nil {
		return err
	}
	logger.Info("watershed delineated", "threshold", threshold, "maps", len(produced))
	return nil
}
