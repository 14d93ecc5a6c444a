package steps

import (
	"context"
	"fmt"

	"github.com/vk/hydroprep/internal/artifact"
	"github.com/vk/hydroprep/internal/ctxlog"
	"github.com/vk/hydroprep/internal/ledger"
	"github.com/vk/hydroprep/internal/pipeline"
)

// Statistics the engine's zonal-statistics operation accepts.
var patchStatistics = map[string]bool{
	"average": true,
	"mode":    true,
	"median":  true,
	"min":     true,
	"max":     true,
	"sum":     true,
}

// PatchStats computes a zonal statistic of a derived raster over the patch
// map, producing a table keyed by zone.
func PatchStats(ctx context.Context, env *Env, zones, variable, statistic string) error {
	ctx = ctxlog.With(ctx, "step", pipeline.StepPatchStats)
	logger := ctxlog.FromContext(ctx)

	if !patchStatistics[statistic] {
		return fmt.Errorf("unsupported statistic %q", statistic)
	}
	if err := gate(env, pipeline.StepPatchStats); err != nil {
		return err
	}
	zoneMap, ok := env.Ledger.Artifact(zones)
	if !ok {
		return fmt.Errorf("zones map %q is not a registered artifact", zones)
	}
	varMap, ok := env.Ledger.Artifact(variable)
	if !ok {
		return fmt.Errorf("variable map %q is not a registered artifact", variable)
	}

	outs, err := env.GIS.RunOperation(ctx, "patch.zonalstats", []string{zoneMap.Name, varMap.Name}, map[string]string{
		"statistic": statistic,
	})
	if err != nil {
		return err
	}

	produced := make([]artifact.Artifact, 0, len(outs))
	for _, out := range outs {
		produced = append(produced, artifact.Artifact{
			Name: out.Name,
			Type: artifact.TypeTable,
			Path: out.Path,
		})
	}

	params := ledger.Params{}
	params.Set("zones", zones)
	params.Set("variable", variable)
	params.Set("statistic", statistic)
	consumed := []string{zoneMap.Name, varMap.Name}
	if _, err := env.Ledger.RecordStep(pipeline.StepPatchStats, params, consumed, produced); err != nil {
		return err
	}
	logger.Info("patch zonal statistics computed", "statistic", statistic, "zones", zones)
	return nil
}
