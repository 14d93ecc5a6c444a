package steps

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/hydroprep/internal/artifact"
	"github.com/vk/hydroprep/internal/ctxlog"
	"github.com/vk/hydroprep/internal/engine"
	"github.com/vk/hydroprep/internal/ledger"
	"github.com/vk/hydroprep/internal/pipeline"
)

// Landcover derives the landcover and LAI rasters from a source landcover
// raster, reclassified onto the project grid.
func Landcover(ctx context.Context, env *Env, landcoverPath string) error {
	ctx = ctxlog.With(ctx, "step", pipeline.StepLandcover)
	logger := ctxlog.FromContext(ctx)

	if err := gate(env, pipeline.StepLandcover); err != nil {
		return err
	}
	if _, err := os.Stat(landcoverPath); err != nil {
		return fmt.Errorf("landcover raster %q is not readable: %w", landcoverPath, err)
	}
	d, err := dem(env)
	if err != nil {
		return err
	}

	outs, err := env.GIS.RunOperation(ctx, "landcover.derive", []string{d.Name}, map[string]string{
		"landcover": landcoverPath,
	})
	if err != nil {
		return err
	}

	produced := make([]artifact.Artifact, 0, len(outs))
	for _, out := range outs {
		produced = append(produced, engine.Raster(out, d.Spatial))
	}

	params := ledger.Params{}
	params.Set("landcover", landcoverPath)
	if _, err := env.Ledger.RecordStep(pipeline.StepLandcover, params, []string{d.Name}, produced); err != nil {
		return err
	}
	logger.Info("landcover and LAI maps derived", "maps", len(produced))
	return nil
}
