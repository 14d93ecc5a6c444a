package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/hydroprep/internal/artifact"
	"github.com/vk/hydroprep/internal/ctxlog"
	"github.com/vk/hydroprep/internal/ledger"
	"github.com/vk/hydroprep/internal/pipeline"
)

// RegisterDEM seeds the project with its digital elevation model. Every
// later map derives from this artifact and is checked against its spatial
// metadata, so the DEM's georeferencing is declared here, once.
func RegisterDEM(ctx context.Context, env *Env, demPath string, meta artifact.SpatialMeta) error {
	ctx = ctxlog.With(ctx, "step", pipeline.StepRegisterDEM)
	logger := ctxlog.FromContext(ctx)

	if _, err := os.Stat(demPath); err != nil {
		return fmt.Errorf("DEM raster %q is not readable: %w", demPath, err)
	}
	if meta.Projection == "" {
		return fmt.Errorf("DEM registration requires a projection")
	}
	if meta.CellSize.EW <= 0 || meta.CellSize.NS <= 0 {
		return fmt.Errorf("DEM registration requires a positive cell size")
	}

	name := strings.TrimSuffix(filepath.Base(demPath), filepath.Ext(demPath))
	params := ledger.Params{}
	params.Set("dem", demPath)
	params.Set("projection", meta.Projection)

	a := artifact.Artifact{
		Name:    name,
		Type:    artifact.TypeDEM,
		Path:    demPath,
		Spatial: &meta,
	}
	if _, err := env.Ledger.RecordStep(pipeline.StepRegisterDEM, params, nil, []artifact.Artifact{a}); err != nil {
		return err
	}
	logger.Info("registered DEM", "name", name, "projection", meta.Projection)
	return nil
}
