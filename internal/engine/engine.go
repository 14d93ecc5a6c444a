package engine

import (
	"context"
	"fmt"

	"github.com/vk/hydroprep/internal/artifact"
)

// OutputMap is one file produced by an engine operation.
type OutputMap struct {
	Name string
	Path string
}

// GIS is the contract with the external terrain-analysis engine. The core
// depends only on this interface; the engine's internal algorithms are its
// own business and its errors are surfaced verbatim.
type GIS interface {
	RunOperation(ctx context.Context, op string, inputs []string, params map[string]string) ([]OutputMap, error)
}

// Simulator is the contract with the external hydrological simulator.
type Simulator interface {
	RunModel(ctx context.Context, worldfile string, params map[string]string) ([]OutputMap, error)
}

// EngineError is an opaque failure from the GIS engine. The core never
// reinterprets it; Message carries whatever the engine reported.
type EngineError struct {
	Op      string
	Code    int
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine operation %q failed (exit %d): %s", e.Op, e.Code, e.Message)
}

// SimulatorError is an opaque failure from the simulator.
type SimulatorError struct {
	Code    int
	Message string
}

func (e *SimulatorError) Error() string {
	return fmt.Sprintf("simulator failed (exit %d): %s", e.Code, e.Message)
}

// Raster is a convenience for wrapping an engine output as a raster map
// artifact inheriting the given spatial metadata. Engine operations preserve
// the grid geometry of their inputs, so outputs carry the source map's
// georeferencing.
func Raster(out OutputMap, meta *artifact.SpatialMeta) artifact.Artifact {
	var spatial *artifact.SpatialMeta
	if meta != nil {
		copied := *meta
		spatial = &copied
	}
	return artifact.Artifact{
		Name:    out.Name,
		Type:    artifact.TypeRasterMap,
		Path:    out.Path,
		Spatial: spatial,
	}
}
