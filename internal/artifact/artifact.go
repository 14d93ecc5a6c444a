package artifact

import "time"

// Type tags the kind of output a pipeline step produced. The tag is what the
// dependency validator matches on, so steps declare their prerequisites in
// terms of these values rather than concrete file names.
type Type string

const (
	// TypeDEM is the registered digital elevation model raster every other
	// map derives from.
	TypeDEM Type = "dem"

	// TypeRasterMap is a DEM-derived raster map (flow direction, streams,
	// subbasins, landcover, LAI, base station, isohyet).
	TypeRasterMap Type = "raster-map"

	// TypeVectorMap is a vector map (stream network, gauge locations).
	TypeVectorMap Type = "vector-map"

	// TypeTable is a plain tabular output (zonal statistics, station
	// coverage weights).
	TypeTable Type = "table"

	// TypeWorldfileTemplate is the generated simulator worldfile template.
	TypeWorldfileTemplate Type = "worldfile-template"

	// TypeModelRun is a captured simulator run output set.
	TypeModelRun Type = "model-run"
)

// Artifact is a named, typed output registered by a pipeline step. Artifacts
// are owned by the project ledger; step records reference them by name only.
type Artifact struct {
	Name      string       `json:"name"`
	Type      Type         `json:"type"`
	Step      string       `json:"step"`
	Path      string       `json:"path"`
	CreatedAt time.Time    `json:"created_at"`
	Spatial   *SpatialMeta `json:"spatial,omitempty"`
}
