package artifact

import "math"

// Extent is a map's bounding box in projected coordinates.
type Extent struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// CellSize is a raster's resolution along each axis, in map units.
type CellSize struct {
	EW float64 `json:"ew"`
	NS float64 `json:"ns"`
}

// SpatialMeta describes the georeferencing of a map artifact. Two maps that
// feed the same engine operation must agree on all three fields, otherwise
// the operation silently produces degenerate output.
type SpatialMeta struct {
	Projection string   `json:"projection"`
	Extent     Extent   `json:"extent"`
	CellSize   CellSize `json:"cell_size"`
}

// Field names reported by Compatible when a pair of maps mismatches.
const (
	FieldProjection = "projection"
	FieldResolution = "resolution"
	FieldExtent     = "extent"
)

// Compatible reports whether two maps can feed the same engine operation.
// On mismatch it returns the name of the offending field. Resolution must
// match exactly; extents may differ by up to half a cell to absorb engine
// rounding of region bounds.
func (m *SpatialMeta) Compatible(other *SpatialMeta) (field string, ok bool) {
	if m.Projection != other.Projection {
		return FieldProjection, false
	}
	if m.CellSize != other.CellSize {
		return FieldResolution, false
	}
	tolEW := m.CellSize.EW / 2
	tolNS := m.CellSize.NS / 2
	if math.Abs(m.Extent.North-other.Extent.North) > tolNS ||
		math.Abs(m.Extent.South-other.Extent.South) > tolNS ||
		math.Abs(m.Extent.East-other.Extent.East) > tolEW ||
		math.Abs(m.Extent.West-other.Extent.West) > tolEW {
		return FieldExtent, false
	}
	return "", true
}
