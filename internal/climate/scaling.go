package climate

// CellID identifies a model cell in the base-station map's cell numbering.
type CellID int

// Raw cell value meaning "no scaling": isohyet maps store precipitation
// scaling as percentages, so 100 is a factor of exactly 1.0. An earlier
// generation of this tooling defaulted missing isohyet maps to a zero-valued
// map, which silently eliminated precipitation from every run; the uniform
// 100 map is the only correct default.
const noScalingRaw = 100.0

// ScalingGrid is a sparse precipitation-scaling map. Cells without an
// explicit value read the fill value.
type ScalingGrid struct {
	fill  float64
	cells map[CellID]float64
}

// NewUniformScaling returns the "no scaling" grid: every cell reads raw 100,
// factor 1.0.
func NewUniformScaling() *ScalingGrid {
	return &ScalingGrid{fill: noScalingRaw}
}

// NewScaling builds a grid from explicit raw percentage values. Cells not
// listed fall back to no scaling rather than zero, so a partial isohyet map
// never nullifies precipitation outside its footprint.
func NewScaling(cells map[CellID]float64) *ScalingGrid {
	copied := make(map[CellID]float64, len(cells))
	for c, v := range cells {
		copied[c] = v
	}
	return &ScalingGrid{fill: noScalingRaw, cells: copied}
}

// Raw returns the stored percentage value at the cell.
func (g *ScalingGrid) Raw(c CellID) float64 {
	if v, ok := g.cells[c]; ok {
		return v
	}
	return g.fill
}

// Factor returns the multiplicative precipitation factor at the cell.
func (g *ScalingGrid) Factor(c CellID) float64 {
	return g.Raw(c) / 100.0
}

// Uniform reports whether the grid applies no scaling anywhere.
func (g *ScalingGrid) Uniform() bool {
	if g.fill != noScalingRaw {
		return false
	}
	for _, v := range g.cells {
		if v != noScalingRaw {
			return false
		}
	}
	return true
}
