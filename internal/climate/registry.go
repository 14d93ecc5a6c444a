package climate

import (
	"fmt"
	"sort"
	"strings"
)

// Station is a climate station bound to a base-station map artifact. Weights
// give the station's influence per model cell, loaded from the engine's
// coverage output; Scaling is the station's isohyet grid.
type Station struct {
	Name    string
	BaseMap string
	Scaling *ScalingGrid
	Weights map[CellID]float64
}

// ConflictingStationsError reports every pair of stations whose coverage
// leaves some model cell without a uniquely dominant station. All offending
// pairs are collected before returning so the user can fix them in one pass.
type ConflictingStationsError struct {
	Pairs [][2]string
}

func (e *ConflictingStationsError) Error() string {
	parts := make([]string, len(e.Pairs))
	for i, p := range e.Pairs {
		parts[i] = fmt.Sprintf("%s/%s", p[0], p[1])
	}
	return fmt.Sprintf("climate stations conflict over coverage: %s", strings.Join(parts, ", "))
}

// Registry tracks the project's climate stations.
type Registry struct {
	stations map[string]*Station
	order    []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{stations: make(map[string]*Station)}
}

// AddStation registers a station. A nil scaling grid binds the uniform
// no-scaling grid — never a zero grid, which would silently zero out
// precipitation for every cell the station governs.
func (r *Registry) AddStation(name, baseMap string, scaling *ScalingGrid) (*Station, error) {
	if name == "" {
		return nil, fmt.Errorf("station name must not be empty")
	}
	if _, exists := r.stations[name]; exists {
		return nil, fmt.Errorf("station %q is already registered", name)
	}
	if scaling == nil {
		scaling = NewUniformScaling()
	}
	st := &Station{
		Name:    name,
		BaseMap: baseMap,
		Scaling: scaling,
		Weights: make(map[CellID]float64),
	}
	r.stations[name] = st
	r.order = append(r.order, name)
	return st, nil
}

// Station looks up a registered station by name.
func (r *Registry) Station(name string) (*Station, bool) {
	st, ok := r.stations[name]
	return st, ok
}

// Stations returns all stations in registration order.
func (r *Registry) Stations() []*Station {
	out := make([]*Station, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.stations[name])
	}
	return out
}

// ValidateAll checks that every covered model cell has a uniquely dominant
// station. Cells where two or more stations tie at the maximum weight yield
// a conflict pair; pairs are deduplicated and reported together.
func (r *Registry) ValidateAll() error {
	type contender struct {
		weight   float64
		stations []string
	}
	cells := make(map[CellID]*contender)
	for _, name := range r.order {
		st := r.stations[name]
		for cell, w := range st.Weights {
			c, ok := cells[cell]
			if !ok {
				cells[cell] = &contender{weight: w, stations: []string{name}}
				continue
			}
			switch {
			case w > c.weight:
				c.weight = w
				c.stations = []string{name}
			case w == c.weight:
				c.stations = append(c.stations, name)
			}
		}
	}

	seen := make(map[[2]string]bool)
	var pairs [][2]string
	for _, c := range cells {
		if len(c.stations) < 2 {
			continue
		}
		names := append([]string(nil), c.stations...)
		sort.Strings(names)
		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				pair := [2]string{names[i], names[j]}
				if !seen[pair] {
					seen[pair] = true
					pairs = append(pairs, pair)
				}
			}
		}
	}
	if len(pairs) > 0 {
		sort.Slice(pairs, func(i, j int) bool {
			if pairs[i][0] != pairs[j][0] {
				return pairs[i][0] < pairs[j][0]
			}
			return pairs[i][1] < pairs[j][1]
		})
		return &ConflictingStationsError{Pairs: pairs}
	}
	return nil
}
