package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/hydroprep/internal/artifact"
	"github.com/vk/hydroprep/internal/climate"
	"github.com/vk/hydroprep/internal/ctxlog"
	"github.com/vk/hydroprep/internal/engine"
	"github.com/vk/hydroprep/internal/ledger"
	"github.com/vk/hydroprep/internal/pipeline"
)

// Climate maps the project's climate stations onto the model grid. Station
// declarations come from the defs directory; the engine builds the
// base-station raster and per-station coverage weight tables, and the
// registry validates that every covered cell has a uniquely dominant
// station before anything is recorded.
func Climate(ctx context.Context, env *Env) error {
	ctx = ctxlog.With(ctx, "step", pipeline.StepClimate)
	logger := ctxlog.FromContext(ctx)

	if err := gate(env, pipeline.StepClimate); err != nil {
		return err
	}
	d, err := dem(env)
	if err != nil {
		return err
	}

	defs, err := climate.LoadDir(env.Project.DefsPath())
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		return fmt.Errorf("no climate stations declared under %s", env.Project.DefsPath())
	}

	reg := climate.NewRegistry()
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		scaling, err := stationScaling(env, def)
		if err != nil {
			return err
		}
		if _, err := reg.AddStation(def.Name, def.BaseMap, scaling); err != nil {
			return err
		}
		names = append(names, def.Name)
	}

	outs, err := env.GIS.RunOperation(ctx, "climate.basestations", []string{d.Name}, map[string]string{
		"stations": strings.Join(names, ","),
	})
	if err != nil {
		return err
	}

	var produced []artifact.Artifact
	for _, out := range outs {
		if station, ok := strings.CutSuffix(out.Name, "_weights"); ok {
			st, found := reg.Station(station)
			if !found {
				return fmt.Errorf("engine produced weights for undeclared station %q", station)
			}
			weights, err := climate.ParseWeightTable(out.Path)
			if err != nil {
				return err
			}
			st.Weights = weights
			produced = append(produced, artifact.Artifact{
				Name: out.Name,
				Type: artifact.TypeTable,
				Path: out.Path,
			})
			continue
		}
		produced = append(produced, engine.Raster(out, d.Spatial))
	}

	for _, st := range reg.Stations() {
		if len(st.Weights) == 0 {
			return fmt.Errorf("engine produced no coverage weights for station %q", st.Name)
		}
	}
	if err := reg.ValidateAll(); err != nil {
		return err
	}

	params := ledger.Params{}
	params.SetList("stations", names...)
	if _, err := env.Ledger.RecordStep(pipeline.StepClimate, params, []string{d.Name}, produced); err != nil {
		return err
	}
	logger.Info("climate stations mapped", "stations", len(names))
	return nil
}

// stationScaling binds a station's isohyet grid. An unset isohyet means no
// scaling: the uniform factor-1.0 grid, never a zero grid.
func stationScaling(env *Env, def *climate.StationDef) (*climate.ScalingGrid, error) {
	if def.Isohyet == "" {
		return nil, nil // AddStation binds the uniform grid
	}
	a, ok := env.Ledger.Artifact(def.Isohyet)
	if !ok {
		return nil, fmt.Errorf("station %q references isohyet %q which is not a registered artifact", def.Name, def.Isohyet)
	}
	scaling, err := climate.ParseScalingTable(a.Path)
	if err != nil {
		return nil, fmt.Errorf("station %q: %w", def.Name, err)
	}
	return scaling, nil
}

// LoadRegistry rebuilds the station registry for a later step (worldfile
// generation) from the defs directory and the weight tables the climate
// step recorded.
func LoadRegistry(env *Env) (*climate.Registry, error) {
	defs, err := climate.LoadDir(env.Project.DefsPath())
	if err != nil {
		return nil, err
	}
	reg := climate.NewRegistry()
	for _, def := range defs {
		scaling, err := stationScaling(env, def)
		if err != nil {
			return nil, err
		}
		st, err := reg.AddStation(def.Name, def.BaseMap, scaling)
		if err != nil {
			return nil, err
		}
		if a, ok := env.Ledger.Artifact(def.Name + "_weights"); ok {
			weights, err := climate.ParseWeightTable(a.Path)
			if err != nil {
				return nil, err
			}
			st.Weights = weights
		}
	}
	return reg, nil
}
