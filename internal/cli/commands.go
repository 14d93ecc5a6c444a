package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vk/hydroprep/internal/artifact"
	"github.com/vk/hydroprep/internal/pipeline"
	"github.com/vk/hydroprep/internal/steps"
)

func newRegisterDEMCmd(o *options) *cobra.Command {
	var (
		dem        string
		projection string
		res        float64
		north      float64
		south      float64
		east       float64
		west       float64
	)
	cmd := &cobra.Command{
		Use:   pipeline.StepRegisterDEM,
		Short: "Register the project DEM and its spatial metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			meta := artifact.SpatialMeta{
				Projection: projection,
				Extent:     artifact.Extent{North: north, South: south, East: east, West: west},
				CellSize:   artifact.CellSize{EW: res, NS: res},
			}
			return o.withEnv(func(ctx context.Context, env *steps.Env) error {
				return steps.RegisterDEM(ctx, env, dem, meta)
			})
		},
	}
	cmd.Flags().StringVar(&dem, "dem", "", "Path to the DEM raster.")
	cmd.Flags().StringVar(&projection, "projection", "", "Projection of the DEM (e.g. EPSG:32618).")
	cmd.Flags().Float64Var(&res, "resolution", 0, "Cell size of the DEM in map units.")
	cmd.Flags().Float64Var(&north, "north", 0, "Northern extent.")
	cmd.Flags().Float64Var(&south, "south", 0, "Southern extent.")
	cmd.Flags().Float64Var(&east, "east", 0, "Eastern extent.")
	cmd.Flags().Float64Var(&west, "west", 0, "Western extent.")
	cmd.MarkFlagRequired("dem")
	cmd.MarkFlagRequired("projection")
	cmd.MarkFlagRequired("resolution")
	return cmd
}

func newDelineateCmd(o *options) *cobra.Command {
	var threshold int
	cmd := &cobra.Command{
		Use:   pipeline.StepDelineate,
		Short: "Delineate the watershed from the registered DEM",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withEnv(func(ctx context.Context, env *steps.Env) error {
				return steps.Delineate(ctx, env, threshold)
			})
		},
	}
	cmd.Flags().IntVar(&threshold, "threshold", 500, "Minimum upslope cell count for stream formation.")
	return cmd
}

func newLandcoverCmd(o *options) *cobra.Command {
	var landcover string
	cmd := &cobra.Command{
		Use:   pipeline.StepLandcover,
		Short: "Derive landcover and LAI maps on the project grid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withEnv(func(ctx context.Context, env *steps.Env) error {
				return steps.Landcover(ctx, env, landcover)
			})
		},
	}
	cmd.Flags().StringVar(&landcover, "landcover", "", "Path to the source landcover raster.")
	cmd.MarkFlagRequired("landcover")
	return cmd
}

func newPatchStatsCmd(o *options) *cobra.Command {
	var (
		zones     string
		variable  string
		statistic string
	)
	cmd := &cobra.Command{
		Use:   pipeline.StepPatchStats,
		Short: "Compute a zonal statistic of a derived map over the patch map",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withEnv(func(ctx context.Context, env *steps.Env) error {
				return steps.PatchStats(ctx, env, zones, variable, statistic)
			})
		},
	}
	cmd.Flags().StringVar(&zones, "zones", "patch", "Name of the raster to use as zones.")
	cmd.Flags().StringVar(&variable, "variable", "", "Name of the registered map to summarize.")
	cmd.Flags().StringVar(&statistic, "statistic", "average", "Statistic: average, mode, median, min, max, or sum.")
	cmd.MarkFlagRequired("variable")
	return cmd
}

func newClimateCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   pipeline.StepClimate,
		Short: "Map the declared climate stations onto the model grid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withEnv(steps.Climate)
		},
	}
}

func newWorldfileCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   pipeline.StepWorldfile,
		Short: "Generate the simulator worldfile template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withEnv(steps.Worldfile)
		},
	}
}

func newRunCmd(o *options) *cobra.Command {
	var simParams []string
	cmd := &cobra.Command{
		Use:   pipeline.StepRun,
		Short: "Run the simulator and capture its outputs into the ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := make(map[string]string, len(simParams))
			for _, kv := range simParams {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid --sim-param %q (want key=value)", kv)
				}
				params[k] = v
			}
			return o.withEnv(func(ctx context.Context, env *steps.Env) error {
				return steps.Run(ctx, env, params)
			})
		},
	}
	cmd.Flags().StringArrayVar(&simParams, "sim-param", nil, "Simulator parameter as key=value; repeatable.")
	return cmd
}

func newStatusCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report which pipeline steps have run and which look ready",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withEnv(func(_ context.Context, env *steps.Env) error {
				for _, st := range pipeline.Report(env.Ledger) {
					state := "blocked"
					switch {
					case st.Ran:
						state = "ran " + st.RanAt.Format("2006-01-02 15:04:05")
					case st.Ready:
						state = "ready"
					}
					fmt.Fprintf(o.outW, "%-14s %s\n", st.Name, state)
				}
				return nil
			})
		},
	}
}
