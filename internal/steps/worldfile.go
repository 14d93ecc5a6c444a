package steps

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/hydroprep/internal/artifact"
	"github.com/vk/hydroprep/internal/ctxlog"
	"github.com/vk/hydroprep/internal/fsutil"
	"github.com/vk/hydroprep/internal/ledger"
	"github.com/vk/hydroprep/internal/pipeline"
	"github.com/vk/hydroprep/internal/strata"
)

// worldfileTemplate is the simulator's template grammar: a header naming the
// source maps, one station line per climate station, and a flattened
// parameter block per stratum.
const worldfileTemplate = `# worldfile template
dem {{.DEM}}
{{range .Stations}}base_station {{.Name}} map {{.BaseMap}}
{{end -}}
{{range .Strata}}stratum {{.Name}}
{{range .Fields}}	{{.Key}}	{{.Value}}
{{end}}end_stratum
{{end -}}
`

type worldfileField struct {
	Key   string
	Value string
}

type worldfileStratum struct {
	Name   string
	Fields []worldfileField
}

type worldfileStation struct {
	Name    string
	BaseMap string
}

// Worldfile generates the simulator's worldfile template. Every declared
// stratum is resolved through its base chain to a flat parameter set, and
// every climate station is bound by name, so a broken definition or a
// coverage conflict stops the step here, before a simulation ever runs.
func Worldfile(ctx context.Context, env *Env) error {
	ctx = ctxlog.With(ctx, "step", pipeline.StepWorldfile)
	logger := ctxlog.FromContext(ctx)

	if err := gate(env, pipeline.StepWorldfile); err != nil {
		return err
	}
	d, err := dem(env)
	if err != nil {
		return err
	}

	defs, err := strata.LoadDir(env.Project.DefsPath())
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		return fmt.Errorf("no stratum definitions under %s", env.Project.DefsPath())
	}
	resolver, err := strata.NewResolver(defs)
	if err != nil {
		return err
	}

	reg, err := LoadRegistry(env)
	if err != nil {
		return err
	}
	if err := reg.ValidateAll(); err != nil {
		return err
	}

	var data struct {
		DEM      string
		Stations []worldfileStation
		Strata   []worldfileStratum
	}
	data.DEM = d.Name
	for _, st := range reg.Stations() {
		data.Stations = append(data.Stations, worldfileStation{Name: st.Name, BaseMap: st.BaseMap})
	}

	stratumNames := make([]string, 0, len(defs))
	for _, def := range defs {
		stratumNames = append(stratumNames, def.Name)
	}
	sort.Strings(stratumNames)
	for _, name := range stratumNames {
		resolved, err := resolver.Resolve(name)
		if err != nil {
			return err
		}
		data.Strata = append(data.Strata, worldfileStratum{Name: name, Fields: flattenFields(resolved)})
	}

	tmpl := template.Must(template.New("worldfile").Parse(worldfileTemplate))
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render worldfile template: %w", err)
	}

	outPath := filepath.Join(env.Project.MapsPath(), "worldfile.template")
	if err := fsutil.WriteFileAtomic(outPath, []byte(buf.String()), 0o644); err != nil {
		return err
	}

	params := ledger.Params{}
	params.SetList("strata", stratumNames...)
	produced := []artifact.Artifact{{
		Name: "worldfile_template",
		Type: artifact.TypeWorldfileTemplate,
		Path: outPath,
	}}
	if _, err := env.Ledger.RecordStep(pipeline.StepWorldfile, params, []string{d.Name}, produced); err != nil {
		return err
	}
	logger.Info("worldfile template generated", "strata", len(stratumNames), "stations", len(data.Stations))
	return nil
}

// flattenFields renders resolved cty values as stable key/value lines.
func flattenFields(resolved map[string]cty.Value) []worldfileField {
	keys := make([]string, 0, len(resolved))
	for k := range resolved {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]worldfileField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, worldfileField{Key: k, Value: renderValue(resolved[k])})
	}
	return fields
}

func renderValue(v cty.Value) string {
	switch v.Type() {
	case cty.String:
		return v.AsString()
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", f), "0"), ".")
	case cty.Bool:
		if v.True() {
			return "1"
		}
		return "0"
	default:
		return v.GoString()
	}
}
