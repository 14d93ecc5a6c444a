package strata

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/hydroprep/internal/fsutil"
)

// defsSchema extracts only stratum blocks; the same defs files also hold
// station blocks consumed by the climate package.
var defsSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "stratum", LabelNames: []string{"name"}},
		{Type: "station", LabelNames: []string{"name"}},
	},
}

// LoadDir parses every *.hcl file under dir and returns the stratum
// definitions found, in file order.
func LoadDir(dir string) ([]*Definition, error) {
	files, err := fsutil.FindFilesByExtension(dir, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to scan definitions directory %q: %w", dir, err)
	}

	parser := hclparse.NewParser()
	var defs []*Definition
	for _, path := range files {
		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %q: %w", path, diags)
		}
		content, _, diags := file.Body.PartialContent(defsSchema)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to read definitions from %q: %w", path, diags)
		}
		for _, block := range content.Blocks {
			if block.Type != "stratum" {
				continue
			}
			def, err := decodeStratum(block)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		}
	}
	return defs, nil
}

func decodeStratum(block *hcl.Block) (*Definition, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("stratum %q: %w", block.Labels[0], diags)
	}

	def := &Definition{
		Name:   block.Labels[0],
		Params: make(map[string]cty.Value, len(attrs)),
	}
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("stratum %q, attribute %q: %w", def.Name, name, diags)
		}
		if name == "base" {
			if val.Type() != cty.String {
				return nil, fmt.Errorf("stratum %q: base must be a string", def.Name)
			}
			def.Base = val.AsString()
			continue
		}
		def.Params[name] = val
	}
	return def, nil
}
