package climate

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/hydroprep/internal/fsutil"
)

// StationDef is a station declaration from a defs file. Isohyet names the
// scaling table artifact when the station has one; empty means no scaling.
type StationDef struct {
	Name    string
	BaseMap string
	Isohyet string
}

var defsSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "stratum", LabelNames: []string{"name"}},
		{Type: "station", LabelNames: []string{"name"}},
	},
}

var stationSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "base_map", Required: true},
		{Name: "isohyet"},
	},
}

// LoadDir parses every *.hcl file under dir and returns the station
// declarations found, in file order. Stratum blocks in the same files are
// left to the strata package.
func LoadDir(dir string) ([]*StationDef, error) {
	files, err := fsutil.FindFilesByExtension(dir, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to scan definitions directory %q: %w", dir, err)
	}

	parser := hclparse.NewParser()
	var defs []*StationDef
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
			if block.Type != "station" {
				continue
			}
			def, err := decodeStation(block)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		}
	}
	return defs, nil
}

func decodeStation(block *hcl.Block) (*StationDef, error) {
	content, diags := block.Body.Content(stationSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("station %q: %w", block.Labels[0], diags)
	}

	def := &StationDef{Name: block.Labels[0]}
	for name, attr := range content.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("station %q, attribute %q: %w", def.Name, name, diags)
		}
		if val.Type() != cty.String {
			return nil, fmt.Errorf("station %q: %s must be a string", def.Name, name)
		}
		switch name {
		case "base_map":
			def.BaseMap = val.AsString()
		case "isohyet":
			def.Isohyet = val.AsString()
		}
	}
	return def, nil
}

// ParseWeightTable reads a station coverage table as written by the engine's
// base-station operation: one "cell weight" pair per line, '#' comments and
// blank lines skipped.
func ParseWeightTable(path string) (map[CellID]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weight table %q: %w", path, err)
	}
	defer f.Close()

	weights := make(map[CellID]float64)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: expected 'cell weight', got %q", path, lineNo, line)
		}
		cell, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad cell id %q: %w", path, lineNo, fields[0], err)
		}
		w, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad weight %q: %w", path, lineNo, fields[1], err)
		}
		weights[CellID(cell)] = w
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read weight table %q: %w", path, err)
	}
	return weights, nil
}

// ParseScalingTable reads an isohyet table in the same "cell raw" format and
// returns a scaling grid over it.
func ParseScalingTable(path string) (*ScalingGrid, error) {
	cells, err := ParseWeightTable(path)
	if err != nil {
		return nil, err
	}
	return NewScaling(cells), nil
}
