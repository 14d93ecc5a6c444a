package strata

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Definition is a named vegetation/landcover stratum parameter set. Base, if
// set, names another definition whose fields this one inherits and may
// selectively override. A definition with no base is the flat (legacy)
// format and resolves as-is, zero hops.
type Definition struct {
	Name   string
	Base   string
	Params map[string]cty.Value
}

// Baselines holds the documented default for every stratum field that a
// definition chain may leave unset. Fields outside this table have no
// implicit value: they exist in the resolved output only if some definition
// in the chain sets them.
var Baselines = map[string]cty.Value{
	"epc.veg_type":      cty.StringVal("tree"),
	"epc.leaf_turnover": cty.NumberFloatVal(0.27),
	"lai":               cty.NumberFloatVal(3.0),
	"overstory_height":  cty.NumberFloatVal(10.0),
	"root_depth":        cty.NumberFloatVal(1.0),
	"albedo":            cty.NumberFloatVal(0.18),
	"gap_fraction":      cty.NumberFloatVal(0.0),
}

// CyclicDefinitionError reports a base-reference cycle. Chain names every
// definition participating in the cycle exactly once, in walk order.
type CyclicDefinitionError struct {
	Chain []string
}

func (e *CyclicDefinitionError) Error() string {
	return fmt.Sprintf("cyclic stratum definition: %s -> %s",
		strings.Join(e.Chain, " -> "), e.Chain[0])
}

// Resolver flattens hierarchical definitions into concrete parameter sets.
type Resolver struct {
	defs map[string]*Definition
}

// NewResolver indexes the given definitions by name. A duplicate name is an
// error; definitions come from user-edited files and silently shadowing one
// would hide the mistake.
func NewResolver(defs []*Definition) (*Resolver, error) {
	byName := make(map[string]*Definition, len(defs))
	for _, d := range defs {
		if _, exists := byName[d.Name]; exists {
			return nil, fmt.Errorf("stratum %q is defined more than once", d.Name)
		}
		byName[d.Name] = d
	}
	return &Resolver{defs: byName}, nil
}

// Names returns all known definition names.
func (r *Resolver) Names() []string {
	out := make([]string, 0, len(r.defs))
	for name := range r.defs {
		out = append(out, name)
	}
	return out
}

// Resolve walks the base chain from name to its ultimate ancestor and merges
// fields bottom-up: a descendant's explicitly set field always overrides an
// ancestor's, and fields set nowhere in the chain take their value from
// Baselines. The walk is iterative and revisiting a definition fails with
// CyclicDefinitionError carrying the full chain.
func (r *Resolver) Resolve(name string) (map[string]cty.Value, error) {
	var chain []*Definition
	seen := make(map[string]int)

	current := name
	for current != "" {
		if at, revisited := seen[current]; revisited {
			names := make([]string, 0, len(chain)-at)
			for _, d := range chain[at:] {
				names = append(names, d.Name)
			}
			return nil, &CyclicDefinitionError{Chain: names}
		}
		def, ok := r.defs[current]
		if !ok {
			if current == name {
				return nil, fmt.Errorf("unknown stratum definition %q", name)
			}
			return nil, fmt.Errorf("stratum %q references unknown base %q", chain[len(chain)-1].Name, current)
		}
		seen[current] = len(chain)
		chain = append(chain, def)
		current = def.Base
	}

	resolved := make(map[string]cty.Value)
	for field, baseline := range Baselines {
		resolved[field] = baseline
	}
	// Ancestor first, so each descendant's fields land on top.
	for i := len(chain) - 1; i >= 0; i-- {
		for field, val := range chain[i].Params {
			resolved[field] = val
		}
	}
	return resolved, nil
}
