// Package validate is the gate every pipeline step passes before calling the
// external GIS engine. It checks that a step's declared prerequisite
// artifacts exist in the ledger and that all the maps the step will consume
// agree on spatial metadata. Engine operations silently produce degenerate
// results on mismatched inputs (a slope map at a different resolution than
// the DEM shows up as garbage only much later, in the simulation), so the
// mismatch is caught here, at the metadata layer, before any engine call.
package validate

import (
	"fmt"
	"strings"

	"github.com/vk/hydroprep/internal/artifact"
	"github.com/vk/hydroprep/internal/ledger"
)

// MissingPrerequisiteError reports required artifact types with no
// registered artifact in the ledger. All missing types are reported at once.
type MissingPrerequisiteError struct {
	Step    string
	Missing []artifact.Type
}

func (e *MissingPrerequisiteError) Error() string {
	types := make([]string, len(e.Missing))
	for i, t := range e.Missing {
		types[i] = string(t)
	}
	return fmt.Sprintf("step %q is missing prerequisite artifacts: %s (run the producing steps first)",
		e.Step, strings.Join(types, ", "))
}

// IncompatibleArtifactError names the first pair of consumed maps whose
// spatial metadata disagrees, and the field that disagrees.
type IncompatibleArtifactError struct {
	A, B  string
	Field string
}

func (e *IncompatibleArtifactError) Error() string {
	return fmt.Sprintf("artifacts %q and %q have mismatched %s", e.A, e.B, e.Field)
}

// Step validates that every required artifact type has at least one
// registered artifact and that all candidate inputs are pairwise compatible.
// It returns nil, a *MissingPrerequisiteError, or an
// *IncompatibleArtifactError.
func Step(led *ledger.Ledger, stepName string, required []artifact.Type) error {
	var missing []artifact.Type
	var consumed []artifact.Artifact
	for _, t := range required {
		found := led.ListArtifacts(t)
		if len(found) == 0 {
			missing = append(missing, t)
			continue
		}
		consumed = append(consumed, found...)
	}
	if len(missing) > 0 {
		return &MissingPrerequisiteError{Step: stepName, Missing: missing}
	}

	var maps []artifact.Artifact
	for _, a := range consumed {
		if a.Spatial != nil {
			maps = append(maps, a)
		}
	}
	for i := 0; i < len(maps); i++ {
		for j := i + 1; j < len(maps); j++ {
			if field, ok := maps[i].Spatial.Compatible(maps[j].Spatial); !ok {
				return &IncompatibleArtifactError{A: maps[i].Name, B: maps[j].Name, Field: field}
			}
		}
	}
	return nil
}
