// Package engine defines the narrow contracts with the external GIS engine
// and hydrological simulator, plus subprocess-backed implementations. The
// rest of the system treats both as opaque collaborators: their errors pass
// through unchanged and their algorithms are out of scope.
package engine
