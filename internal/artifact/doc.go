// Package artifact models the typed, named outputs of pipeline steps and the
// per-project registry that holds them. Spatial metadata attached to map
// artifacts is the basis of the dependency validator's compatibility checks.
package artifact
