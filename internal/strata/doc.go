// Package strata loads vegetation stratum definitions from a project's defs
// directory and flattens their inheritance chains into concrete parameter
// sets for worldfile template generation.
//
// A definition may name a base definition it inherits from, forming chains
// of any depth. This replaced an earlier flat format; flat definitions (no
// base) still resolve unchanged. Cycles among base references are rejected
// explicitly with the full offending chain.
package strata
