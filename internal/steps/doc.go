// Package steps holds the pipeline's orchestration functions. Each step is
// the same four-phase sequence: pass the dependency validator, call the
// external engine, register produced artifacts, record the step in the
// ledger. An engine failure short-circuits before recording, so a failed
// step is indistinguishable from one that never ran.
package steps
