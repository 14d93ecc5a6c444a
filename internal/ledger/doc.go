// Package ledger is the metadata/state engine of the preparation pipeline.
// It persists, per project, a record of every executed step — parameters,
// consumed artifact references, produced artifacts — so a model run can be
// reproduced and audited later.
//
// Steps are invoked independently, sometimes days apart, so the ledger makes
// no attempt at eager invalidation: re-recording a step replaces only its
// own entry, and a downstream step discovers stale inputs the next time it
// runs, through the validator. Cross-process safety comes from an advisory
// file lock held for the whole read-validate-write sequence of a step
// invocation.
package ledger
