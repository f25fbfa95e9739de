// Package deploy implements the deployment engine: the state machine that
// moves an application's source tree into its live deploy directory,
// preserves the prior state as a restorable backup, and rolls back to any
// retained state.
//
// The engine is constructed from an explicit [config.Config]; there is no
// process-wide state. It delegates snapshots to [store.Store], runs hook
// command lists through [hooks.Runner] at the defined lifecycle points,
// and persists a single [Metadata] record alongside the deploy directory.
//
// # Failure semantics
//
// Pre-phase hook failures abort before any destructive action, leaving
// disk state unchanged. Failures during the clear-and-copy phase surface
// immediately and leave the deploy directory partial; the engine never
// retries or self-heals, the operator inspects and rolls back explicitly.
// Post-phase hook failures are reported on the [Result] but do not reverse
// the already-committed transition. Prune failures are logged warnings.
package deploy
