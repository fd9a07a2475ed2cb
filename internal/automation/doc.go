// Package automation evaluates board automation rules against card snapshots
// and executes their actions.
//
// Evaluate is a pure function over a rule's conditions and a snapshot. The
// Executor applies one action through the store collaborators and records an
// execution log entry for every attempt. The Engine selects the enabled rules
// of a board that match a trigger, evaluates them and runs the actions of each
// matching rule in order. A failing action never stops the actions after it,
// and no failure propagates to the caller of TriggerRules.
//
// Mutations performed by actions are not announced back to the collaboration
// layer, so one rule cannot trigger another.
package automation
