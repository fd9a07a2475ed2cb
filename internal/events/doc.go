// Package events decouples mutation announcements from automation.
//
// The collaboration coordinator emits a MutationEvent after a board write has
// been broadcast and recorded; handlers registered on the emitter (the task
// package's automation handler in production) decide what to do with it
// without the coordinator depending on them.
package events
