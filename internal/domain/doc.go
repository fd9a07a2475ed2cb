// Package domain contains the board entities the collaboration core reads and
// writes: card snapshots, automation rules with their conditions and actions,
// execution log entries, and the records produced by automation side effects
// (comments, checklists, notifications, activity entries).
package domain
