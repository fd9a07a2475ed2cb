// Package store defines the persistence contracts the collaboration core
// consumes: card snapshots and card mutations, comments, checklists,
// notifications, board activity, automation rules and their execution log.
// The core never defines how boards are stored; implementations live in
// internal/platform.
package store
