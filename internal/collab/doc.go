// Package collab is the collaboration coordinator. Resource handlers call it
// after a successful write; it broadcasts the change, records board activity,
// notifies affected users and hands the post-write snapshot to automation.
//
// It also binds board sessions to the realtime trackers: joining and leaving
// boards, starting and stopping edits, and cleaning up after a disconnect.
package collab
