// Package api is the transport edge of the server: the websocket gateway
// that feeds client messages into the collaboration coordinator, and the
// HTTP endpoints for presence, edit locks, mutation announcements and
// scheduled automation.
package api
