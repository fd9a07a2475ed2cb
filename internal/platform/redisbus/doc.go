// Package redisbus relays realtime envelopes between server instances over
// Redis pub/sub.
//
// Every instance publishes its broadcasts to corkboard:<namespace>:<channel>
// and pattern-subscribes to corkboard:<namespace>:*, handing each received
// envelope to its local router. Redis pub/sub is at most once, which matches
// the router's delivery contract. Only broadcasts cross instances; presence
// sets and edit locks remain per instance.
package redisbus
