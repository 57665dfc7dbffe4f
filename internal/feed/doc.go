// Package feed implements the Feed Client component.
//
// A session owns one long-lived websocket connection to a segment's public
// ticker stream:
//
//	Disconnected -> Connecting -> Subscribing -> Streaming -> (Reconnecting | Stopped)
//
// Subscriptions go out one group at a time with a mandatory pacing delay.
// Inbound messages are dispatched synchronously in arrival order: a slow
// handler stalls the read loop, which is the back-pressure contract. The
// session does not reconnect itself — a transport error ends Run with a
// non-nil error and the supervisor recreates the whole pipeline, while an
// operator stop ends Run cleanly with nil.
package feed
