// Package audit relays security events from the engine to a caller-supplied
// sink without blocking the request path.
//
// [Dispatcher] buffers events on a channel and delivers them from a single
// goroutine. With DropIfFull set, a full buffer drops the event and counts it
// instead of waiting. Events never carry codes, passwords or tokens; emails
// are masked before they reach this package.
package audit
