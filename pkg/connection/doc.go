// Package connection provides a reconnecting OSC client.
//
// This package handles:
//   - Exponential backoff for reconnection attempts
//   - Jitter to prevent thundering herd
//   - Connection state tracking
//   - Automatic reconnection on connection loss
//
// # Reconnection Strategy
//
// When an established connection is lost, the client redials with
// exponential backoff:
//
//  1. Initial delay: 1 second
//  2. Exponential increase: 2s, 4s, 8s, 16s
//  3. Maximum delay: 30 seconds
//  4. Continue at 30s until successful
//  5. Reset to 1s on successful reconnection
//
// # Jitter
//
// To prevent thundering herd when multiple clients reconnect:
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
//
// Only losses of an established connection trigger reconnection. A
// failed initial Connect is reported to the caller and the client
// stays disconnected.
package connection
