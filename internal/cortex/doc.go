// Package cortex owns the neural cortex lifecycle.
//
// Ownership boundary:
// - lifecycle state and transitions
// - memory block reservation
// - boot phases and the driver handshake
// - heartbeat loop and shutdown flag
//
// Lifecycle order:
// - offline -> initializing -> calibrating -> syncing -> active
//
// - active <-> combat_ready via Escalate/StandDown.
//
// - any non-error state -> error via Fault; error is terminal.
//
// - handshake fallback does not block activation.
//
// Every timed step waits on the injected clock.Clock. Steps run strictly in
// sequence; only Shutdown is expected to be called from another goroutine.
package cortex
