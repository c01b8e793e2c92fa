/*
Package ipc provides the three coordination primitives shared by sensor
producers and controllers.

# Channel

A Channel is a single-slot mailbox. Send never blocks: it fills the empty
slot or overwrites the pending value, so a slow consumer only ever sees the
latest value. TryReceive takes the pending value and empties the slot.

# Multiplexer

A Multiplexer watches a fixed set of channels and lets one caller block
until any of them has a pending value. WaitAny reports which channel is
ready but leaves the value in place; the caller drains it with TryReceive.
When several channels are ready at once they are served round-robin,
starting after the channel returned by the previous wait.

# SignalSet

A SignalSet is a group of boolean flags. Set is idempotent and wakes
waiters. WaitAny blocks until any requested flag is set and, with
autoClear, clears exactly the flags it matched under the same lock so the
same event is never observed twice.

All waits take a context and a timeout. A zero timeout polls once and a
negative timeout waits until the context is done.
*/
package ipc
