// Package sensor implements the periodic producers that feed the
// controllers.
//
// Each Producer owns a Counter confined to [Begin, End]. Once per period it
// advances the counter, overwrites its channel with the new value and raises
// its data-ready flag. Unreceived values are lost on the next send.
package sensor
