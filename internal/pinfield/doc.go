// Package pinfield contains the PIN entry controller: a fixed row of
// single-digit slots that unlock one at a time as digits are typed.
//
// Allowed here:
// - slot state (locked, unlocked-empty, unlocked-filled) and entered values
// - focus/blur/input/keydown handling and the imperative reset/focus/enable API
// - option defaults and validation
//
// Not allowed here:
// - rendering, key decoding or any other host concern
// - deciding whether a completed PIN is correct
//
// A Controller is driven from a single event loop and is not safe for
// concurrent use.
package pinfield
