// Package pattern implements blink(1) pattern playback.
//
// A pattern is a named list of color steps played on a light device,
// optionally looping a fixed number of times. Patterns come from three
// collections: built-in templates (locked), user patterns (persisted in
// the settings store), and ephemeral patterns synthesized from play
// tokens such as "~blink:red-3" or "~pattern:name:2,#ff0000,0.3,0".
//
// Service is the entry point. It owns the catalog and the playback
// state, drives each playing pattern with timer continuations from a
// Clock, sends every step to a Sink, and tells change listeners about
// every transition.
//
// # Text format
//
//	"<repeats>,<color>,<seconds>,<led>,<color>,<seconds>,<led>,..."
//
// Whitespace around commas is ignored. A bad duration becomes 0.1s, a
// bad LED becomes 0 (all LEDs), and a bad repeat count becomes 1. A
// repeat count of zero or less loops until stopped.
//
// # Play tokens
//
//	#rrggbb                  fade straight to a color
//	~off                     stop everything and fade to black
//	~blink:<color>-<n>[-<s>] blink a color n times, s seconds per half
//	~pattern:<name>:<text>   play an ad-hoc pattern once through
//	~pattern-stop:<name>     stop a pattern by id
//	<name or id>             play a catalog pattern
//
// # Serialized playback
//
// With serialization on, playing a new pattern pauses the active one on
// an interrupt stack. When the new pattern stops, the paused pattern
// resumes from where it left off.
package pattern
