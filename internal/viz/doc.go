// Package viz provides the interactive terminal view of a segregation run.
//
// The package implements the TUI using the Bubble Tea framework:
//
//   - [Model]: live grid driven tick by tick through a [schelling.Session]
//   - [RunMenu]: preset picker with an editable config screen
//   - [Recorder]: GIF capture of the grid
//   - Theme selection with 5 built-in color schemes
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single step
//	R     - Reset with the same seed
//	S     - Reset with the next seed
//	+/-   - Double/halve steps per tick
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//
// # Recording
//
// Recordings are written to segsim_<seed>.gif in the current directory when
// G is pressed a second time.
package viz
