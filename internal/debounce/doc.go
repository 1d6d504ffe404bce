// Package debounce collapses bursts of calls into one delayed action.
//
// # Overview
//
// Typing in the sandbox produces a new CodeUnit on every keystroke. Sending
// each one to the analyzer would flood it, so edits go through a Trigger:
// each Schedule cancels the pending action and starts a new quiet window.
// Only when the window elapses without another Schedule does the action run.
//
// # Key Features
//
//   - Cancel-and-restart on every Schedule
//   - At most one fire per quiet window
//   - Stop cancels the pending action and disables the trigger for good
//   - Injectable clock (clockwork) so tests can advance time by hand
//
// # Usage in sift
//
// Sandbox sessions:
//   - Every non-blank edit or analyzer change calls Schedule with 1s
//   - Blank edits call Cancel (the caller owns the emptiness check)
//   - Session Close calls Stop
//
// Project sessions never debounce; a file click is a discrete action.
//
// # Example
//
//	trigger := debounce.New(clockwork.NewRealClock())
//	defer trigger.Stop()
//
//	trigger.Schedule(func() {
//	    controller.dispatch()
//	}, time.Second)
package debounce
