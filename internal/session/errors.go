package session

import "errors"

// Error taxonomy for message processing. Everything here is user-local:
// the engine converts these into re-prompts or fresh sessions, never into
// a process failure.
var (
	// ErrInvalidSelection covers out-of-range ordinals and unrecognized
	// answer labels; recovered locally by re-sending the option list.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrNoLiveSession marks a control command arriving for a user with
	// no session; treated as an implicit start.
	ErrNoLiveSession = errors.New("no live session")

	// ErrCorruptSession marks an invariant violation. Fatal for that
	// session only: it is discarded and the user restarts at idle.
	ErrCorruptSession = errors.New("corrupt session state")
)
