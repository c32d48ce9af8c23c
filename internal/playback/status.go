// Package playback drives the underlying media-decoding resource through its
// asynchronous load, ready, play, pause and stop lifecycle.
package playback

// Status represents the current state of the playback controller
type Status string

// Playback status constants
const (
	StatusIdle    Status = "idle"    // No resource loaded
	StatusLoading Status = "loading" // Resource preparation in flight
	StatusReady   Status = "ready"   // Resource prepared, paused at position
	StatusPlaying Status = "playing" // Audio running
	StatusPaused  Status = "paused"  // Suspended mid-song
	StatusStopped Status = "stopped" // Position reset to zero, resource kept
	StatusHalted  Status = "halted"  // Unrecoverable resource error; only Load or Dispose leaves it
)

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// IsValid checks if the status is a known valid value
func (s Status) IsValid() bool {
	switch s {
	case StatusIdle, StatusLoading, StatusReady, StatusPlaying, StatusPaused, StatusStopped, StatusHalted:
		return true
	default:
		return false
	}
}

// HasResource reports whether the status implies an active media resource.
func (s Status) HasResource() bool {
	switch s {
	case StatusLoading, StatusReady, StatusPlaying, StatusPaused, StatusStopped:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a transition from the current status to next is
// valid. Every status may fall to Halted on a resource error and to Idle on
// dispose.
func (s Status) CanTransitionTo(next Status) bool {
	if next == StatusHalted || next == StatusIdle {
		return true
	}
	switch s {
	case StatusIdle:
		return next == StatusLoading
	case StatusLoading:
		return next == StatusReady
	case StatusReady:
		return next == StatusPlaying || next == StatusStopped
	case StatusPlaying:
		return next == StatusPaused || next == StatusStopped
	case StatusPaused:
		return next == StatusPlaying || next == StatusStopped
	case StatusStopped:
		return next == StatusPlaying
	case StatusHalted:
		return false
	default:
		return false
	}
}
