package playback

// Resource is the underlying media-decoding/playback handle. It runs on its
// own goroutines and reports progress through Callbacks; the controller is
// its only commander.
type Resource interface {
	// Play starts or resumes audio output.
	Play() error
	// Pause suspends audio output, keeping the position.
	Pause() error
	// Stop suspends audio output and rewinds to position zero.
	Stop() error
	// Seek moves to the given position in milliseconds.
	Seek(positionMillis int64) error
	// Position returns the current position in milliseconds.
	Position() int64
	// Duration returns the total length in milliseconds, 0 before readiness.
	Duration() int64
	// Close releases the resource. No callbacks may be acted upon afterwards.
	Close() error
}

// Callbacks are the push-style notifications a Resource delivers from its own
// goroutines. For a given resource instance they arrive in real occurrence
// order.
type Callbacks struct {
	// OnReady fires once when preparation finishes, with the total duration.
	OnReady func(durationMillis int64)
	// OnTick reports the playback position periodically while playing.
	OnTick func(positionMillis int64)
	// OnFinished fires when the media reaches its natural end.
	OnFinished func()
	// OnError reports a preparation or playback failure.
	OnError func(err error)
}

// ResourceFactory opens the audio file at path and begins asynchronous
// preparation. It returns without blocking on decoding; readiness or failure
// arrives later through the callbacks.
type ResourceFactory func(path string, cb Callbacks) (Resource, error)
