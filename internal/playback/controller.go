package playback

import (
	"fmt"
	"os"

	"github.com/mvarner/canta/internal/logger"
	"github.com/mvarner/canta/internal/models"
)

// Controller is the state machine wrapping the active media resource. All of
// its methods, and the resource callbacks it routes through dispatch, must
// run on one coordination goroutine; the controller carries no locking of its
// own.
//
// Resource callbacks are keyed to a generation counter so that callbacks from
// a resource replaced by a later Load or Dispose can never mutate the state
// of its successor.
type Controller struct {
	factory  ResourceFactory
	dispatch func(func())

	status            Status
	song              *models.Song
	resource          Resource
	positionMillis    int64
	durationMillis    int64
	pendingSeekMillis *int64
	playWhenReady     bool
	generation        uint64

	onChange func()
	onEnded  func(wasPlaying bool)
}

// NewController creates a controller over the given resource factory.
// dispatch marshals resource callbacks onto the coordination goroutine; nil
// means callbacks run inline, which is only safe in single-goroutine use.
func NewController(factory ResourceFactory, dispatch func(func())) *Controller {
	if dispatch == nil {
		dispatch = func(f func()) { f() }
	}
	return &Controller{
		factory:  factory,
		dispatch: dispatch,
		status:   StatusIdle,
	}
}

// SetOnChange registers the observer notified after every state or position
// change.
func (c *Controller) SetOnChange(fn func()) {
	c.onChange = fn
}

// SetOnEnded registers the observer notified when the current song reaches
// its natural end, after the controller has transitioned to Stopped.
// wasPlaying reports whether the song was playing when it ended.
func (c *Controller) SetOnEnded(fn func(wasPlaying bool)) {
	c.onEnded = fn
}

// Status returns the current playback status.
func (c *Controller) Status() Status {
	return c.status
}

// Song returns the currently loaded song, or nil.
func (c *Controller) Song() *models.Song {
	return c.song
}

// PositionMillis returns the current playback position.
func (c *Controller) PositionMillis() int64 {
	return c.positionMillis
}

// DurationMillis returns the total duration of the loaded media, 0 before
// readiness.
func (c *Controller) DurationMillis() int64 {
	return c.durationMillis
}

// Load replaces whatever is active with the given song. Any in-flight or
// active resource is disposed first and its late callbacks are ignored.
// Returns true only when preparation of the new resource was initiated;
// completion arrives later through the ready callback. On a validation or
// resource-creation failure the controller ends up Halted.
func (c *Controller) Load(song models.Song, startPlayback bool) bool {
	c.releaseResource()
	c.resetToIdle()

	if err := song.Validate(); err != nil {
		c.fault(NewMediaError(KindLoad, "invalid song record", err))
		return false
	}
	if err := checkReadable(song.AudioPath); err != nil {
		c.fault(NewMediaError(KindLoad, "audio file is not readable", err))
		return false
	}

	gen := c.generation
	resource, err := c.factory(song.AudioPath, Callbacks{
		OnReady: func(durationMillis int64) {
			c.dispatch(func() { c.handleReady(gen, durationMillis) })
		},
		OnTick: func(positionMillis int64) {
			c.dispatch(func() { c.handleTick(gen, positionMillis) })
		},
		OnFinished: func() {
			c.dispatch(func() { c.handleFinished(gen) })
		},
		OnError: func(err error) {
			c.dispatch(func() { c.handleError(gen, err) })
		},
	})
	if err != nil {
		c.fault(NewMediaError(KindLoad, "failed to create media resource", err))
		return false
	}

	c.resource = resource
	c.song = &song
	c.playWhenReady = startPlayback
	c.setStatus(StatusLoading)

	logger.Log.Info().
		Str("song_id", song.ID.String()).
		Str("title", song.Title).
		Str("artist", song.Artist).
		Bool("play_when_ready", startPlayback).
		Msg("Media load initiated")

	c.notifyChange()
	return true
}

// Play starts or resumes playback. Valid only from Ready, Paused or Stopped;
// a no-op with a diagnostic otherwise. Clears the play-when-ready flag.
func (c *Controller) Play() {
	switch c.status {
	case StatusReady, StatusPaused, StatusStopped:
	default:
		logger.Log.Warn().
			Str("status", c.status.String()).
			Msg("Play ignored in current status")
		return
	}

	c.playWhenReady = false
	if err := c.resource.Play(); err != nil {
		c.fault(NewMediaError(KindPlayback, "failed to start playback", err))
		return
	}
	c.setStatus(StatusPlaying)
	c.notifyChange()
}

// Pause suspends playback. Valid only from Playing.
func (c *Controller) Pause() {
	if c.status != StatusPlaying {
		logger.Log.Warn().
			Str("status", c.status.String()).
			Msg("Pause ignored in current status")
		return
	}

	if err := c.resource.Pause(); err != nil {
		c.fault(NewMediaError(KindPlayback, "failed to pause playback", err))
		return
	}
	c.setStatus(StatusPaused)
	c.notifyChange()
}

// Stop halts playback and resets the position to zero. Valid from any status
// with an active resource. Clears the play-when-ready flag.
func (c *Controller) Stop() {
	if c.resource == nil {
		logger.Log.Warn().
			Str("status", c.status.String()).
			Msg("Stop ignored without an active resource")
		return
	}

	c.playWhenReady = false
	if err := c.resource.Stop(); err != nil {
		c.fault(NewMediaError(KindPlayback, "failed to stop playback", err))
		return
	}
	c.positionMillis = 0
	c.setStatus(StatusStopped)
	c.notifyChange()
}

// Seek moves the playback position. Before readiness the request is stored
// as a pending seek and applied exactly once when the resource becomes
// ready; afterwards it is clamped to [0, duration] and applied immediately,
// updating the position synchronously so dependent lookups stay consistent
// even while not playing.
func (c *Controller) Seek(positionMillis int64) {
	switch c.status {
	case StatusLoading:
		pending := positionMillis
		c.pendingSeekMillis = &pending
		logger.Log.Debug().
			Int64("position_ms", positionMillis).
			Msg("Seek deferred until resource is ready")
		return
	case StatusReady, StatusPlaying, StatusPaused, StatusStopped:
	default:
		logger.Log.Warn().
			Str("status", c.status.String()).
			Msg("Seek ignored without an active resource")
		return
	}

	clamped := clampMillis(positionMillis, c.durationMillis)
	if err := c.resource.Seek(clamped); err != nil {
		c.fault(NewMediaError(KindPlayback, "failed to seek", err))
		return
	}
	c.positionMillis = clamped
	c.notifyChange()
}

// Dispose stops and releases the underlying resource and resets every field
// to the Idle defaults, from whatever state it is called in. Idempotent;
// always succeeds.
func (c *Controller) Dispose() {
	c.releaseResource()
	c.resetToIdle()
	c.notifyChange()
	logger.Log.Debug().Msg("Playback controller disposed")
}

// handleReady runs when the resource reports readiness: record the duration,
// apply a pending seek, then auto-start when requested. The ordering
// guarantees a deferred seek lands before any auto-started playback.
func (c *Controller) handleReady(gen uint64, durationMillis int64) {
	if gen != c.generation {
		logger.Log.Debug().Msg("Ignoring ready callback from stale resource")
		return
	}
	if c.status != StatusLoading {
		logger.Log.Warn().
			Str("status", c.status.String()).
			Msg("Ignoring ready callback outside loading")
		return
	}

	c.durationMillis = durationMillis
	c.setStatus(StatusReady)

	if c.pendingSeekMillis != nil {
		target := clampMillis(*c.pendingSeekMillis, c.durationMillis)
		c.pendingSeekMillis = nil
		if err := c.resource.Seek(target); err != nil {
			c.fault(NewMediaError(KindPlayback, "failed to apply pending seek", err))
			return
		}
		c.positionMillis = target
	}

	logger.Log.Debug().
		Int64("duration_ms", durationMillis).
		Int64("position_ms", c.positionMillis).
		Bool("play_when_ready", c.playWhenReady).
		Msg("Media resource ready")

	if c.playWhenReady {
		c.Play()
		return
	}
	c.notifyChange()
}

// handleTick runs on periodic position reports while playing.
func (c *Controller) handleTick(gen uint64, positionMillis int64) {
	if gen != c.generation {
		return
	}
	if c.status != StatusPlaying {
		return
	}
	c.positionMillis = positionMillis
	c.notifyChange()
}

// handleFinished runs when the media reaches its natural end.
func (c *Controller) handleFinished(gen uint64) {
	if gen != c.generation {
		logger.Log.Debug().Msg("Ignoring finished callback from stale resource")
		return
	}

	wasPlaying := c.status == StatusPlaying
	c.positionMillis = 0
	c.playWhenReady = false
	c.setStatus(StatusStopped)

	logger.Log.Info().
		Bool("was_playing", wasPlaying).
		Msg("Media playback finished")

	c.notifyChange()
	if c.onEnded != nil {
		c.onEnded(wasPlaying)
	}
}

// handleError runs on a resource failure at any point of the lifecycle.
func (c *Controller) handleError(gen uint64, err error) {
	if gen != c.generation {
		logger.Log.Debug().Err(err).Msg("Ignoring error callback from stale resource")
		return
	}

	kind := KindPlayback
	if c.status == StatusLoading {
		kind = KindLoad
	}
	c.fault(NewMediaError(kind, "media resource failed", err))
}

// fault is the single error path for load and playback failures: log,
// release the possibly corrupt resource, and transition to Halted. Never
// surfaced to the caller of Play, Pause or Stop.
func (c *Controller) fault(err *MediaError) {
	logger.Log.Error().
		Err(err).
		Str("kind", err.Kind.String()).
		Str("status", c.status.String()).
		Msg("Playback fault; halting")

	c.releaseResource()
	c.resetToIdle()
	c.status = StatusHalted
	c.notifyChange()
}

// releaseResource detaches and closes the active resource. Bumping the
// generation first makes every callback from it stale.
func (c *Controller) releaseResource() {
	c.generation++
	if c.resource == nil {
		return
	}
	if err := c.resource.Close(); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to close media resource")
	}
	c.resource = nil
}

// resetToIdle restores the Idle defaults.
func (c *Controller) resetToIdle() {
	c.status = StatusIdle
	c.song = nil
	c.positionMillis = 0
	c.durationMillis = 0
	c.pendingSeekMillis = nil
	c.playWhenReady = false
}

// setStatus applies a transition, flagging unexpected ones for diagnostics.
func (c *Controller) setStatus(next Status) {
	if !c.status.CanTransitionTo(next) {
		logger.Log.Warn().
			Str("from", c.status.String()).
			Str("to", next.String()).
			Msg("Unexpected status transition")
	}
	c.status = next
}

// notifyChange informs the registered observer.
func (c *Controller) notifyChange() {
	if c.onChange != nil {
		c.onChange()
	}
}

// clampMillis clamps a position to [0, duration].
func clampMillis(positionMillis, durationMillis int64) int64 {
	if positionMillis < 0 {
		return 0
	}
	if durationMillis > 0 && positionMillis > durationMillis {
		return durationMillis
	}
	return positionMillis
}

// checkReadable verifies the path names a readable regular file.
func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
