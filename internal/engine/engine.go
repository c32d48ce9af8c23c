// Package engine orchestrates playback, lyrics synchronization and the song
// queue: it composes the effective timing offset, advances the queue at end
// of media, and broadcasts state snapshots to read-only subscribers.
package engine

import (
	"errors"
	"sync"

	"github.com/mvarner/canta/internal/logger"
	"github.com/mvarner/canta/internal/lrc"
	"github.com/mvarner/canta/internal/lyrics"
	"github.com/mvarner/canta/internal/models"
	"github.com/mvarner/canta/internal/playback"
	"github.com/mvarner/canta/internal/queue"
)

const (
	taskQueueSize       = 128
	subscriberQueueSize = 16
)

// Common errors
var (
	ErrEngineClosed = errors.New("engine has been closed")
	ErrNoLyricsFile = errors.New("current song has no lyrics file")
)

// Engine is the coordination point of the karaoke player. All state mutation
// runs on one internal goroutine consuming a task channel; public methods
// marshal onto it, and so do the media resource callbacks, which keeps the
// controller, queue and timeline free of locking.
type Engine struct {
	controller *playback.Controller
	queue      *queue.Queue
	timeline   *lyrics.Timeline

	baseOffsetMillis int64
	userOffsetMillis int64

	lastWindow   lyrics.Window
	lastSnapshot Snapshot
	published    bool

	snapshotSubs []chan Snapshot
	windowSubs   []chan lyrics.Window

	tasks     chan func()
	closed    chan struct{}
	closeOnce sync.Once
}

// New creates an engine over the given resource factory and starts its
// coordination goroutine.
func New(factory playback.ResourceFactory) *Engine {
	e := &Engine{
		queue:    queue.New(),
		timeline: lyrics.NewTimeline(nil),
		tasks:    make(chan func(), taskQueueSize),
		closed:   make(chan struct{}),
	}
	e.controller = playback.NewController(factory, e.post)
	e.controller.SetOnChange(e.publish)
	e.controller.SetOnEnded(e.handleEnded)

	go e.run()

	logger.Log.Info().Msg("Playback engine started")
	return e
}

// run consumes tasks until the engine is closed.
func (e *Engine) run() {
	for {
		select {
		case <-e.closed:
			return
		case task := <-e.tasks:
			task()
		}
	}
}

// post schedules a task on the coordination goroutine without waiting.
func (e *Engine) post(task func()) {
	select {
	case e.tasks <- task:
	case <-e.closed:
	}
}

// call schedules a task and waits for it to complete.
func (e *Engine) call(task func()) error {
	done := make(chan struct{})
	select {
	case e.tasks <- func() {
		task()
		close(done)
	}:
	case <-e.closed:
		return ErrEngineClosed
	}

	select {
	case <-done:
		return nil
	case <-e.closed:
		return ErrEngineClosed
	}
}

// Load replaces the current song: parses its lyrics (an unparsable lyric
// file degrades to an empty timeline without blocking audio), resets the
// live offset adjustment, and initiates media preparation. Returns true only
// when preparation was initiated.
func (e *Engine) Load(song models.Song, startPlayback bool) bool {
	var initiated bool
	if err := e.call(func() {
		initiated = e.doLoad(song, startPlayback)
	}); err != nil {
		return false
	}
	return initiated
}

// Play starts or resumes playback of the loaded song.
func (e *Engine) Play() {
	_ = e.call(e.controller.Play)
}

// Pause suspends playback.
func (e *Engine) Pause() {
	_ = e.call(e.controller.Pause)
}

// Stop halts playback and resets the position to zero.
func (e *Engine) Stop() {
	_ = e.call(e.controller.Stop)
}

// Seek moves the playback position, deferring the request when the media is
// not yet ready.
func (e *Engine) Seek(positionMillis int64) {
	_ = e.call(func() { e.controller.Seek(positionMillis) })
}

// Enqueue appends a song to the back of the playback queue.
func (e *Engine) Enqueue(song models.Song) {
	_ = e.call(func() { e.queue.Enqueue(song) })
}

// EnqueueAll appends the given songs in order.
func (e *Engine) EnqueueAll(songs []models.Song) {
	_ = e.call(func() { e.queue.EnqueueAll(songs) })
}

// ClearQueue removes all queued songs.
func (e *Engine) ClearQueue() {
	_ = e.call(e.queue.Clear)
}

// QueueSize returns the number of queued songs.
func (e *Engine) QueueSize() int {
	var n int
	_ = e.call(func() { n = e.queue.Size() })
	return n
}

// Upcoming returns up to n queued songs, front to back, without removing
// them.
func (e *Engine) Upcoming(n int) []models.Song {
	var songs []models.Song
	_ = e.call(func() { songs = e.queue.Peek(n) })
	return songs
}

// AdjustOffset shifts the live user timing adjustment by deltaMillis and
// returns the new effective offset.
func (e *Engine) AdjustOffset(deltaMillis int64) int64 {
	var effective int64
	_ = e.call(func() {
		e.userOffsetMillis += deltaMillis
		effective = e.baseOffsetMillis + e.userOffsetMillis
		e.publish()
	})
	return effective
}

// SetUserOffset replaces the live user timing adjustment.
func (e *Engine) SetUserOffset(offsetMillis int64) {
	_ = e.call(func() {
		e.userOffsetMillis = offsetMillis
		e.publish()
	})
}

// OffsetMillis returns the current effective offset.
func (e *Engine) OffsetMillis() int64 {
	var effective int64
	_ = e.call(func() { effective = e.baseOffsetMillis + e.userOffsetMillis })
	return effective
}

// SaveOffset persists the current effective offset into the song's lyric
// file, then folds it into the base offset and zeroes the live adjustment.
// This is the one engine operation whose failure is surfaced to the caller,
// so an explicit save action can be retried.
func (e *Engine) SaveOffset() error {
	var saveErr error
	if err := e.call(func() {
		song := e.controller.Song()
		if song == nil || !song.HasLyrics() {
			saveErr = ErrNoLyricsFile
			return
		}
		effective := e.baseOffsetMillis + e.userOffsetMillis
		if err := lrc.WriteOffset(*song.LyricsPath, effective); err != nil {
			saveErr = err
			return
		}
		e.baseOffsetMillis = effective
		e.userOffsetMillis = 0
		e.publish()
	}); err != nil {
		return err
	}
	return saveErr
}

// Snapshot returns the current published state.
func (e *Engine) Snapshot() Snapshot {
	var snap Snapshot
	_ = e.call(func() { snap = e.currentSnapshot() })
	return snap
}

// Subscribe registers a read-only state subscriber. The channel is buffered;
// a subscriber that falls behind misses snapshots instead of stalling the
// engine. The channel is closed when the engine closes.
func (e *Engine) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, subscriberQueueSize)
	if err := e.call(func() {
		e.snapshotSubs = append(e.snapshotSubs, ch)
	}); err != nil {
		close(ch)
	}
	return ch
}

// SubscribeWindow registers a subscriber notified only when the lyric
// display window actually changes; element-wise identical windows are
// suppressed.
func (e *Engine) SubscribeWindow() <-chan lyrics.Window {
	ch := make(chan lyrics.Window, subscriberQueueSize)
	if err := e.call(func() {
		e.windowSubs = append(e.windowSubs, ch)
	}); err != nil {
		close(ch)
	}
	return ch
}

// Close disposes the playback controller, closes all subscriber channels,
// and terminates the coordination goroutine. Idempotent.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		_ = e.call(func() {
			e.controller.Dispose()
			for _, ch := range e.snapshotSubs {
				close(ch)
			}
			for _, ch := range e.windowSubs {
				close(ch)
			}
			e.snapshotSubs = nil
			e.windowSubs = nil
		})
		close(e.closed)
		logger.Log.Info().Msg("Playback engine closed")
	})
}

// doLoad runs on the coordination goroutine.
func (e *Engine) doLoad(song models.Song, startPlayback bool) bool {
	e.loadLyrics(song)
	return e.controller.Load(song, startPlayback)
}

// loadLyrics builds the lyric timeline and base offset for a song. The base
// offset comes from the lyric file when it parses, else from the catalog
// record; the live user adjustment always restarts at zero.
func (e *Engine) loadLyrics(song models.Song) {
	e.userOffsetMillis = 0
	e.baseOffsetMillis = 0
	if song.BaseOffsetMillis != nil {
		e.baseOffsetMillis = *song.BaseOffsetMillis
	}
	e.timeline = lyrics.NewTimeline(nil)

	if !song.HasLyrics() {
		return
	}

	lines, offsetMillis, err := lrc.ParseLyrics(*song.LyricsPath)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("path", *song.LyricsPath).
			Msg("Failed to parse lyrics; continuing without lyric display")
		return
	}

	e.timeline = lyrics.NewTimeline(lines)
	e.baseOffsetMillis = offsetMillis
}

// handleEnded advances the queue when the current song reaches its end.
// Playback of the next song starts automatically iff the previous one was
// playing when it ended.
func (e *Engine) handleEnded(wasPlaying bool) {
	next, ok := e.queue.DequeueNext()
	if !ok {
		logger.Log.Info().Msg("Playback finished with empty queue")
		return
	}

	logger.Log.Info().
		Str("song_id", next.ID.String()).
		Str("title", next.Title).
		Bool("start_playback", wasPlaying).
		Msg("Advancing to next queued song")

	e.doLoad(next, wasPlaying)
}

// currentSnapshot assembles the published state. Runs on the coordination
// goroutine.
func (e *Engine) currentSnapshot() Snapshot {
	offset := e.baseOffsetMillis + e.userOffsetMillis
	position := e.controller.PositionMillis()
	return Snapshot{
		Status:         e.controller.Status(),
		Song:           e.controller.Song(),
		PositionMillis: position,
		DurationMillis: e.controller.DurationMillis(),
		OffsetMillis:   offset,
		Window:         e.timeline.WindowAt(position, offset),
	}
}

// publish recomputes the published state and notifies subscribers.
// Window subscribers are only notified when the window actually changed;
// snapshot subscribers when any published field changed. Sends never block
// the coordination goroutine.
func (e *Engine) publish() {
	snap := e.currentSnapshot()

	if !e.published || !snap.Window.Equal(e.lastWindow) {
		e.lastWindow = snap.Window
		for _, ch := range e.windowSubs {
			select {
			case ch <- snap.Window:
			default:
			}
		}
	}

	if !e.published || snap != e.lastSnapshot {
		e.lastSnapshot = snap
		for _, ch := range e.snapshotSubs {
			select {
			case ch <- snap:
			default:
			}
		}
	}

	e.published = true
}
