package playback

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const resampleQuality = 4

var (
	speakerOnce  sync.Once
	speakerRate  beep.SampleRate
	speakerErr   error
	speakerReady bool
)

// InitSpeaker opens the process-wide audio output. Streams decoded at other
// sample rates are resampled to the given rate. Safe to call more than once;
// only the first call takes effect.
func InitSpeaker(sampleRate int, bufferLength time.Duration) error {
	speakerOnce.Do(func() {
		speakerRate = beep.SampleRate(sampleRate)
		speakerErr = speaker.Init(speakerRate, speakerRate.N(bufferLength))
		speakerReady = speakerErr == nil
	})
	return speakerErr
}

// NewBeepFactory returns a ResourceFactory that decodes audio files with beep
// and plays them through the process-wide speaker. tickInterval controls how
// often OnTick reports the playback position. InitSpeaker must have succeeded
// before the first resource is prepared.
func NewBeepFactory(tickInterval time.Duration) ResourceFactory {
	return func(path string, cb Callbacks) (Resource, error) {
		r := &beepResource{
			path:         path,
			cb:           cb,
			tickInterval: tickInterval,
			quit:         make(chan struct{}),
		}
		go r.prepare()
		return r, nil
	}
}

// beepResource wraps one decoded audio stream queued on the speaker. The
// beep.Ctrl pause flag is the play/pause gate; Stop is pause plus a rewind.
type beepResource struct {
	path         string
	cb           Callbacks
	tickInterval time.Duration

	mu       sync.Mutex
	closed   bool
	finished bool
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	file     *os.File

	quit chan struct{}
}

// prepare decodes the file and queues the paused stream on the speaker.
// Runs on its own goroutine; reports through the callbacks.
func (r *beepResource) prepare() {
	if !speakerReady {
		r.fail(fmt.Errorf("speaker not initialized"))
		return
	}

	f, err := os.Open(r.path)
	if err != nil {
		r.fail(fmt.Errorf("failed to open audio file: %w", err))
		return
	}

	streamer, format, err := decode(r.path, f)
	if err != nil {
		_ = f.Close()
		r.fail(fmt.Errorf("failed to decode audio file: %w", err))
		return
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = streamer.Close()
		_ = f.Close()
		return
	}
	r.streamer = streamer
	r.format = format
	r.file = f
	r.ctrl = &beep.Ctrl{
		Streamer: beep.Resample(resampleQuality, format.SampleRate, speakerRate, streamer),
		Paused:   true,
	}
	ctrl := r.ctrl
	r.mu.Unlock()

	r.queueOnSpeaker(ctrl)

	go r.runTicker()

	if r.cb.OnReady != nil {
		r.cb.OnReady(format.SampleRate.D(streamer.Len()).Milliseconds())
	}
}

// queueOnSpeaker hands the pause-gated stream to the speaker, followed by the
// end-of-media callback. A drained sequence leaves the speaker, so Play
// re-queues after a finish.
func (r *beepResource) queueOnSpeaker(ctrl *beep.Ctrl) {
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		// The speaker goroutine invokes this while holding its lock; hand
		// off so a consumer touching the speaker cannot deadlock against it.
		go func() {
			r.mu.Lock()
			r.finished = true
			r.mu.Unlock()
			if r.cb.OnFinished != nil {
				r.cb.OnFinished()
			}
		}()
	})))
}

// fail reports a preparation error.
func (r *beepResource) fail(err error) {
	if r.cb.OnError != nil {
		r.cb.OnError(err)
	}
}

// runTicker reports the playback position while audio is running.
func (r *beepResource) runTicker() {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.closed || r.ctrl == nil {
				r.mu.Unlock()
				return
			}
			ctrl, streamer, format := r.ctrl, r.streamer, r.format
			r.mu.Unlock()

			speaker.Lock()
			paused := ctrl.Paused
			pos := streamer.Position()
			speaker.Unlock()

			if paused {
				continue
			}
			if r.cb.OnTick != nil {
				r.cb.OnTick(format.SampleRate.D(pos).Milliseconds())
			}
		}
	}
}

// Play resumes audio output, re-queueing the stream when it had drained.
func (r *beepResource) Play() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.ctrl == nil {
		return fmt.Errorf("resource not prepared")
	}

	if r.finished {
		r.finished = false
		speaker.Lock()
		if r.streamer.Position() >= r.streamer.Len() {
			if err := r.streamer.Seek(0); err != nil {
				speaker.Unlock()
				return err
			}
		}
		r.ctrl.Paused = false
		speaker.Unlock()
		r.queueOnSpeaker(r.ctrl)
		return nil
	}

	speaker.Lock()
	r.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Pause suspends audio output, keeping the position.
func (r *beepResource) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.ctrl == nil {
		return fmt.Errorf("resource not prepared")
	}
	speaker.Lock()
	r.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Stop suspends audio output and rewinds to the beginning.
func (r *beepResource) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.ctrl == nil {
		return fmt.Errorf("resource not prepared")
	}
	speaker.Lock()
	defer speaker.Unlock()
	r.ctrl.Paused = true
	return r.streamer.Seek(0)
}

// Seek moves to the given position.
func (r *beepResource) Seek(positionMillis int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.streamer == nil {
		return fmt.Errorf("resource not prepared")
	}
	speaker.Lock()
	defer speaker.Unlock()
	samples := r.format.SampleRate.N(time.Duration(positionMillis) * time.Millisecond)
	return r.streamer.Seek(samples)
}

// Position returns the current position in milliseconds.
func (r *beepResource) Position() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := r.streamer.Position()
	speaker.Unlock()
	return r.format.SampleRate.D(pos).Milliseconds()
}

// Duration returns the total length in milliseconds.
func (r *beepResource) Duration() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.streamer == nil {
		return 0
	}
	return r.format.SampleRate.D(r.streamer.Len()).Milliseconds()
}

// Close releases the decoded stream and removes it from the speaker.
// Idempotent.
func (r *beepResource) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.quit)
	streamer, file := r.streamer, r.file
	r.streamer = nil
	r.ctrl = nil
	r.file = nil
	r.mu.Unlock()

	// The controller owns a single active resource, so clearing the speaker
	// only removes this resource's sequence.
	speaker.Clear()

	var err error
	if streamer != nil {
		err = streamer.Close()
	}
	if file != nil {
		_ = file.Close()
	}
	return err
}

// decode picks a decoder by file extension.
func decode(path string, f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3.Decode(f)
	case ".wav":
		return wav.Decode(f)
	case ".flac":
		return flac.Decode(f)
	case ".ogg", ".oga":
		return vorbis.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
	}
}
