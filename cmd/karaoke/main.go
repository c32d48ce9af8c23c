package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mvarner/canta/internal/config"
	"github.com/mvarner/canta/internal/engine"
	"github.com/mvarner/canta/internal/logger"
	"github.com/mvarner/canta/internal/lrc"
	"github.com/mvarner/canta/internal/models"
	"github.com/mvarner/canta/internal/playback"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "karaoke: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Pretty)

	if len(os.Args) < 2 {
		return fmt.Errorf("usage: %s <audio file> [audio file ...]", filepath.Base(os.Args[0]))
	}

	if err := playback.InitSpeaker(cfg.Audio.SampleRate, cfg.Audio.BufferLength); err != nil {
		return fmt.Errorf("failed to initialize audio output: %w", err)
	}

	eng := engine.New(playback.NewBeepFactory(cfg.Playback.TickInterval))
	defer eng.Close()

	songs := make([]models.Song, 0, len(os.Args)-1)
	for _, path := range os.Args[1:] {
		song, err := songFromPath(path)
		if err != nil {
			return err
		}
		songs = append(songs, song)
	}

	windows := eng.SubscribeWindow()
	go func() {
		// The lyric display writes to stdout; all logging goes to stderr.
		for w := range windows {
			if w.Current.Valid {
				fmt.Println(w.Current.Line.Text)
			}
		}
	}()

	first := songs[0]
	eng.EnqueueAll(songs[1:])
	if !eng.Load(first, true) {
		return fmt.Errorf("failed to start playback of %s", first.AudioPath)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Log.Info().Msg("Shutdown signal received")
	return nil
}

// songFromPath builds a song record for an audio file, picking up a sibling
// .lrc file and its metadata when present.
func songFromPath(path string) (models.Song, error) {
	if _, err := os.Stat(path); err != nil {
		return models.Song{}, fmt.Errorf("cannot read audio file: %w", err)
	}

	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	artist := "Unknown Artist"

	song := *models.NewSong(title, artist, path)

	lyricsPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".lrc"
	if _, err := os.Stat(lyricsPath); err == nil {
		song.LyricsPath = &lyricsPath

		meta, err := lrc.ParseMetadata(lyricsPath)
		if err != nil {
			logger.Log.Warn().Err(err).Str("path", lyricsPath).Msg("Failed to read lyric metadata")
		} else {
			if meta.Title != "" {
				song.Title = meta.Title
			}
			if meta.Artist != "" {
				song.Artist = meta.Artist
			}
			if meta.Genre != "" {
				genre := meta.Genre
				song.Genre = &genre
			}
			song.DurationMillis = meta.DurationMillis
		}
	}

	return song, nil
}
