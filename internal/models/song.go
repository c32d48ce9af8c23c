// Package models contains the data records exchanged between the engine and
// its external collaborators.
package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Validation errors
var (
	ErrMissingTitle     = errors.New("song title must not be blank")
	ErrMissingArtist    = errors.New("song artist must not be blank")
	ErrMissingAudioPath = errors.New("song audio path must not be blank")
)

// Song is an immutable record describing one playable track. It is consumed
// as-is from an external catalog; the engine never writes it back.
type Song struct {
	ID               uuid.UUID
	Title            string
	Artist           string
	Genre            *string
	DurationMillis   int64
	BaseOffsetMillis *int64
	AudioPath        string
	LyricsPath       *string
}

// NewSong creates a new Song with a generated UUID
func NewSong(title, artist, audioPath string) *Song {
	return &Song{
		ID:        uuid.New(),
		Title:     title,
		Artist:    artist,
		AudioPath: audioPath,
	}
}

// Validate checks the Song invariants: title, artist, and audio path are
// required, everything else is optional.
func (s *Song) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return ErrMissingTitle
	}
	if strings.TrimSpace(s.Artist) == "" {
		return ErrMissingArtist
	}
	if strings.TrimSpace(s.AudioPath) == "" {
		return ErrMissingAudioPath
	}
	return nil
}

// HasLyrics reports whether a lyric file path is attached to the song.
func (s *Song) HasLyrics() bool {
	return s.LyricsPath != nil && strings.TrimSpace(*s.LyricsPath) != ""
}

// DurationString returns the song duration in MM:SS format
func (s *Song) DurationString() string {
	totalSeconds := s.DurationMillis / 1000
	return fmt.Sprintf("%02d:%02d", totalSeconds/60, totalSeconds%60)
}
