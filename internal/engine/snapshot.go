package engine

import (
	"github.com/mvarner/canta/internal/lyrics"
	"github.com/mvarner/canta/internal/models"
	"github.com/mvarner/canta/internal/playback"
)

// Snapshot is the immutable published state consumed by read-only
// subscribers. No commands flow back through it.
type Snapshot struct {
	Status         playback.Status
	Song           *models.Song
	PositionMillis int64
	DurationMillis int64
	// OffsetMillis is the effective lyric offset: base file offset plus the
	// live user adjustment.
	OffsetMillis int64
	Window       lyrics.Window
}
