package lrc

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/mvarner/canta/internal/logger"
)

// lengthRe matches mm:ss with an optional two- or three-digit fraction
var lengthRe = regexp.MustCompile(`^(\d{1,3}):(\d{2})(?:\.(\d{2,3}))?$`)

// Metadata holds the song-level tags of an LRC file. Zero values mean the
// tag was absent.
type Metadata struct {
	Title          string
	Artist         string
	Album          string
	Genre          string
	DurationMillis int64
	OffsetMillis   int64
}

// ParseMetadata extracts the metadata tags of an LRC file without touching
// the lyric lines. Used for catalog population; independent of ParseLyrics.
func ParseMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to open lyrics file: %w", err)
	}
	defer f.Close()

	var md Metadata

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		line = strings.TrimRight(line, "\r")

		m := metaTagRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[2])

		switch strings.ToLower(m[1]) {
		case tagTitle:
			md.Title = value
		case tagArtist:
			md.Artist = value
		case tagAlbum:
			md.Album = value
		case tagGenre:
			md.Genre = value
		case tagLength:
			ms, err := parseLength(value)
			if err != nil {
				logger.Log.Warn().
					Str("path", path).
					Int("line", lineNo).
					Str("value", value).
					Msg("Skipping length tag with invalid value")
				continue
			}
			md.DurationMillis = ms
		case tagOffset:
			ms, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				logger.Log.Warn().
					Str("path", path).
					Int("line", lineNo).
					Str("value", value).
					Msg("Skipping offset tag with invalid value")
				continue
			}
			md.OffsetMillis = ms
		}
	}

	if err := scanner.Err(); err != nil {
		return Metadata{}, fmt.Errorf("failed to read lyrics file: %w", err)
	}

	return md, nil
}

// parseLength converts an mm:ss[.ff|.fff] length value to milliseconds.
func parseLength(value string) (int64, error) {
	m := lengthRe.FindStringSubmatch(value)
	if m == nil {
		return 0, fmt.Errorf("invalid length value %q", value)
	}
	if m[3] == "" {
		m[3] = "000"
	}
	return parseTimestamp(m[1], m[2], m[3])
}
