// Package lrc reads and writes LRC lyric files: timestamped lyric lines plus
// bracketed metadata tags, including the [offset:] timing correction the
// engine persists back into the file.
package lrc

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mvarner/canta/internal/logger"
	"github.com/mvarner/canta/internal/lyrics"
)

// Tag names recognized in LRC metadata (case-insensitive in files)
const (
	tagTitle  = "ti"
	tagArtist = "ar"
	tagAlbum  = "al"
	tagLength = "length"
	tagGenre  = "genre"
	tagOffset = "offset"
	tagBy     = "by"
	tagRe     = "re"
	tagVe     = "ve"
)

var (
	// One or more consecutive timestamp tags followed by the line text
	lyricLineRe = regexp.MustCompile(`^((?:\[\d{1,3}:\d{2}\.\d{2,3}\])+)(.*)$`)
	// A single timestamp tag within the leading group
	timeTagRe = regexp.MustCompile(`\[(\d{1,3}):(\d{2})\.(\d{2,3})\]`)
	// A bracketed metadata tag occupying the whole line
	metaTagRe = regexp.MustCompile(`^\[([A-Za-z]+):([^\]]*)\]\s*$`)
)

// ParseLyrics parses the lyric lines and base timing offset from an LRC file.
// Lines are returned sorted by timestamp; lines sharing a timestamp keep
// their file order. A line carrying several consecutive timestamp tags yields
// one lyric line per tag, all with the same text.
//
// Malformed lines are skipped with a warning; only an I/O failure is an
// error. When several [offset:] tags occur, the last one wins.
func ParseLyrics(path string) ([]lyrics.Line, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open lyrics file: %w", err)
	}
	defer f.Close()

	var (
		lines        []lyrics.Line
		offsetMillis int64
	)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := lyricLineRe.FindStringSubmatch(line); m != nil {
			text := strings.TrimSpace(m[2])
			parsed, err := parseTimestampGroup(m[1], text)
			if err != nil {
				logger.Log.Warn().
					Str("path", path).
					Int("line", lineNo).
					Err(err).
					Msg("Skipping lyric line with invalid timestamp")
				continue
			}
			lines = append(lines, parsed...)
			continue
		}

		if m := metaTagRe.FindStringSubmatch(line); m != nil {
			if strings.ToLower(m[1]) == tagOffset {
				value, err := strconv.ParseInt(strings.TrimSpace(m[2]), 10, 64)
				if err != nil {
					logger.Log.Warn().
						Str("path", path).
						Int("line", lineNo).
						Str("value", m[2]).
						Msg("Skipping offset tag with invalid value")
					continue
				}
				offsetMillis = value
			}
			// Other metadata tags carry no timing information
			continue
		}

		logger.Log.Warn().
			Str("path", path).
			Int("line", lineNo).
			Msg("Skipping unrecognized lyrics line")
	}

	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read lyrics file: %w", err)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].TimeMillis < lines[j].TimeMillis
	})

	logger.Log.Debug().
		Str("path", path).
		Int("line_count", len(lines)).
		Int64("offset_ms", offsetMillis).
		Msg("Parsed lyrics file")

	return lines, offsetMillis, nil
}

// parseTimestampGroup expands a run of timestamp tags into one lyric line per
// tag, all sharing the same text.
func parseTimestampGroup(group, text string) ([]lyrics.Line, error) {
	tags := timeTagRe.FindAllStringSubmatch(group, -1)
	parsed := make([]lyrics.Line, 0, len(tags))
	for _, tag := range tags {
		ms, err := parseTimestamp(tag[1], tag[2], tag[3])
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, lyrics.Line{TimeMillis: ms, Text: text})
	}
	return parsed, nil
}

// parseTimestamp converts mm:ss.ff or mm:ss.fff fields to milliseconds.
// A two-digit fraction is centiseconds, a three-digit one is milliseconds.
func parseTimestamp(minutes, seconds, fraction string) (int64, error) {
	mins, err := strconv.ParseInt(minutes, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid minutes field %q: %w", minutes, err)
	}
	secs, err := strconv.ParseInt(seconds, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds field %q: %w", seconds, err)
	}
	frac, err := strconv.ParseInt(fraction, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fraction field %q: %w", fraction, err)
	}
	if len(fraction) == 2 {
		frac *= 10
	}
	return mins*60_000 + secs*1_000 + frac, nil
}
