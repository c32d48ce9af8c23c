package lrc

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mvarner/canta/internal/logger"
)

// offsetLineRe matches a line consisting of a single [offset:] tag
var offsetLineRe = regexp.MustCompile(`(?i)^\[offset:[^\]]*\]\s*$`)

// headerTags are the metadata tags that may precede lyric lines. A new
// offset tag is inserted after the last contiguous leading run of them.
var headerTags = map[string]bool{
	tagTitle:  true,
	tagArtist: true,
	tagAlbum:  true,
	tagLength: true,
	tagBy:     true,
	tagRe:     true,
	tagVe:     true,
}

// WriteOffset persists a new timing offset into an LRC file. An existing
// [offset:] line is replaced in place; extra [offset:] lines are collapsed
// into it so a re-parse always sees exactly one. When the file has no offset
// tag, one is inserted after the leading metadata block, before the first
// lyric line. All other lines are preserved byte-for-byte apart from
// line-ending normalization.
//
// The file is rewritten through a temp file and an atomic rename, so a crash
// mid-write cannot truncate the original.
func WriteOffset(path string, offsetMillis int64) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read lyrics file: %w", err)
	}

	normalized := strings.ReplaceAll(string(content), "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	trailingNewline := strings.HasSuffix(normalized, "\n")
	lines := strings.Split(normalized, "\n")
	if trailingNewline {
		lines = lines[:len(lines)-1]
	}

	offsetLine := fmt.Sprintf("[offset:%d]", offsetMillis)

	out := make([]string, 0, len(lines)+1)
	replaced := false
	for _, line := range lines {
		if offsetLineRe.MatchString(line) {
			if !replaced {
				out = append(out, offsetLine)
				replaced = true
			}
			continue
		}
		out = append(out, line)
	}

	if !replaced {
		insertAt := headerEnd(out)
		out = append(out[:insertAt], append([]string{offsetLine}, out[insertAt:]...)...)
	}

	result := strings.Join(out, "\n")
	if trailingNewline || len(content) == 0 {
		result += "\n"
	}

	if err := writeFileAtomic(path, result); err != nil {
		return fmt.Errorf("failed to write lyrics file: %w", err)
	}

	logger.Log.Info().
		Str("path", path).
		Int64("offset_ms", offsetMillis).
		Bool("replaced", replaced).
		Msg("Offset persisted to lyrics file")

	return nil
}

// headerEnd returns the index just past the last contiguous leading metadata
// tag, which is where a new offset line belongs.
func headerEnd(lines []string) int {
	end := 0
	for i, line := range lines {
		m := metaTagRe.FindStringSubmatch(line)
		if m == nil || !headerTags[strings.ToLower(m[1])] {
			break
		}
		end = i + 1
	}
	return end
}

// writeFileAtomic writes content to path via a temp file in the same
// directory followed by an atomic rename.
func writeFileAtomic(path string, content string) error {
	dir := filepath.Dir(path)

	tempFile, err := os.CreateTemp(dir, ".lrc-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	// Ensure cleanup on error
	defer func() {
		if tempFile != nil {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.WriteString(content); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Keep the original permissions; CreateTemp defaults to 0600
	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tempPath, info.Mode())
	}

	// Rename is atomic on POSIX systems
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	// Success - prevent cleanup
	tempFile = nil

	return nil
}
