// Package lyrics provides the time-indexed lyric track used to synchronize
// displayed lines with playback position.
package lyrics

import "sort"

// Line is a single timestamped lyric line. Text may be empty; several lines
// may share a timestamp.
type Line struct {
	TimeMillis int64
	Text       string
}

// Slot is one display-window position. Valid is false when no line exists at
// that position.
type Slot struct {
	Line  Line
	Valid bool
}

// Window holds the four lyric lines surrounding the current playback
// position: the previous line, the current one, the next one, and the one
// after that.
type Window struct {
	Previous Slot
	Current  Slot
	Next     Slot
	After    Slot
}

// Equal reports whether two windows are element-wise identical, treating
// absent slots as equal to each other.
func (w Window) Equal(other Window) bool {
	return w == other
}

// Timeline is an immutable, timestamp-sorted sequence of lyric lines.
// A new song produces a new Timeline; an existing one is never mutated.
type Timeline struct {
	lines []Line
}

// NewTimeline builds a timeline from the given lines. The input is copied and
// stable-sorted by timestamp, so lines sharing a timestamp keep their
// original relative order.
func NewTimeline(lines []Line) *Timeline {
	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimeMillis < sorted[j].TimeMillis
	})
	return &Timeline{lines: sorted}
}

// Len returns the number of lines in the timeline.
func (t *Timeline) Len() int {
	return len(t.lines)
}

// Line returns the line at index i. The index must be in range.
func (t *Timeline) Line(i int) Line {
	return t.lines[i]
}

// IndexAt returns the index of the line active at the given playback time
// under the given effective offset: the largest i such that
// lines[i].TimeMillis + offsetMillis <= timeMillis. The second return value
// is false when the time precedes the first line or the timeline is empty.
//
// The offset is a constant shift over a sorted sequence, so the lookup is a
// floor search over a monotonic key.
func (t *Timeline) IndexAt(timeMillis, offsetMillis int64) (int, bool) {
	n := sort.Search(len(t.lines), func(i int) bool {
		return t.lines[i].TimeMillis+offsetMillis > timeMillis
	})
	if n == 0 {
		return 0, false
	}
	return n - 1, true
}

// WindowAt returns the display window for the given playback time and
// effective offset. Slots are (index-1, index, index+1, index+2) relative to
// IndexAt; every slot is absent when there is no active line.
func (t *Timeline) WindowAt(timeMillis, offsetMillis int64) Window {
	idx, ok := t.IndexAt(timeMillis, offsetMillis)
	if !ok {
		return Window{}
	}
	return Window{
		Previous: t.slot(idx - 1),
		Current:  t.slot(idx),
		Next:     t.slot(idx + 1),
		After:    t.slot(idx + 2),
	}
}

// slot returns the slot for index i, absent when i is out of range.
func (t *Timeline) slot(i int) Slot {
	if i < 0 || i >= len(t.lines) {
		return Slot{}
	}
	return Slot{Line: t.lines[i], Valid: true}
}
