package lrc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvarner/canta/internal/logger"
	"github.com/mvarner/canta/internal/lyrics"
)

func TestMain(m *testing.M) {
	logger.Init("error", false)
	os.Exit(m.Run())
}

func writeTestLRC(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.lrc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseLyricsBasic(t *testing.T) {
	path := writeTestLRC(t, `[ti:Test Song]
[ar:Test Artist]
[00:00.00]First line
[00:05.50]Second line
[01:10.25]Third line
`)

	lines, offset, err := ParseLyrics(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), offset)

	require.Len(t, lines, 3)
	assert.Equal(t, lyrics.Line{TimeMillis: 0, Text: "First line"}, lines[0])
	assert.Equal(t, lyrics.Line{TimeMillis: 5500, Text: "Second line"}, lines[1])
	assert.Equal(t, lyrics.Line{TimeMillis: 70250, Text: "Third line"}, lines[2])
}

func TestParseLyricsFractionDigits(t *testing.T) {
	path := writeTestLRC(t, `[00:01.50]two digits are centiseconds
[00:02.500]three digits are milliseconds
`)

	lines, _, err := ParseLyrics(path)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1500), lines[0].TimeMillis)
	assert.Equal(t, int64(2500), lines[1].TimeMillis)
}

func TestParseLyricsRepeatedTimestamps(t *testing.T) {
	path := writeTestLRC(t, `[00:10.00][00:30.00][00:50.00]Repeated chorus line
[00:20.00]Verse line
`)

	lines, _, err := ParseLyrics(path)
	require.NoError(t, err)
	require.Len(t, lines, 4)

	// One lyric line per tag, all with the same text, sorted into place.
	assert.Equal(t, lyrics.Line{TimeMillis: 10000, Text: "Repeated chorus line"}, lines[0])
	assert.Equal(t, lyrics.Line{TimeMillis: 20000, Text: "Verse line"}, lines[1])
	assert.Equal(t, lyrics.Line{TimeMillis: 30000, Text: "Repeated chorus line"}, lines[2])
	assert.Equal(t, lyrics.Line{TimeMillis: 50000, Text: "Repeated chorus line"}, lines[3])
}

func TestParseLyricsEmptyTextLines(t *testing.T) {
	path := writeTestLRC(t, `[00:01.00]Before the break
[00:05.00]
[00:09.00]After the break
`)

	lines, _, err := ParseLyrics(path)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "", lines[1].Text)
}

func TestParseLyricsOffsetTag(t *testing.T) {
	path := writeTestLRC(t, `[offset:250]
[00:01.00]Line
`)

	_, offset, err := ParseLyrics(path)
	require.NoError(t, err)
	assert.Equal(t, int64(250), offset)
}

func TestParseLyricsNegativeOffset(t *testing.T) {
	path := writeTestLRC(t, `[offset:-300]
[00:01.00]Line
`)

	_, offset, err := ParseLyrics(path)
	require.NoError(t, err)
	assert.Equal(t, int64(-300), offset)
}

func TestParseLyricsLastOffsetWins(t *testing.T) {
	path := writeTestLRC(t, `[offset:100]
[00:01.00]Line
[offset:700]
`)

	_, offset, err := ParseLyrics(path)
	require.NoError(t, err)
	assert.Equal(t, int64(700), offset)
}

func TestParseLyricsSkipsMalformedLines(t *testing.T) {
	path := writeTestLRC(t, `[00:01.00]Good line
not a lyric line at all
[99:99]broken timestamp
[offset:abc]
[00:02.00]Another good line
`)

	lines, offset, err := ParseLyrics(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), offset)
	require.Len(t, lines, 2)
	assert.Equal(t, "Good line", lines[0].Text)
	assert.Equal(t, "Another good line", lines[1].Text)
}

func TestParseLyricsMetadataTagsAreCaseInsensitive(t *testing.T) {
	path := writeTestLRC(t, `[TI:Title]
[OFFSET:150]
[00:01.00]Line
`)

	lines, offset, err := ParseLyrics(path)
	require.NoError(t, err)
	assert.Equal(t, int64(150), offset)
	assert.Len(t, lines, 1)
}

func TestParseLyricsHandlesBOMAndCRLF(t *testing.T) {
	path := writeTestLRC(t, "\uFEFF[ti:Title]\r\n[00:01.00]Windows line\r\n")

	lines, _, err := ParseLyrics(path)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Windows line", lines[0].Text)
}

func TestParseLyricsSkipsBlankLines(t *testing.T) {
	path := writeTestLRC(t, `[00:01.00]One

[00:02.00]Two

`)

	lines, _, err := ParseLyrics(path)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestParseLyricsOutOfOrderTimestampsAreSorted(t *testing.T) {
	path := writeTestLRC(t, `[00:30.00]Later
[00:10.00]Earlier
[00:20.00]Middle
`)

	lines, _, err := ParseLyrics(path)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "Earlier", lines[0].Text)
	assert.Equal(t, "Middle", lines[1].Text)
	assert.Equal(t, "Later", lines[2].Text)
}

func TestParseLyricsMissingFile(t *testing.T) {
	_, _, err := ParseLyrics(filepath.Join(t.TempDir(), "missing.lrc"))
	assert.Error(t, err)
}

func TestParseMetadata(t *testing.T) {
	path := writeTestLRC(t, `[ti:My Song]
[ar:My Artist]
[al:My Album]
[genre:Pop]
[length:03:45.50]
[offset:200]
[00:01.00]Lyric line
`)

	md, err := ParseMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, "My Song", md.Title)
	assert.Equal(t, "My Artist", md.Artist)
	assert.Equal(t, "My Album", md.Album)
	assert.Equal(t, "Pop", md.Genre)
	assert.Equal(t, int64(225500), md.DurationMillis)
	assert.Equal(t, int64(200), md.OffsetMillis)
}

func TestParseMetadataLengthWithoutFraction(t *testing.T) {
	path := writeTestLRC(t, `[length:02:30]
`)

	md, err := ParseMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), md.DurationMillis)
}

func TestParseMetadataAbsentTagsZeroValued(t *testing.T) {
	path := writeTestLRC(t, `[00:01.00]Only lyrics
`)

	md, err := ParseMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, Metadata{}, md)
}

func TestParseMetadataInvalidLengthSkipped(t *testing.T) {
	path := writeTestLRC(t, `[ti:Still parsed]
[length:nonsense]
`)

	md, err := ParseMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, "Still parsed", md.Title)
	assert.Equal(t, int64(0), md.DurationMillis)
}
