package lrc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func countOffsetLines(content string) int {
	n := 0
	for _, line := range strings.Split(content, "\n") {
		if offsetLineRe.MatchString(line) {
			n++
		}
	}
	return n
}

func TestWriteOffsetReplacesExistingLine(t *testing.T) {
	path := writeTestLRC(t, `[ti:Song]
[offset:100]
[00:01.00]Line one
[00:02.00]Line two
`)

	require.NoError(t, WriteOffset(path, 350))

	content := readTestFile(t, path)
	assert.Equal(t, `[ti:Song]
[offset:350]
[00:01.00]Line one
[00:02.00]Line two
`, content)
}

func TestWriteOffsetInsertsAfterHeaderBlock(t *testing.T) {
	path := writeTestLRC(t, `[ti:Song]
[ar:Artist]
[al:Album]
[00:01.00]First lyric
`)

	require.NoError(t, WriteOffset(path, -250))

	content := readTestFile(t, path)
	assert.Equal(t, `[ti:Song]
[ar:Artist]
[al:Album]
[offset:-250]
[00:01.00]First lyric
`, content)
}

func TestWriteOffsetInsertsAtTopWithoutHeader(t *testing.T) {
	path := writeTestLRC(t, `[00:01.00]No metadata here
[00:02.00]Second line
`)

	require.NoError(t, WriteOffset(path, 500))

	content := readTestFile(t, path)
	assert.Equal(t, `[offset:500]
[00:01.00]No metadata here
[00:02.00]Second line
`, content)
}

func TestWriteOffsetCollapsesDuplicates(t *testing.T) {
	path := writeTestLRC(t, `[offset:100]
[00:01.00]Line
[offset:200]
[00:02.00]Another
[offset:300]
`)

	require.NoError(t, WriteOffset(path, 42))

	content := readTestFile(t, path)
	assert.Equal(t, 1, countOffsetLines(content))
	assert.Contains(t, content, "[offset:42]")
	assert.Contains(t, content, "[00:01.00]Line")
	assert.Contains(t, content, "[00:02.00]Another")
}

func TestWriteOffsetPreservesOtherLines(t *testing.T) {
	original := `[ti:Song]
[ar:Artist]
[offset:0]
[00:01.00]  spacing kept
[00:02.00][00:04.00]repeated tags kept
unrecognized junk line kept
`
	path := writeTestLRC(t, original)

	require.NoError(t, WriteOffset(path, 0))

	content := readTestFile(t, path)
	assert.Equal(t, original, content)
}

func TestWriteOffsetRoundTrip(t *testing.T) {
	path := writeTestLRC(t, `[ti:Song]
[00:01.00]Line
`)

	require.NoError(t, WriteOffset(path, 725))

	_, offset, err := ParseLyrics(path)
	require.NoError(t, err)
	assert.Equal(t, int64(725), offset)
}

func TestWriteOffsetSequentialWrites(t *testing.T) {
	path := writeTestLRC(t, `[ti:Song]
[ar:Artist]
[00:01.00]Line one
[00:02.00]Line two
`)

	require.NoError(t, WriteOffset(path, 100))
	require.NoError(t, WriteOffset(path, 999))

	content := readTestFile(t, path)
	assert.Equal(t, `[ti:Song]
[ar:Artist]
[offset:999]
[00:01.00]Line one
[00:02.00]Line two
`, content)

	_, offset, err := ParseLyrics(path)
	require.NoError(t, err)
	assert.Equal(t, int64(999), offset)
}

func TestWriteOffsetIdempotent(t *testing.T) {
	path := writeTestLRC(t, `[ti:Song]
[offset:100]
[00:01.00]Line
`)

	require.NoError(t, WriteOffset(path, 250))
	first := readTestFile(t, path)

	require.NoError(t, WriteOffset(path, 250))
	second := readTestFile(t, path)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, countOffsetLines(second))
}

func TestWriteOffsetNormalizesCRLF(t *testing.T) {
	path := writeTestLRC(t, "[ti:Song]\r\n[offset:5]\r\n[00:01.00]Line\r\n")

	require.NoError(t, WriteOffset(path, 10))

	content := readTestFile(t, path)
	assert.NotContains(t, content, "\r")
	assert.Contains(t, content, "[offset:10]\n")
}

func TestWriteOffsetNoTrailingNewlinePreserved(t *testing.T) {
	path := writeTestLRC(t, "[ti:Song]\n[offset:1]\n[00:01.00]Line")

	require.NoError(t, WriteOffset(path, 2))

	content := readTestFile(t, path)
	assert.False(t, strings.HasSuffix(content, "\n"))
	assert.Contains(t, content, "[offset:2]")
}

func TestWriteOffsetPreservesFileMode(t *testing.T) {
	path := writeTestLRC(t, "[00:01.00]Line\n")
	require.NoError(t, os.Chmod(path, 0640))

	require.NoError(t, WriteOffset(path, 5))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())
}

func TestWriteOffsetMissingFile(t *testing.T) {
	err := WriteOffset(t.TempDir()+"/missing.lrc", 100)
	assert.Error(t, err)
}

func TestWriteOffsetLeavesNoTempFiles(t *testing.T) {
	path := writeTestLRC(t, "[00:01.00]Line\n")
	require.NoError(t, WriteOffset(path, 5))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "test.lrc", entries[0].Name())
}
