package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvarner/canta/internal/models"
)

func song(title string) models.Song {
	return *models.NewSong(title, "Test Artist", "/music/"+title+".mp3")
}

func TestQueueFIFOOrder(t *testing.T) {
	q := New()
	q.Enqueue(song("first"))
	q.Enqueue(song("second"))
	q.Enqueue(song("third"))

	assert.Equal(t, 3, q.Size())

	next, ok := q.DequeueNext()
	require.True(t, ok)
	assert.Equal(t, "first", next.Title)

	next, ok = q.DequeueNext()
	require.True(t, ok)
	assert.Equal(t, "second", next.Title)

	next, ok = q.DequeueNext()
	require.True(t, ok)
	assert.Equal(t, "third", next.Title)

	_, ok = q.DequeueNext()
	assert.False(t, ok)
	assert.True(t, q.IsEmpty())
}

func TestQueueDequeueEmpty(t *testing.T) {
	q := New()
	_, ok := q.DequeueNext()
	assert.False(t, ok)
}

func TestQueueAllowsDuplicates(t *testing.T) {
	q := New()
	s := song("encore")
	q.Enqueue(s)
	q.Enqueue(s)

	assert.Equal(t, 2, q.Size())

	first, _ := q.DequeueNext()
	second, _ := q.DequeueNext()
	assert.Equal(t, first.ID, second.ID)
}

func TestQueueEnqueueAll(t *testing.T) {
	q := New()
	q.EnqueueAll([]models.Song{song("a"), song("b")})
	q.Enqueue(song("c"))

	peeked := q.Peek(3)
	require.Len(t, peeked, 3)
	assert.Equal(t, "a", peeked[0].Title)
	assert.Equal(t, "b", peeked[1].Title)
	assert.Equal(t, "c", peeked[2].Title)
}

func TestQueuePeekDoesNotRemove(t *testing.T) {
	q := New()
	q.Enqueue(song("only"))

	peeked := q.Peek(5)
	require.Len(t, peeked, 1)
	assert.Equal(t, 1, q.Size())

	assert.Nil(t, q.Peek(0))
	assert.Nil(t, q.Peek(-1))
}

func TestQueueClear(t *testing.T) {
	q := New()
	q.EnqueueAll([]models.Song{song("a"), song("b")})

	q.Clear()
	assert.True(t, q.IsEmpty())
	assert.Equal(t, 0, q.Size())

	// Usable again after clearing.
	q.Enqueue(song("c"))
	next, ok := q.DequeueNext()
	require.True(t, ok)
	assert.Equal(t, "c", next.Title)
}
