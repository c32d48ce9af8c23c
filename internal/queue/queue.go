// Package queue provides the FIFO of songs waiting to be played.
package queue

import "github.com/mvarner/canta/internal/models"

// Queue is an ordered FIFO of pending songs. Insertion order is the only
// ordering guarantee and duplicate entries are allowed.
//
// The queue is confined to the engine's coordination goroutine and carries no
// locking of its own.
type Queue struct {
	songs []models.Song
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue appends a song to the back of the queue.
func (q *Queue) Enqueue(song models.Song) {
	q.songs = append(q.songs, song)
}

// EnqueueAll appends the given songs in order.
func (q *Queue) EnqueueAll(songs []models.Song) {
	q.songs = append(q.songs, songs...)
}

// DequeueNext removes and returns the front of the queue. The second return
// value is false when the queue is empty.
func (q *Queue) DequeueNext() (models.Song, bool) {
	if len(q.songs) == 0 {
		return models.Song{}, false
	}
	next := q.songs[0]
	q.songs = q.songs[1:]
	return next, true
}

// Peek returns up to n songs from the front of the queue without removing
// them, front to back.
func (q *Queue) Peek(n int) []models.Song {
	if n > len(q.songs) {
		n = len(q.songs)
	}
	if n <= 0 {
		return nil
	}
	peeked := make([]models.Song, n)
	copy(peeked, q.songs[:n])
	return peeked
}

// Size returns the number of queued songs.
func (q *Queue) Size() int {
	return len(q.songs)
}

// IsEmpty reports whether the queue holds no songs.
func (q *Queue) IsEmpty() bool {
	return len(q.songs) == 0
}

// Clear removes all queued songs.
func (q *Queue) Clear() {
	q.songs = nil
}
