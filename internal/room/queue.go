package room

import (
	"sort"
	"sync"
	"time"

	"github.com/watchroom/server/internal/domain"
)

// VideoQueue is the position-ordered playlist of one room. Every read and
// mutation goes through the queue mutex so the invariants hold at all times:
// positions are a dense permutation of [0, len) and currentIndex is -1 or a
// valid position.
type VideoQueue struct {
	mu           sync.Mutex
	items        []domain.QueueItem
	currentIndex int
	autoAdvance  bool
}

func NewVideoQueue() *VideoQueue {
	return &VideoQueue{
		items:        make([]domain.QueueItem, 0),
		currentIndex: -1,
		autoAdvance:  true,
	}
}

func (q *VideoQueue) Length() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

func (q *VideoQueue) CurrentIndex() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.currentIndex
}

// CurrentVideo returns the item the cursor points at, if anything started.
func (q *VideoQueue) CurrentVideo() (domain.QueueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.currentIndex < 0 {
		return domain.QueueItem{}, false
	}

	return q.items[q.currentIndex], true
}

func (q *VideoQueue) AutoAdvance() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.autoAdvance
}

func (q *VideoQueue) SetAutoAdvance(autoAdvance bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.autoAdvance = autoAdvance
}

// Videos returns a copy of the item list in position order.
func (q *VideoQueue) Videos() []domain.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.videosLocked()
}

func (q *VideoQueue) videosLocked() []domain.QueueItem {
	videos := make([]domain.QueueItem, len(q.items))
	copy(videos, q.items)

	return videos
}

// Snapshot returns the item list, cursor and auto-advance flag as observed
// at one moment.
func (q *VideoQueue) Snapshot() ([]domain.QueueItem, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.videosLocked(), q.currentIndex, q.autoAdvance
}

// Append assigns the next position to the item and returns it as stored.
func (q *VideoQueue) Append(item domain.QueueItem) domain.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	item.Position = len(q.items)
	q.items = append(q.items, item)

	return item
}

// RemoveById removes the item and shifts every later item down by one to
// restore density. If the removed position was at or before the cursor, the
// cursor decrements so the same item (or, when the current item itself was
// removed, its successor on the next advance) stays reachable.
func (q *VideoQueue) RemoveById(itemId string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	index := -1
	for i, item := range q.items {
		if item.Id == itemId {
			index = i
			break
		}
	}
	if index == -1 {
		return false
	}

	q.items = append(q.items[:index], q.items[index+1:]...)
	for i := index; i < len(q.items); i++ {
		q.items[i].Position = i
	}

	if index <= q.currentIndex {
		q.currentIndex--
	}
	if q.currentIndex >= len(q.items) {
		q.currentIndex = len(q.items) - 1
	}

	return true
}

// Reorder reassigns positions per the given id order. The id list must be a
// permutation of exactly the current item set; otherwise the queue is left
// unchanged. The currently playing item keeps playing: the cursor is
// recomputed from its id after the reorder.
func (q *VideoQueue) Reorder(itemIds []string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(itemIds) != len(q.items) {
		return false
	}

	byId := make(map[string]domain.QueueItem, len(q.items))
	for _, item := range q.items {
		byId[item.Id] = item
	}

	currentId := ""
	if q.currentIndex >= 0 {
		currentId = q.items[q.currentIndex].Id
	}

	reordered := make([]domain.QueueItem, 0, len(itemIds))
	for i, id := range itemIds {
		item, ok := byId[id]
		if !ok {
			return false
		}
		delete(byId, id)

		item.Position = i
		reordered = append(reordered, item)
	}

	q.items = reordered
	if currentId != "" {
		for i, item := range q.items {
			if item.Id == currentId {
				q.currentIndex = i
				break
			}
		}
	}

	return true
}

// AdvanceToNext moves the cursor one position forward and returns the new
// current item, or false when the cursor is already at or past the end.
func (q *VideoQueue) AdvanceToNext() (domain.QueueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.currentIndex >= len(q.items)-1 {
		return domain.QueueItem{}, false
	}

	q.currentIndex++

	return q.items[q.currentIndex], true
}

// AdvanceToItem sets the cursor directly onto the given item. Used for
// host-initiated skips and scheduler-driven advancement.
func (q *VideoQueue) AdvanceToItem(itemId string) (domain.QueueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, item := range q.items {
		if item.Id == itemId {
			q.currentIndex = i
			return item, true
		}
	}

	return domain.QueueItem{}, false
}

// DueItems returns items whose absolute due time has passed and which the
// cursor has not yet reached, ordered by due time ascending. Advancing the
// cursor is the caller's separate step.
func (q *VideoQueue) DueItems(now time.Time) []domain.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	due := make([]domain.QueueItem, 0)
	for _, item := range q.items {
		if item.DueAt == nil || item.Position <= q.currentIndex {
			continue
		}
		if !item.DueAt.After(now) {
			due = append(due, item)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].DueAt.Before(*due[j].DueAt)
	})

	return due
}

// IsExhausted reports whether auto-advance has nothing further to play.
func (q *VideoQueue) IsExhausted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.currentIndex >= len(q.items)-1
}
