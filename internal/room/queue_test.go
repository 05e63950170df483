package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchroom/server/internal/domain"
)

func newTestItem(id string) domain.QueueItem {
	return domain.QueueItem{
		Id:           id,
		Provider:     domain.ProviderURL,
		Locator:      "https://example.com/" + id,
		ScheduleKind: domain.ScheduleNone,
		CreatedAt:    time.Now().UTC(),
		AddedById:    "host",
	}
}

func newTestItemDue(id string, dueAt time.Time) domain.QueueItem {
	item := newTestItem(id)
	item.ScheduleKind = domain.ScheduleAbsolute
	item.DueAt = &dueAt

	return item
}

func assertDensePositions(t *testing.T, q *VideoQueue) {
	t.Helper()

	for i, item := range q.Videos() {
		assert.Equal(t, i, item.Position, "position of item %s", item.Id)
	}
}

func TestQueuePositionsStayDense(t *testing.T) {
	q := NewVideoQueue()

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		q.Append(newTestItem(id))
	}
	assertDensePositions(t, q)

	require.True(t, q.RemoveById("c"))
	assertDensePositions(t, q)
	assert.Equal(t, 4, q.Length())

	require.True(t, q.Reorder([]string{"e", "a", "d", "b"}))
	assertDensePositions(t, q)

	require.True(t, q.RemoveById("e"))
	require.True(t, q.RemoveById("b"))
	assertDensePositions(t, q)
	assert.Equal(t, 2, q.Length())
}

func TestRemoveBeforeCursorKeepsCurrentVideo(t *testing.T) {
	q := NewVideoQueue()
	q.Append(newTestItem("a"))
	q.Append(newTestItem("b"))
	q.Append(newTestItem("c"))

	_, ok := q.AdvanceToItem("b")
	require.True(t, ok)
	require.Equal(t, 1, q.CurrentIndex())

	require.True(t, q.RemoveById("a"))

	assert.Equal(t, 0, q.CurrentIndex())
	current, ok := q.CurrentVideo()
	require.True(t, ok)
	assert.Equal(t, "b", current.Id)
}

func TestRemoveCurrentVideoMovesCursorBack(t *testing.T) {
	q := NewVideoQueue()
	q.Append(newTestItem("a"))
	q.Append(newTestItem("b"))
	q.Append(newTestItem("c"))

	_, ok := q.AdvanceToItem("b")
	require.True(t, ok)

	require.True(t, q.RemoveById("b"))

	// the next advance plays the item that was right after the removed one
	assert.Equal(t, 0, q.CurrentIndex())
	next, ok := q.AdvanceToNext()
	require.True(t, ok)
	assert.Equal(t, "c", next.Id)
}

func TestRemoveOnlyVideoResetsCursor(t *testing.T) {
	q := NewVideoQueue()
	q.Append(newTestItem("a"))

	_, ok := q.AdvanceToNext()
	require.True(t, ok)
	require.Equal(t, 0, q.CurrentIndex())

	require.True(t, q.RemoveById("a"))
	assert.Equal(t, -1, q.CurrentIndex())
	assert.Equal(t, 0, q.Length())
}

func TestRemoveUnknownVideo(t *testing.T) {
	q := NewVideoQueue()
	q.Append(newTestItem("a"))

	assert.False(t, q.RemoveById("nope"))
	assert.Equal(t, 1, q.Length())
}

func TestReorderKeepsCurrentVideo(t *testing.T) {
	q := NewVideoQueue()
	q.Append(newTestItem("a"))
	q.Append(newTestItem("b"))
	q.Append(newTestItem("c"))

	_, ok := q.AdvanceToItem("b")
	require.True(t, ok)

	require.True(t, q.Reorder([]string{"c", "a", "b"}))

	assert.Equal(t, 2, q.CurrentIndex())
	current, ok := q.CurrentVideo()
	require.True(t, ok)
	assert.Equal(t, "b", current.Id)
	assertDensePositions(t, q)
}

func TestReorderRejected(t *testing.T) {
	q := NewVideoQueue()
	q.Append(newTestItem("a"))
	q.Append(newTestItem("b"))

	before := q.Videos()

	assert.False(t, q.Reorder([]string{"a"}), "shorter list must be rejected")
	assert.False(t, q.Reorder([]string{"a", "b", "c"}), "longer list must be rejected")
	assert.False(t, q.Reorder([]string{"a", "x"}), "unknown id must be rejected")
	assert.False(t, q.Reorder([]string{"a", "a"}), "duplicate id must be rejected")

	assert.Equal(t, before, q.Videos(), "queue must be unchanged after rejected reorder")
}

func TestDueItemsExcludesReachedPositions(t *testing.T) {
	q := NewVideoQueue()
	now := time.Now().UTC()

	q.Append(newTestItemDue("a", now.Add(-3*time.Minute)))
	q.Append(newTestItemDue("b", now.Add(-1*time.Minute)))
	q.Append(newTestItemDue("c", now.Add(-2*time.Minute)))
	q.Append(newTestItemDue("d", now.Add(time.Hour)))
	q.Append(newTestItem("e"))

	_, ok := q.AdvanceToItem("a")
	require.True(t, ok)

	due := q.DueItems(now)
	require.Len(t, due, 2)
	// ordered by due time ascending, position 0 excluded despite being past due
	assert.Equal(t, "c", due[0].Id)
	assert.Equal(t, "b", due[1].Id)
}

func TestDueItemsEmptyWhenNothingDue(t *testing.T) {
	q := NewVideoQueue()
	q.Append(newTestItem("a"))

	assert.Empty(t, q.DueItems(time.Now().UTC()))
}

func TestAdvanceToNext(t *testing.T) {
	q := NewVideoQueue()
	now := time.Now().UTC()

	q.Append(newTestItemDue("x", now))
	q.Append(newTestItem("y"))
	require.Equal(t, -1, q.CurrentIndex())

	current, ok := q.AdvanceToNext()
	require.True(t, ok)
	assert.Equal(t, "x", current.Id)
	assert.Equal(t, 0, q.CurrentIndex())

	require.True(t, q.RemoveById("y"))
	assert.Equal(t, 1, q.Length())
	assert.Equal(t, 0, q.CurrentIndex())

	_, ok = q.AdvanceToNext()
	assert.False(t, ok, "no further videos to advance to")
	assert.True(t, q.IsExhausted())
}

func TestAdvanceToItem(t *testing.T) {
	q := NewVideoQueue()
	q.Append(newTestItem("a"))
	q.Append(newTestItem("b"))
	q.Append(newTestItem("c"))

	current, ok := q.AdvanceToItem("c")
	require.True(t, ok)
	assert.Equal(t, "c", current.Id)
	assert.Equal(t, 2, q.CurrentIndex())
	assert.True(t, q.IsExhausted())

	_, ok = q.AdvanceToItem("nope")
	assert.False(t, ok)
	assert.Equal(t, 2, q.CurrentIndex())
}
