package hub

import "github.com/keyduel/keyduel-backend/internal/types"

type queueEntry struct {
	username string
	outbox   chan types.ServerEvent
}

// waitQueue is the matchmaking holding pen: strict arrival order, no skill
// matching. Only the hub goroutine touches it.
type waitQueue struct {
	entries []queueEntry
}

func (q *waitQueue) len() int { return len(q.entries) }

func (q *waitQueue) contains(username string) bool {
	for _, e := range q.entries {
		if e.username == username {
			return true
		}
	}
	return false
}

func (q *waitQueue) enqueue(e queueEntry) {
	q.entries = append(q.entries, e)
}

// remove drops a waiter by name. Reports whether anything was removed.
func (q *waitQueue) remove(username string) bool {
	for i, e := range q.entries {
		if e.username == username {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// popPair removes and returns the two oldest waiters.
func (q *waitQueue) popPair() (first, second queueEntry, ok bool) {
	if len(q.entries) < 2 {
		return queueEntry{}, queueEntry{}, false
	}
	first, second = q.entries[0], q.entries[1]
	q.entries = q.entries[2:]
	return first, second, true
}
