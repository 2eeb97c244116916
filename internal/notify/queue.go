package notify

import (
	"container/list"
	"sync"
)

// Queue buffers notifications per tab so a reconnecting client can replay
// the ones it missed. Each tab gets its own bounded list so one tab's burst
// cannot evict another tab's notifications.
type Queue struct {
	mu      sync.RWMutex
	queues  map[string]*list.List
	maxSize int
	nextID  int64
}

// NewQueue creates a per-tab queue keeping at most maxSize entries per tab.
func NewQueue(maxSize int) *Queue {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &Queue{
		queues:  make(map[string]*list.List),
		maxSize: maxSize,
	}
}

// Enqueue stores n for tabID and returns it with its assigned event id.
func (q *Queue) Enqueue(tabID string, n Notification) Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextID++
	n.EventID = q.nextID
	n.TabID = tabID

	l, ok := q.queues[tabID]
	if !ok {
		l = list.New()
		q.queues[tabID] = l
	}
	l.PushBack(n)
	for l.Len() > q.maxSize {
		l.Remove(l.Front())
	}
	return n
}

// Since returns the tab's notifications with an event id after afterEventID.
func (q *Queue) Since(tabID string, afterEventID int64) []Notification {
	q.mu.RLock()
	defer q.mu.RUnlock()

	l, ok := q.queues[tabID]
	if !ok {
		return nil
	}
	var missed []Notification
	for e := l.Front(); e != nil; e = e.Next() {
		n := e.Value.(Notification)
		if n.EventID > afterEventID {
			missed = append(missed, n)
		}
	}
	return missed
}

// Prune drops a tab's queue.
func (q *Queue) Prune(tabID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.queues, tabID)
}
