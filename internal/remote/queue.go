package remote

import (
	"sync"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
)

// queue holds the latest unsent value per characteristic. A key keeps the
// position of its first enqueue, so a burst of changes to one outlet
// publishes once while distinct keys publish in the order they changed.
type queue struct {
	mu      sync.Mutex
	order   []string
	pending map[string]characteristic.Value
	ready   chan struct{}
}

func newQueue() *queue {
	return &queue{
		pending: make(map[string]characteristic.Value),
		ready:   make(chan struct{}, 1),
	}
}

// push never blocks.
func (q *queue) push(id string, v characteristic.Value) {
	q.mu.Lock()
	if _, ok := q.pending[id]; !ok {
		q.order = append(q.order, id)
	}
	q.pending[id] = v
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// drain empties the queue and returns its contents in order.
func (q *queue) drain() []characteristic.Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.order) == 0 {
		return nil
	}
	out := make([]characteristic.Snapshot, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, characteristic.Snapshot{ID: id, Value: q.pending[id]})
	}
	q.order = nil
	q.pending = make(map[string]characteristic.Value)
	return out
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}
