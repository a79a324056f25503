// Package reminder schedules timed REMINDER deliveries. A single worker owns
// a min-heap keyed by fire time and sleeps exactly until the next entry is
// due; inserts wake it so an earlier reminder is never missed.
package reminder

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/logging"
)

// idleWait bounds the sleep when the heap is empty so shutdown stays prompt
// even without a wake.
const idleWait = 60 * time.Second

// DeliverFunc is called (outside the heap lock) when a reminder fires. The
// target is either a bare userId or userId@serverId for cross-server
// reminders; routing is the caller's concern.
type DeliverFunc func(target, event string)

type entry struct {
	fireAt time.Time
	target string
	event  string
	seq    uint64
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].fireAt.Equal(h[j].fireAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].fireAt.Before(h[j].fireAt)
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(*entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler is the reminder worker.
type Scheduler struct {
	mu      sync.Mutex
	heap    entryHeap
	seq     uint64
	wake    chan struct{}
	deliver DeliverFunc
	logger  logging.Logger
	queued  prometheus.Gauge
}

// NewScheduler creates a scheduler delivering through the given callback.
// The gauge tracks queue depth and may be nil.
func NewScheduler(logger logging.Logger, queued prometheus.Gauge, deliver DeliverFunc) *Scheduler {
	return &Scheduler{
		wake:    make(chan struct{}, 1),
		deliver: deliver,
		logger:  logger,
		queued:  queued,
	}
}

// Schedule queues a reminder to fire after the countdown.
func (s *Scheduler) Schedule(target, event string, countdown time.Duration) {
	s.mu.Lock()
	s.seq++
	heap.Push(&s.heap, &entry{
		fireAt: time.Now().Add(countdown),
		target: target,
		event:  event,
		seq:    s.seq,
	})
	s.setGauge()
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}

	s.logger.WithFields(logging.Fields{
		"target":    target,
		"event":     event,
		"countdown": countdown,
	}).Info("Reminder scheduled")
}

// Len returns the number of queued reminders.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.heap)
}

// Run executes the worker loop until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		s.mu.Lock()
		wait := idleWait
		if len(s.heap) > 0 {
			next := s.heap[0]
			now := time.Now()
			if !next.fireAt.After(now) {
				e := heap.Pop(&s.heap).(*entry)
				s.setGauge()
				s.mu.Unlock()
				s.deliver(e.target, e.event)
				continue
			}
			wait = next.fireAt.Sub(now)
		}
		s.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (s *Scheduler) setGauge() {
	if s.queued != nil {
		s.queued.Set(float64(len(s.heap)))
	}
}
