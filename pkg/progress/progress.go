// pkg/progress/progress.go

package progress

import (
	"fmt"
	"sync"
	"time"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Update is one progress notification as sent to subscribers.
type Update struct {
	TaskID    string `json:"taskId"`
	Stage     string `json:"stage"`
	Progress  int    `json:"progress"`
	Message   string `json:"message"`
	Status    Status `json:"status"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Tracker follows one long-running task: a pipeline run or an export. Progress
// only moves forward within a stage, and subscribers never block the producer.
type Tracker struct {
	taskID     string
	stage      string
	progress   int
	message    string
	status     Status
	completed  int
	total      int
	startTime  time.Time
	updateTime time.Time
	subs       map[chan Update]struct{}
	done       chan struct{}
	mu         sync.Mutex
}

// Service owns the trackers of every live task.
type Service struct {
	trackers map[string]*Tracker
	mu       sync.RWMutex
}

func NewService() *Service {
	return &Service{trackers: make(map[string]*Tracker)}
}

// CreateTracker returns the tracker for taskID, creating it if needed.
func (s *Service) CreateTracker(taskID string) *Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tracker, ok := s.trackers[taskID]; ok {
		return tracker
	}
	now := time.Now()
	tracker := &Tracker{
		taskID:     taskID,
		message:    "queued",
		status:     StatusRunning,
		startTime:  now,
		updateTime: now,
		subs:       make(map[chan Update]struct{}),
		done:       make(chan struct{}),
	}
	s.trackers[taskID] = tracker
	return tracker
}

func (s *Service) GetTracker(taskID string) (*Tracker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tracker, ok := s.trackers[taskID]
	return tracker, ok
}

func (s *Service) Remove(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trackers, taskID)
}

// CleanupFinished drops trackers that finished more than maxAge ago.
func (s *Service) CleanupFinished(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := time.Now()
	for id, tracker := range s.trackers {
		tracker.mu.Lock()
		finished := tracker.status != StatusRunning
		old := now.Sub(tracker.updateTime) >= maxAge
		tracker.mu.Unlock()
		if finished && old {
			delete(s.trackers, id)
			removed++
		}
	}
	return removed
}

// Start opens a new stage. A finished tracker is reopened so that follow-up
// work, such as a video wave after completion, reports on the same task.
func (t *Tracker) Start(stage, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusRunning {
		t.done = make(chan struct{})
	}
	t.status = StatusRunning
	t.stage = stage
	t.progress = 0
	t.completed = 0
	t.total = 0
	t.message = message
	t.broadcastLocked()
}

// Update raises progress to p (never lowers it) and replaces the message when one is given.
func (t *Tracker) Update(p int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p > 100 {
		p = 100
	}
	if p > t.progress {
		t.progress = p
	}
	if message != "" {
		t.message = message
	}
	t.broadcastLocked()
}

// SetTotal sets how many jobs the current stage has to finish.
func (t *Tracker) SetTotal(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = total
	t.broadcastLocked()
}

// Increment counts one finished job, successful or not, and reports whether
// the counter just reached its total.
func (t *Tracker) Increment(message string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.total > 0 && t.completed >= t.total {
		return false
	}
	t.completed++
	if t.total > 0 {
		if p := t.completed * 100 / t.total; p > t.progress {
			t.progress = p
		}
	}
	if message != "" {
		t.message = message
	}
	t.broadcastLocked()
	return t.total > 0 && t.completed == t.total
}

// Complete marks the task done at 100%.
func (t *Tracker) Complete(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusRunning {
		return
	}
	t.progress = 100
	if message == "" {
		message = "completed"
	}
	t.message = message
	t.status = StatusCompleted
	t.broadcastLocked()
	close(t.done)
}

// Fail marks the task failed. Progress stays where it was.
func (t *Tracker) Fail(errorMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusRunning {
		return
	}
	t.message = fmt.Sprintf("failed: %s", errorMsg)
	t.status = StatusFailed
	t.broadcastLocked()
	close(t.done)
}

// Current returns the tracker's state without subscribing.
func (t *Tracker) Current() Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Done is closed when the current stage completes or fails.
func (t *Tracker) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Subscribe returns a channel primed with the current state and a function
// that ends the subscription.
func (t *Tracker) Subscribe() (<-chan Update, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan Update, 10)
	ch <- t.snapshotLocked()
	t.subs[ch] = struct{}{}

	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.subs[ch]; ok {
			delete(t.subs, ch)
			close(ch)
		}
	}
}

func (t *Tracker) snapshotLocked() Update {
	return Update{
		TaskID:    t.taskID,
		Stage:     t.stage,
		Progress:  t.progress,
		Message:   t.message,
		Status:    t.status,
		Completed: t.completed,
		Total:     t.total,
	}
}

func (t *Tracker) broadcastLocked() {
	t.updateTime = time.Now()
	update := t.snapshotLocked()
	for ch := range t.subs {
		select {
		case ch <- update:
		default:
		}
	}
}
