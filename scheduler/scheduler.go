// Package scheduler runs delayed one-shot tasks such as ticket deletion and
// confirmation cleanup without blocking the event loop.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is delayed work. ctx is cancelled when the scheduler stops; a task
// that runs late must re-check that its target still exists.
type Task func(ctx context.Context) error

// Scheduler tracks pending tasks so they can be cancelled at shutdown.
type Scheduler struct {
	clock  Clock
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*Handle
	stopped bool
}

// Handle identifies one scheduled task.
type Handle struct {
	Name string
	At   time.Time

	s     *Scheduler
	id    uint64
	timer Timer
}

func New(clock Clock, logger *zap.Logger) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		clock:   clock,
		logger:  logger.Named("scheduler"),
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[uint64]*Handle),
	}
}

// Clock returns the scheduler's time source.
func (s *Scheduler) Clock() Clock { return s.clock }

// After runs task once d has elapsed. It returns nil if the scheduler is
// stopped. Task errors and panics are logged, never propagated.
func (s *Scheduler) After(name string, d time.Duration, task Task) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.logger.Debug("dropping task after stop", zap.String("task", name))
		return nil
	}

	s.nextID++
	h := &Handle{Name: name, At: s.clock.Now().Add(d), s: s, id: s.nextID}
	s.pending[h.id] = h
	h.timer = s.clock.AfterFunc(d, func() { s.run(h, task) })
	return h
}

func (s *Scheduler) run(h *Handle, task Task) {
	s.mu.Lock()
	_, ok := s.pending[h.id]
	delete(s.pending, h.id)
	s.mu.Unlock()
	if !ok || s.ctx.Err() != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked", zap.String("task", h.Name), zap.Any("panic", r))
		}
	}()
	if err := task(s.ctx); err != nil {
		s.logger.Warn("task failed", zap.String("task", h.Name), zap.Error(err))
		return
	}
	s.logger.Debug("task done", zap.String("task", h.Name))
}

// Cancel stops a pending task. It reports false if the task already ran.
func (h *Handle) Cancel() bool {
	if h == nil {
		return false
	}
	h.s.mu.Lock()
	_, ok := h.s.pending[h.id]
	delete(h.s.pending, h.id)
	h.s.mu.Unlock()
	if !ok {
		return false
	}
	h.timer.Stop()
	return true
}

// Pending reports how many tasks have not run yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every pending task and rejects new ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	handles := make([]*Handle, 0, len(s.pending))
	for _, h := range s.pending {
		handles = append(handles, h)
	}
	s.pending = map[uint64]*Handle{}
	s.mu.Unlock()

	s.cancel()
	for _, h := range handles {
		h.timer.Stop()
	}
	if len(handles) > 0 {
		s.logger.Info("cancelled pending tasks", zap.Int("count", len(handles)))
	}
}
