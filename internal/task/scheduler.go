package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/events"
)

// dueLister is the slice of the capsule store the scheduler needs.
type dueLister interface {
	ListDue(ctx context.Context, due time.Time, limit int) ([]*domain.Capsule, error)
}

// DeliverySchedulerConfig holds configuration for the delivery scheduler.
type DeliverySchedulerConfig struct {
	// Interval is how often the scheduler polls for due capsules.
	Interval time.Duration

	// BatchLimit caps how many due capsules one poll picks up.
	BatchLimit int

	// EnqueueTTL is how long a capsule stays in the dedup set after being
	// enqueued. It must outlast the worst case delivery time including
	// retries, or the scheduler would enqueue the same capsule twice.
	EnqueueTTL time.Duration
}

// DefaultDeliverySchedulerConfig returns a config with reasonable defaults.
func DefaultDeliverySchedulerConfig() DeliverySchedulerConfig {
	return DeliverySchedulerConfig{
		Interval:   30 * time.Second,
		BatchLimit: 50,
		EnqueueTTL: 15 * time.Minute,
	}
}

// DeliveryScheduler polls for capsules whose delivery time has arrived and
// emits a delivery request event for each. Delivered capsules drop out of
// the due query, so the dedup set only has to cover the window between
// enqueueing a task and the task marking the capsule delivered.
type DeliveryScheduler struct {
	capsules   dueLister
	emitter    events.EventEmitter
	config     DeliverySchedulerConfig
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	mu       sync.Mutex
	enqueued map[uuid.UUID]time.Time
}

// NewDeliveryScheduler creates a scheduler. Call Start to begin polling.
func NewDeliveryScheduler(capsules dueLister, emitter events.EventEmitter, config DeliverySchedulerConfig, logger *slog.Logger) *DeliveryScheduler {
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	if config.BatchLimit <= 0 {
		config.BatchLimit = 50
	}
	if config.EnqueueTTL <= 0 {
		config.EnqueueTTL = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DeliveryScheduler{
		capsules: capsules,
		emitter:  emitter,
		config:   config,
		logger:   logger.With(slog.String("component", "delivery_scheduler")),
		enqueued: make(map[uuid.UUID]time.Time),
	}
}

// Start launches the polling loop in a background goroutine.
func (s *DeliveryScheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelFunc = cancel

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop halts polling and waits for the loop to exit.
func (s *DeliveryScheduler) Stop() {
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.wg.Wait()
}

func (s *DeliveryScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.logger.Info("delivery scheduler started", "interval", s.config.Interval.String())

	// Poll once at startup so capsules that came due while the process
	// was down are not delayed by a full interval.
	s.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("delivery scheduler stopped")
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// poll finds due capsules and emits one delivery request event per capsule
// not already enqueued.
func (s *DeliveryScheduler) poll(ctx context.Context) {
	now := time.Now().UTC()
	s.pruneEnqueued(now)

	due, err := s.capsules.ListDue(ctx, now, s.config.BatchLimit)
	if err != nil {
		s.logger.Error("failed to list due capsules", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	for _, capsule := range due {
		if !s.markEnqueued(capsule.ID, now) {
			continue
		}

		event, err := events.NewTaskRequestEvent(TaskTypeCapsuleDelivery, map[string]string{
			"capsule_id": capsule.ID.String(),
		})
		if err != nil {
			s.logger.Error("failed to build delivery event",
				"capsule_id", capsule.ID,
				"error", err)
			s.unmarkEnqueued(capsule.ID)
			continue
		}

		if err := s.emitter.EmitEvent(ctx, event); err != nil {
			s.logger.Error("failed to emit delivery event",
				"capsule_id", capsule.ID,
				"error", err)
			s.unmarkEnqueued(capsule.ID)
			continue
		}

		s.logger.Info("scheduled capsule delivery",
			"capsule_id", capsule.ID,
			"delivery_at", capsule.DeliveryAt)
	}
}

// markEnqueued records the capsule in the dedup set. It reports false if the
// capsule was already enqueued within the TTL.
func (s *DeliveryScheduler) markEnqueued(id uuid.UUID, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.enqueued[id]; exists {
		return false
	}
	s.enqueued[id] = now
	return true
}

func (s *DeliveryScheduler) unmarkEnqueued(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.enqueued, id)
}

func (s *DeliveryScheduler) pruneEnqueued(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, at := range s.enqueued {
		if now.Sub(at) > s.config.EnqueueTTL {
			delete(s.enqueued, id)
		}
	}
}
