package save

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"flowbuilder/application/ports"
)

// SystemScheduler schedules callbacks on the runtime timer
type SystemScheduler struct{}

// AfterFunc wraps time.AfterFunc
func (SystemScheduler) AfterFunc(d time.Duration, f func()) ports.Timer {
	return time.AfterFunc(d, f)
}

// Notifier holds at most one transient notification and clears it after
// a fixed TTL. Publishing a new notification cancels the pending expiry of
// the previous one, and a generation counter stops a timer that already
// fired from clearing a newer message.
type Notifier struct {
	mu         sync.Mutex
	scheduler  ports.Scheduler
	ttl        time.Duration
	now        func() time.Time
	logger     *zap.Logger
	sinks      []ports.NotificationSink
	current    *ports.Notification
	timer      ports.Timer
	generation uint64
}

// NewNotifier creates a notifier
func NewNotifier(scheduler ports.Scheduler, ttl time.Duration, logger *zap.Logger) *Notifier {
	if scheduler == nil {
		scheduler = SystemScheduler{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		scheduler: scheduler,
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
	}
}

// AddSink registers a sink that is told about every change
func (n *Notifier) AddSink(sink ports.NotificationSink) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sinks = append(n.sinks, sink)
}

// Publish replaces the current notification and restarts the expiry timer
func (n *Notifier) Publish(ctx context.Context, success bool, message string) ports.Notification {
	n.mu.Lock()

	if n.timer != nil {
		n.timer.Stop()
	}
	n.generation++
	gen := n.generation

	issuedAt := n.now()
	note := ports.Notification{
		Success:   success,
		Message:   message,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(n.ttl),
	}
	n.current = &note
	n.timer = n.scheduler.AfterFunc(n.ttl, func() { n.expire(gen) })
	sinks := append([]ports.NotificationSink(nil), n.sinks...)

	n.mu.Unlock()

	n.logger.Debug("Notification published",
		zap.Bool("success", success),
		zap.String("message", message),
		zap.Uint64("generation", gen),
	)
	for _, sink := range sinks {
		sink.NotificationPublished(ctx, note)
	}
	return note
}

// Current returns the notification on display, if any
func (n *Notifier) Current() (ports.Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return ports.Notification{}, false
	}
	return *n.current, true
}

// Dismiss clears the notification before its TTL
func (n *Notifier) Dismiss(ctx context.Context) {
	n.mu.Lock()
	if n.current == nil {
		n.mu.Unlock()
		return
	}
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.generation++
	n.current = nil
	sinks := append([]ports.NotificationSink(nil), n.sinks...)
	n.mu.Unlock()

	for _, sink := range sinks {
		sink.NotificationCleared(ctx)
	}
}

// TTL returns how long notifications stay visible
func (n *Notifier) TTL() time.Duration {
	return n.ttl
}

func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	if gen != n.generation || n.current == nil {
		n.mu.Unlock()
		return
	}
	n.current = nil
	n.timer = nil
	sinks := append([]ports.NotificationSink(nil), n.sinks...)
	n.mu.Unlock()

	n.logger.Debug("Notification expired", zap.Uint64("generation", gen))
	for _, sink := range sinks {
		sink.NotificationCleared(context.Background())
	}
}
