package broadcast

import (
	"encoding/json"
	"fmt"
	"sync"

	"fan_controller/internal/logger"
	"fan_controller/internal/models"
)

// Subscriber receives serialized events. Send must be safe to call from
// the broadcasting goroutine while the subscriber's own goroutine runs.
type Subscriber interface {
	Send(payload []byte) error
}

// SubscriberGauge is notified whenever the number of subscribers changes.
type SubscriberGauge interface {
	SetSubscribers(n int)
}

type nopGauge struct{}

func (nopGauge) SetSubscribers(int) {}

// Broadcaster fans events out to every connected subscriber.
type Broadcaster struct {
	mu    sync.Mutex
	subs  map[Subscriber]struct{}
	log   *logger.Logger
	gauge SubscriberGauge
}

// New returns an empty broadcaster. log must not carry the log forwarding hook.
func New(log *logger.Logger, gauge SubscriberGauge) *Broadcaster {
	if gauge == nil {
		gauge = nopGauge{}
	}
	return &Broadcaster{
		subs:  make(map[Subscriber]struct{}),
		log:   log,
		gauge: gauge,
	}
}

// Connect adds s; connecting twice is a no-op.
func (b *Broadcaster) Connect(s Subscriber) {
	b.mu.Lock()
	b.subs[s] = struct{}{}
	n := len(b.subs)
	b.mu.Unlock()
	b.gauge.SetSubscribers(n)
}

// Disconnect removes s; unknown subscribers are ignored.
func (b *Broadcaster) Disconnect(s Subscriber) {
	b.mu.Lock()
	delete(b.subs, s)
	n := len(b.subs)
	b.mu.Unlock()
	b.gauge.SetSubscribers(n)
}

// Len returns the number of connected subscribers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Broadcast serializes ev once and delivers it to the subscribers present
// when the call started. Subscribers whose Send fails are removed afterwards.
func (b *Broadcaster) Broadcast(ev models.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}

	b.mu.Lock()
	targets := make([]Subscriber, 0, len(b.subs))
	for s := range b.subs {
		targets = append(targets, s)
	}
	b.mu.Unlock()

	var failed []Subscriber
	for _, s := range targets {
		if err := s.Send(payload); err != nil {
			failed = append(failed, s)
		}
	}

	if len(failed) > 0 {
		b.mu.Lock()
		for _, s := range failed {
			delete(b.subs, s)
		}
		n := len(b.subs)
		b.mu.Unlock()
		b.gauge.SetSubscribers(n)
		b.log.Debugw("subscribers_dropped", "count", len(failed), "remaining", n)
	}
	return nil
}
