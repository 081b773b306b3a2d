package live

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when subscribing to a broker that was shut down.
var ErrClosed = errors.New("broker is shut down")

// subscriptionBuffer is the number of events a slow subscriber may lag
// behind before events are dropped for it.
const subscriptionBuffer = 64

// Broker fans events out to topic subscribers.
type Broker struct {
	subscribers map[string]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	dropped     atomic.Int64
}

// Subscription represents a subscription to a topic
type Subscription struct {
	topic     string
	channel   chan Event
	b         *Broker
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewBroker creates a new Broker instance
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
	}
}

// Subscribe creates a new subscription to a topic. The subscription ends
// when ctx is cancelled, Unsubscribe is called or the broker shuts down.
func (b *Broker) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return nil, ErrClosed
	}
	b.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan Event, subscriptionBuffer),
		b:       b,
		cancel:  cancel,
	}

	b.mu.Lock()
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[*Subscription]bool)
	}
	b.subscribers[topic][sub] = true
	b.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-b.shutdown:
		}
	}()

	return sub, nil
}

// Publish delivers ev to the subscribers of ev.Graph and of TopicAll.
// Sends never block; a full subscriber misses the event.
func (b *Broker) Publish(ev Event) int {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return 0
	}
	b.shutdownMu.Unlock()

	b.mu.RLock()
	var subs []*Subscription
	for sub := range b.subscribers[TopicAll] {
		subs = append(subs, sub)
	}
	if ev.Graph != "" && ev.Graph != TopicAll {
		for sub := range b.subscribers[ev.Graph] {
			subs = append(subs, sub)
		}
	}
	b.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if sub.send(ev) {
			delivered++
		} else {
			b.dropped.Add(1)
		}
	}
	return delivered
}

// Subscribers returns the number of subscribers for a topic
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Dropped returns how many deliveries were skipped because a subscriber
// was full.
func (b *Broker) Dropped() int64 {
	return b.dropped.Load()
}

// Shutdown closes all subscriptions and shuts down the Broker
func (b *Broker) Shutdown() {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.isShutdown = true
	b.shutdownMu.Unlock()

	close(b.shutdown)

	b.mu.Lock()
	for topic, subs := range b.subscribers {
		for sub := range subs {
			sub.close()
		}
		delete(b.subscribers, topic)
	}
	b.mu.Unlock()
}

// Events returns the subscription's event channel. It is closed when the
// subscription ends.
func (s *Subscription) Events() <-chan Event {
	return s.channel
}

// Unsubscribe removes the subscription
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.b.mu.Lock()
	if subs := s.b.subscribers[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.b.subscribers, s.topic)
		}
	}
	s.close()
	s.b.mu.Unlock()
}

// send runs under the read lock and close under the write lock, so a
// channel is never sent to after it is closed.
func (s *Subscription) send(ev Event) bool {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	if !s.b.subscribers[s.topic][s] {
		return false
	}
	select {
	case s.channel <- ev:
		return true
	default:
		return false
	}
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
