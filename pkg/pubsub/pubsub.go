// Package pubsub provides a basic publish/subscribe implementation.
package pubsub

import (
	"log/slog"
	"sync"
)

// Publisher sends each published value to all subscribed clients. Publishing
// is synchronous: Publish only returns once every subscriber has received the
// value, so subscribers always observe the latest published state.
type Publisher[T any] struct {
	clients   map[chan T]struct{}
	last      T
	published bool
	logger    *slog.Logger
	lock      sync.RWMutex
}

// New returns a new Publisher.
func New[T any](logger *slog.Logger) *Publisher[T] {
	return &Publisher[T]{
		clients: make(map[chan T]struct{}),
		logger:  logger,
	}
}

// Subscribe registers the caller and returns the channel on which it will
// receive published values.
func (p *Publisher[T]) Subscribe() chan T {
	p.lock.Lock()
	defer p.lock.Unlock()
	ch := make(chan T)
	p.clients[ch] = struct{}{}
	p.logger.Debug("subscriber added", slog.Int("subscribers", len(p.clients)))
	return ch
}

// Unsubscribe removes the registered client's channel.
func (p *Publisher[T]) Unsubscribe(ch chan T) {
	p.lock.Lock()
	defer p.lock.Unlock()
	delete(p.clients, ch)
	p.logger.Debug("subscriber removed", slog.Int("subscribers", len(p.clients)))
}

// Publish sends the value to all registered clients and records it as the
// last published value.
func (p *Publisher[T]) Publish(value T) {
	p.lock.Lock()
	p.last = value
	p.published = true
	clients := make([]chan T, 0, len(p.clients))
	for ch := range p.clients {
		clients = append(clients, ch)
	}
	p.lock.Unlock()

	for _, ch := range clients {
		ch <- value
	}
}

// Last returns the most recently published value. ok is false if nothing has
// been published yet.
func (p *Publisher[T]) Last() (value T, ok bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.last, p.published
}

// Subscribers returns the current number of subscribers.
func (p *Publisher[T]) Subscribers() int {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return len(p.clients)
}
