// Package events delivers the venue events of committed transactions to
// in-process hooks and websocket subscribers. Only successful state changes
// produce events; failures surface solely as result codes.
package events

import (
	"sync"

	"github.com/lumeforge/venued/internal/core/tx"
)

// Hook receives every published event.
type Hook func(ev tx.Event)

// Publisher fans committed events out to registered hooks. It implements
// tx.EventSink.
type Publisher struct {
	mu    sync.RWMutex
	hooks []Hook
}

// NewPublisher creates an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Subscribe registers a hook. Hooks run synchronously on the publishing
// goroutine and must not block.
func (p *Publisher) Subscribe(h Hook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, h)
}

// Publish implements tx.EventSink.
func (p *Publisher) Publish(ev tx.Event) {
	p.mu.RLock()
	hooks := p.hooks
	p.mu.RUnlock()

	for _, h := range hooks {
		h(ev)
	}
}
