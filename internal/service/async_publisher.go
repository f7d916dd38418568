package service

import (
    "context"
    "errors"
    "log"
    "sync"
    "time"

    "github.com/iliyamo/attraction-registry/internal/queue"
)

var (
    // ErrPublisherClosed is returned by Publish after Close.
    ErrPublisherClosed = errors.New("event publisher closed")
    // ErrPublisherFull is returned when the buffer has no room left.
    ErrPublisherFull = errors.New("event buffer full")
)

// AsyncPublisher queues events and hands them to the wrapped publisher from a
// single goroutine, so they are delivered in the order Publish accepted them.
// Publish never waits on the broker.
type AsyncPublisher struct {
    next    EventPublisher
    timeout time.Duration
    events  chan queue.AttractionChangedEvent
    done    chan struct{}

    mu     sync.RWMutex
    closed bool
}

// NewAsyncPublisher starts the delivery goroutine.  buffer is the number of
// events that may wait for delivery and timeout bounds each delivery.
func NewAsyncPublisher(next EventPublisher, buffer int, timeout time.Duration) *AsyncPublisher {
    if buffer < 1 {
        buffer = 1
    }
    if timeout <= 0 {
        timeout = 5 * time.Second
    }
    p := &AsyncPublisher{
        next:    next,
        timeout: timeout,
        events:  make(chan queue.AttractionChangedEvent, buffer),
        done:    make(chan struct{}),
    }
    go p.run()
    return p
}

// Publish enqueues event.  It fails with ErrPublisherFull instead of blocking
// when the buffer is full.
func (p *AsyncPublisher) Publish(_ context.Context, event queue.AttractionChangedEvent) error {
    p.mu.RLock()
    defer p.mu.RUnlock()
    if p.closed {
        return ErrPublisherClosed
    }
    select {
    case p.events <- event:
        return nil
    default:
        return ErrPublisherFull
    }
}

// Close stops accepting events and waits until the queued ones have been
// handed on, or until ctx is done.
func (p *AsyncPublisher) Close(ctx context.Context) error {
    p.mu.Lock()
    if !p.closed {
        p.closed = true
        close(p.events)
    }
    p.mu.Unlock()

    select {
    case <-p.done:
        return nil
    case <-ctx.Done():
        return ctx.Err()
    }
}

func (p *AsyncPublisher) run() {
    defer close(p.done)
    for ev := range p.events {
        ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
        if err := p.next.Publish(ctx, ev); err != nil {
            log.Printf("attraction %s event %s not published: %v", ev.Action, ev.EventID, err)
        }
        cancel()
    }
}
