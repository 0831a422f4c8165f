// ABOUTME: Ordered event delivery
// ABOUTME: Runs host callbacks on one goroutine, in emission order, outside the engine lock
package engine

import "sync"

// dispatcher delivers queued callbacks one at a time on its own goroutine
type dispatcher struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

// post queues fn. It reports false once the dispatcher is closed.
func (d *dispatcher) post(fn func()) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// flush blocks until everything queued before the call has run.
// It must not be called from a callback.
func (d *dispatcher) flush() {
	ch := make(chan struct{})
	if !d.post(func() { close(ch) }) {
		return
	}
	select {
	case <-ch:
	case <-d.done:
	}
}

// close drops queued callbacks and stops the goroutine
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.queue = nil
	d.mu.Unlock()
	close(d.done)
}

func (d *dispatcher) run() {
	for {
		select {
		case <-d.wake:
		case <-d.done:
			return
		}

		for {
			d.mu.Lock()
			if d.closed || len(d.queue) == 0 {
				d.mu.Unlock()
				break
			}
			fn := d.queue[0]
			d.queue[0] = nil
			d.queue = d.queue[1:]
			d.mu.Unlock()

			fn()
		}
	}
}
