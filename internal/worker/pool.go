// Package worker runs background tasks on a bounded pool. Every worker owns
// its own database connection and tasks are cancelled cooperatively.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/example/learnstate/internal/database"
)

// DefaultQueueSize is how many tasks may wait for a free worker
const DefaultQueueSize = 64

var (
	// ErrPoolClosed is returned by Submit after Close
	ErrPoolClosed = errors.New("worker: pool closed")
	// ErrQueueFull is returned by Submit when every queue slot is taken
	ErrQueueFull = errors.New("worker: queue full")
)

// Func is a unit of background work. It should check ctx between units of work
// and return ctx.Err() once cancelled.
type Func func(ctx context.Context, store *database.Store) error

// Task is the handle returned by Submit
type Task struct {
	ID   uuid.UUID
	Name string

	fn     Func
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Cancel asks the task to stop; a task already writing finishes that write
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed when the task has finished or was dropped
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes and returns its error
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

func (t *Task) finish(err error) {
	t.err = err
	t.cancel()
	close(t.done)
}

// Pool is a fixed set of workers pulling from a bounded queue
type Pool struct {
	target database.Target
	opts   database.Options

	ctx    context.Context
	cancel context.CancelFunc
	queue  chan *Task
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool starts size workers that connect to target
func NewPool(size int, target database.Target, opts database.Options) *Pool {
	if size <= 0 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		target: target,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan *Task, DefaultQueueSize),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	return p
}

// Submit queues fn and returns its handle
func (p *Pool) Submit(name string, fn Func) (*Task, error) {
	ctx, cancel := context.WithCancel(p.ctx)
	t := &Task{
		ID:     uuid.New(),
		Name:   name,
		fn:     fn,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		cancel()
		return nil, ErrPoolClosed
	}
	select {
	case p.queue <- t:
		return t, nil
	default:
		cancel()
		return nil, ErrQueueFull
	}
}

// Close cancels running and queued tasks and waits for the workers to exit
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cancel()
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	handles := database.NewHandles(p.opts)
	defer func() {
		if err := handles.Close(); err != nil {
			log.Printf("worker %d: failed to close connection: %v", id, err)
		}
	}()

	for t := range p.queue {
		if err := t.ctx.Err(); err != nil {
			t.finish(err)
			continue
		}
		store, err := handles.For(p.target)
		if err != nil {
			t.finish(fmt.Errorf("failed to open store for %s: %w", t.Name, err))
			continue
		}
		t.finish(p.execute(t, store))
	}
}

func (p *Pool) execute(t *Task, store *database.Store) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("worker: task %s (%s) panicked: %v", t.Name, t.ID, r)
			err = fmt.Errorf("task %s panicked: %v", t.Name, r)
		}
	}()
	return t.fn(t.ctx, store)
}
