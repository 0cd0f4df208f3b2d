// Package pipeline runs a pool of producer goroutines that keep a bounded
// queue of ready values topped up for consumers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultCapacity is the queue bound used when Options.Capacity is unset.
	DefaultCapacity = 1024
)

var (
	// ErrClosed is returned by Recv once the pipeline has stopped or its
	// workers have failed and the queue has drained.
	ErrClosed = errors.New("pipeline: closed")
	// ErrNotStarted is returned by Recv before Start has been called.
	ErrNotStarted = errors.New("pipeline: not started")
)

// Producer builds one value. Each worker owns its rng, so producers never
// share random state.
type Producer[T any] func(rng *rand.Rand) (T, error)

// Options configures a pipeline.
type Options struct {
	// Capacity bounds the number of produced-but-unconsumed values.
	Capacity int
	// Workers is the number of producer goroutines. 0 means GOMAXPROCS.
	Workers int
	// Seed derives the per-worker rngs. 0 seeds from the clock.
	Seed int64
}

// Pipeline is a bounded multi-producer, multi-consumer queue fed by a worker
// pool. Every produced value is delivered to exactly one Recv.
type Pipeline[T any] struct {
	produce Producer[T]
	opts    Options
	out     chan T

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	err     error // set before done is closed

	stopped   atomic.Bool
	produced  atomic.Int64
	received  atomic.Int64
	discarded atomic.Int64
}

// New creates a pipeline. Workers are not launched until Start.
func New[T any](produce Producer[T], opts Options) *Pipeline[T] {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	return &Pipeline[T]{
		produce: produce,
		opts:    opts,
		out:     make(chan T, opts.Capacity),
		done:    make(chan struct{}),
	}
}

// Start launches the workers. They run until ctx is cancelled, Stop is
// called, or a producer returns an error. Calling Start twice is a no-op.
func (p *Pipeline[T]) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.opts.Workers; i++ {
		rng := rand.New(rand.NewSource(p.opts.Seed + int64(i)*1_000_003))
		id := i
		g.Go(func() error {
			return p.work(gctx, id, rng)
		})
	}

	go func() {
		err := g.Wait()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		p.err = err
		close(p.done)
	}()
}

func (p *Pipeline[T]) work(ctx context.Context, id int, rng *rand.Rand) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		v, err := p.produce(rng)
		if err != nil {
			return fmt.Errorf("worker %d: %w", id, err)
		}
		select {
		case p.out <- v:
			p.produced.Add(1)
		case <-ctx.Done():
			return nil
		}
	}
}

// Recv blocks until a value is available. Buffered values are delivered
// before a worker failure is reported; once the queue is empty and the
// workers are gone Recv returns ErrClosed wrapping the failure, if any.
func (p *Pipeline[T]) Recv(ctx context.Context) (T, error) {
	var zero T

	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return zero, ErrNotStarted
	}
	if p.stopped.Load() {
		return zero, ErrClosed
	}

	select {
	case v := <-p.out:
		return p.deliver(v)
	default:
	}

	select {
	case v := <-p.out:
		return p.deliver(v)
	case <-p.done:
		// A worker may have sent just before the group finished.
		select {
		case v := <-p.out:
			return p.deliver(v)
		default:
		}
		if p.err != nil {
			return zero, fmt.Errorf("%w: %w", ErrClosed, p.err)
		}
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// deliver hands v to the caller unless Stop has begun, in which case v is
// dropped so nothing is delivered once Stop returns.
func (p *Pipeline[T]) deliver(v T) (T, error) {
	if p.stopped.Load() {
		p.discarded.Add(1)
		var zero T
		return zero, ErrClosed
	}
	p.received.Add(1)
	return v, nil
}

// Stop cancels the workers and waits for them to exit. Values still queued
// are discarded, and a Recv racing with Stop returns ErrClosed rather than a
// value. It returns the first producer error, if any.
func (p *Pipeline[T]) Stop() error {
	p.mu.Lock()
	if !p.started || p.stopped.Load() {
		p.mu.Unlock()
		return nil
	}
	p.stopped.Store(true)
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	<-p.done
	for len(p.out) > 0 {
		select {
		case <-p.out:
			p.discarded.Add(1)
		default:
		}
	}
	return p.err
}

// Err returns the producer failure once the workers have exited.
func (p *Pipeline[T]) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Len returns the number of queued values.
func (p *Pipeline[T]) Len() int {
	return len(p.out)
}

// Cap returns the queue bound.
func (p *Pipeline[T]) Cap() int {
	return cap(p.out)
}

// Produced returns the number of values that entered the queue.
func (p *Pipeline[T]) Produced() int64 {
	return p.produced.Load()
}

// Received returns the number of values handed to consumers.
func (p *Pipeline[T]) Received() int64 {
	return p.received.Load()
}

// Discarded returns the number of queued values dropped by Stop.
func (p *Pipeline[T]) Discarded() int64 {
	return p.discarded.Load()
}
