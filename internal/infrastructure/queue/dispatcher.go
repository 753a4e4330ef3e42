package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/trekkers/tour-client/internal/core/domain"
	"github.com/trekkers/tour-client/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ErrClosed is returned by Enqueue once Close has been called.
var ErrClosed = errors.New("queue: dispatcher closed")

// Result reports how a dispatched toggle settled.
type Result struct {
	State domain.ToggleState
	Err   error
}

// Dispatcher runs the network step of toggles on a fixed set of workers.
// Requests are routed by consistent hashing on the resource id, which keeps
// per-resource ordering.
type Dispatcher struct {
	workers []chan *domain.PendingToggle
	mutator ports.ToggleMutator
	log     zerolog.Logger
	results chan<- Result

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used. results may be nil.
func NewDispatcher(numWorkers int, mutator ports.ToggleMutator, results chan<- Result, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan *domain.PendingToggle, numWorkers),
		mutator: mutator,
		log:     log,
		results: results,
	}
	for i := range d.workers {
		d.workers[i] = make(chan *domain.PendingToggle, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers run until Close and drain
// their queues before exiting. Once ctx is cancelled, queued toggles are
// completed with it and settle as failures.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue applies the optimistic flip for resourceID right away and hands
// the network step to the worker responsible for it. The returned state is
// what the caller should render immediately. A toggle that is already in
// flight is ignored and nothing is queued.
func (d *Dispatcher) Enqueue(resourceID string) (domain.ToggleState, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return domain.ToggleState{ResourceID: resourceID}, ErrClosed
	}
	st, p, err := d.mutator.Begin(resourceID)
	if err != nil || p == nil {
		return st, err
	}
	d.workers[d.shardIndex(resourceID)] <- p
	return st, nil
}

// EnqueueBatch enqueues toggles for several resources in order.
func (d *Dispatcher) EnqueueBatch(resourceIDs []string) error {
	var errs []error
	for _, id := range resourceIDs {
		if _, err := d.Enqueue(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close stops accepting work and waits for queued toggles to settle.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// shardIndex maps a resource id deterministically to a worker index.
func (d *Dispatcher) shardIndex(resourceID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(resourceID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan *domain.PendingToggle) {
	defer d.wg.Done()
	// Every queued toggle already holds its optimistic state, so each one is
	// completed even after ctx is done.
	for p := range ch {
		st, err := d.mutator.Complete(ctx, p)
		if err != nil {
			d.log.Warn().Err(err).
				Str("tour_id", p.ResourceID).
				Int("worker_id", id).
				Msg("toggle did not apply")
		}
		if d.results != nil {
			d.results <- Result{State: st, Err: err}
		}
	}
}
