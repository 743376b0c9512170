package app

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/simonkochhh-source/vacation-planner-sub005/internal/adapters/observability"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
)

const (
	opReorder     = "reorder"
	opUpdateDates = "update_dates"
)

type persistJob struct {
	tripID string
	op     string
	run    func(ctx context.Context) error
}

// Dispatcher hands reorder results to the persistence gateway in the
// background. Calls for one trip always land on the same worker, so the
// gateway sees them in the order they were submitted. Failures are logged
// and counted; nothing is retried and nothing is rolled back.
type Dispatcher struct {
	gw      domain.PersistenceGateway
	timeout time.Duration
	queues  []chan persistJob
	g       errgroup.Group

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(gw domain.PersistenceGateway, workers, queueSize int, timeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	d := &Dispatcher{gw: gw, timeout: timeout, queues: make([]chan persistJob, workers)}
	for i := range d.queues {
		q := make(chan persistJob, queueSize)
		d.queues[i] = q
		d.g.Go(func() error {
			d.work(q)
			return nil
		})
	}
	return d
}

func (d *Dispatcher) Reorder(tripID string, order []string) bool {
	order = append([]string(nil), order...)
	return d.enqueue(persistJob{tripID: tripID, op: opReorder, run: func(ctx context.Context) error {
		return d.gw.Reorder(ctx, tripID, order)
	}})
}

func (d *Dispatcher) UpdateDates(tripID, destinationID string, span domain.DateSpan) bool {
	return d.enqueue(persistJob{tripID: tripID, op: opUpdateDates, run: func(ctx context.Context) error {
		return d.gw.UpdateDestinationDates(ctx, destinationID, span)
	}})
}

// Close stops accepting work and waits for queued calls to finish.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, q := range d.queues {
			close(q)
		}
	}
	d.mu.Unlock()
	return d.g.Wait()
}

func (d *Dispatcher) enqueue(j persistJob) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		log.Warn().Str("trip", j.tripID).Str("op", j.op).Msg("persistence dispatcher closed; call dropped")
		observability.ObservePersistDropped(j.op)
		return false
	}
	select {
	case d.queues[d.shard(j.tripID)] <- j:
		return true
	default:
		log.Error().Str("trip", j.tripID).Str("op", j.op).Msg("persistence queue full; call dropped")
		observability.ObservePersistDropped(j.op)
		return false
	}
}

func (d *Dispatcher) shard(tripID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tripID))
	return int(h.Sum32() % uint32(len(d.queues)))
}

func (d *Dispatcher) work(q <-chan persistJob) {
	for j := range q {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := j.run(ctx)
		cancel()
		observability.ObservePersist(j.op, err)
		if err != nil {
			log.Error().Err(err).Str("trip", j.tripID).Str("op", j.op).Str("error_type", observability.LabelErr(err)).Msg("background persistence failed")
			continue
		}
		log.Debug().Str("trip", j.tripID).Str("op", j.op).Msg("persisted")
	}
}
