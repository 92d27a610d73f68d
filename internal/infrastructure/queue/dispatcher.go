package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gradeidea/roast-service/internal/api/metrics"
	"github.com/gradeidea/roast-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// Dispatcher routes payment completions to a fixed set of workers using
// consistent hashing on the job id, so duplicate deliveries for the same job
// land on the same worker and are processed in arrival order. The webhook
// handler enqueues and acks immediately; generation (tens of seconds) runs
// here, off the provider's request.
type Dispatcher struct {
	workers   []chan ports.PaymentCompletionInput
	processor ports.CompletionProcessor
	log       zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, processor ports.CompletionProcessor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan ports.PaymentCompletionInput, numWorkers),
		processor: processor,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.PaymentCompletionInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a completion to the worker responsible for its job id.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(input ports.PaymentCompletionInput) {
	idx := d.shardIndex(input.JobID)
	d.workers[idx] <- input
	metrics.CompletionQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps a job id deterministically to a worker index.
func (d *Dispatcher) shardIndex(jobID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(jobID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.PaymentCompletionInput) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case input, ok := <-ch:
			if !ok {
				return
			}
			metrics.CompletionQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.processor.ProcessCompletion(ctx, input); err != nil {
				d.log.Error().Err(err).
					Str("job_id", input.JobID).
					Int("worker_id", id).
					Msg("completion processing failed")
			}
		}
	}
}
