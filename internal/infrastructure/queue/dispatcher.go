package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/hms/hospital-system/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

type mailKind int

const (
	mailWelcome mailKind = iota
	mailPasswordChanged
)

type mailJob struct {
	kind  mailKind
	email string
	name  string
}

// Dispatcher delivers non-critical account emails in the background. Jobs are
// routed to a fixed set of workers using consistent hashing on the recipient
// address, so emails to the same person are sent in the order they were
// enqueued.
type Dispatcher struct {
	workers  []chan mailJob
	notifier ports.Notifier
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan mailJob, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan mailJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

func (d *Dispatcher) enqueue(job mailJob) {
	d.workers[d.shardIndex(job.email)] <- job
}

// shardIndex maps a recipient address deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan mailJob) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			var err error
			switch job.kind {
			case mailWelcome:
				err = d.notifier.SendWelcome(ctx, job.email, job.name)
			case mailPasswordChanged:
				err = d.notifier.SendPasswordChanged(ctx, job.email)
			}
			if err != nil {
				d.log.Error().Err(err).
					Str("to", job.email).
					Int("worker_id", id).
					Msg("email delivery failed")
			}
		}
	}
}

// AsyncNotifier wraps a Dispatcher as a ports.Notifier. Reset links are sent
// synchronously because the caller must learn about delivery failures while
// its token is still fresh; welcome and password-changed mails are
// fire-and-forget.
type AsyncNotifier struct {
	dispatcher *Dispatcher
}

func NewAsyncNotifier(d *Dispatcher) *AsyncNotifier {
	return &AsyncNotifier{dispatcher: d}
}

var _ ports.Notifier = (*AsyncNotifier)(nil)

func (n *AsyncNotifier) SendResetLink(ctx context.Context, email, token string) error {
	return n.dispatcher.notifier.SendResetLink(ctx, email, token)
}

func (n *AsyncNotifier) SendPasswordChanged(_ context.Context, email string) error {
	n.dispatcher.enqueue(mailJob{kind: mailPasswordChanged, email: email})
	return nil
}

func (n *AsyncNotifier) SendWelcome(_ context.Context, email, name string) error {
	n.dispatcher.enqueue(mailJob{kind: mailWelcome, email: email, name: name})
	return nil
}
