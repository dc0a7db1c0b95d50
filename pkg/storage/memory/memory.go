// Package memory implements the storage interfaces with process-held,
// concurrency-safe maps. It is the default backend of the loan pipeline.
//
// Records are partitioned over independently locked shards and are always
// copied on the way in and out, so callers never share mutable state with the
// store. Updates to one application run under the write lock of its shard
// only, which makes them atomic for readers without blocking unrelated
// records.
//
// Transactions are best effort: writes become visible immediately, a rollback
// undoes them, and jobs added inside a transaction are only dispatched on
// commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"lending/pkg/domain"
	"lending/pkg/storage"
	"sync"

	"github.com/riverqueue/river"
)

// DefaultShards is the number of shards used when Options.Shards is not set.
const DefaultShards = 32

// Dispatcher receives jobs added through storage.JobStorage. The in-process
// worker pool implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error)
}

// ErrNoDispatcher is returned by AddJob when the store was built without a Dispatcher.
var ErrNoDispatcher = errors.New("no job dispatcher configured")

// Options configures a Memory store.
type Options struct {
	// Shards is the number of lock partitions per record kind.
	Shards int
	// Dispatcher runs jobs added with AddJob. Optional; AddJob fails without it.
	Dispatcher Dispatcher
}

// Memory implements storage.Storage on top of sharded maps.
type Memory struct {
	dispatcher Dispatcher

	documents        *shardedMap[domain.DocumentID, domain.Document]
	applications     *shardedMap[domain.ApplicationID, domain.Application]
	userApplications *shardedMap[domain.UserID, []domain.ApplicationID]
	ledger           *shardedMap[domain.UserID, []domain.CreditScoreRecord]
}

var _ storage.Storage = (*Memory)(nil)

// New creates an empty Memory store.
func New(options Options) *Memory {
	n := options.Shards
	if n <= 0 {
		n = DefaultShards
	}

	return &Memory{
		dispatcher:       options.Dispatcher,
		documents:        newShardedMap[domain.DocumentID, domain.Document](n),
		applications:     newShardedMap[domain.ApplicationID, domain.Application](n),
		userApplications: newShardedMap[domain.UserID, []domain.ApplicationID](n),
		ledger:           newShardedMap[domain.UserID, []domain.CreditScoreRecord](n),
	}
}

// SetDispatcher sets the job dispatcher. It must be called before the store is
// shared between goroutines.
func (m *Memory) SetDispatcher(d Dispatcher) {
	m.dispatcher = d
}

// Close is a no-op; the store holds no external resources.
func (m *Memory) Close() error {
	return nil
}

// AddJob dispatches the job immediately.
func (m *Memory) AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error) {
	if m.dispatcher == nil {
		return false, ErrNoDispatcher
	}

	added, err := m.dispatcher.Dispatch(ctx, args, opts)
	if err != nil {
		return false, fmt.Errorf("could not dispatch job: %w", err)
	}

	return added, nil
}

// Begin starts a best-effort transaction.
func (m *Memory) Begin(ctx context.Context) (storage.TxStorage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &tx{m: m}, nil
}

// WithTx runs cb inside a transaction, committing when cb returns nil and
// rolling back otherwise.
func (m *Memory) WithTx(ctx context.Context, cb func(storage storage.AllStorage) error) error {
	t, err := m.Begin(ctx)
	if err != nil {
		return err
	}

	if err := cb(t); err != nil {
		_ = t.Rollback()

		return err
	}

	if err := t.Commit(); err != nil {
		return fmt.Errorf("could not commit tx: %w", err)
	}

	return nil
}

type pendingJob struct {
	ctx  context.Context //nolint: containedctx
	args river.JobArgs
	opts *river.InsertOpts
}

// tx records undo steps for every write and buffers jobs until Commit.
type tx struct {
	m *Memory

	mu   sync.Mutex
	done bool
	undo []func()
	jobs []pendingJob
}

var _ storage.TxStorage = (*tx)(nil)

// record registers the undo step of a write that already happened. If the
// transaction finished concurrently the write is undone right away.
func (t *tx) record(undo func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		undo()

		return storage.ErrTxDone
	}
	t.undo = append(t.undo, undo)

	return nil
}

func (t *tx) active() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return storage.ErrTxDone
	}

	return nil
}

// Commit dispatches the buffered jobs in insertion order. When a dispatch
// fails the remaining jobs are dropped and the writes of the transaction are
// undone in reverse order. Jobs dispatched before the failure stay queued.
func (t *tx) Commit() error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()

		return storage.ErrTxDone
	}
	t.done = true
	jobs, undo := t.jobs, t.undo
	t.jobs, t.undo = nil, nil
	t.mu.Unlock()

	for _, j := range jobs {
		if _, err := t.m.AddJob(j.ctx, j.args, j.opts); err != nil {
			for i := len(undo) - 1; i >= 0; i-- {
				undo[i]()
			}

			return fmt.Errorf("could not dispatch %s job: %w", j.args.Kind(), err)
		}
	}

	return nil
}

// Rollback undoes the writes of the transaction in reverse order and drops
// the buffered jobs.
func (t *tx) Rollback() error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()

		return storage.ErrTxDone
	}
	t.done = true
	undo := t.undo
	t.jobs, t.undo = nil, nil
	t.mu.Unlock()

	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}

	return nil
}

// AddJob buffers the job until Commit. It always reports the job as added;
// duplicates are resolved by the dispatcher on commit.
func (t *tx) AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return false, storage.ErrTxDone
	}
	if t.m.dispatcher == nil {
		return false, ErrNoDispatcher
	}
	t.jobs = append(t.jobs, pendingJob{ctx: context.WithoutCancel(ctx), args: args, opts: opts})

	return true, nil
}
