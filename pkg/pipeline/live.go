package pipeline

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/graph"
	"github.com/matzehuels/okrtree/pkg/observability"
	"github.com/matzehuels/okrtree/pkg/okr"
	"github.com/matzehuels/okrtree/pkg/source"
)

// ErrClosed is returned by a [Live] board after Close.
var ErrClosed = errors.New(errors.ErrCodeUnsupported, "live board is closed")

// Snapshot is one published layout of a [Live] board.
type Snapshot struct {
	Version  uint64       `json:"version"`
	Layout   graph.Layout `json:"layout"`
	Records  int          `json:"records"`
	Computed time.Time    `json:"computed_at"`
}

// Live keeps a layout current while records and viewer context change.
//
// Every change recomputes the whole forest; there is no incremental
// update. Recomputes are serialized, readers never block, and a failed
// recompute leaves the previous snapshot in place.
type Live struct {
	runner *Runner
	src    source.Source

	mu      sync.Mutex
	opts    Options
	records []okr.Record
	version uint64

	current atomic.Pointer[Snapshot]

	subMu  sync.Mutex
	subs   map[chan Snapshot]struct{}
	closed bool
}

// NewLive creates a board over src. src may be nil when records are only
// ever pushed through SetRecords. Nothing is computed until the first
// Refresh or SetRecords.
func NewLive(runner *Runner, src source.Source, opts Options) *Live {
	if runner == nil {
		runner = NewRunner(nil, nil, nil)
	}
	runner.applyLogger(&opts)
	opts.Refresh = true
	return &Live{
		runner: runner,
		src:    src,
		opts:   opts,
		subs:   make(map[chan Snapshot]struct{}),
	}
}

// Refresh re-reads the source and recomputes. On error the previous
// records and roster stay in effect.
func (l *Live) Refresh(ctx context.Context) (Snapshot, error) {
	if l.src == nil {
		return Snapshot{}, errors.New(errors.ErrCodeInvalidSource, "board has no source to refresh from")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.isClosed() {
		return Snapshot{}, ErrClosed
	}

	records, err := l.runner.Load(ctx, l.src, l.opts)
	if err != nil {
		return Snapshot{}, err
	}
	prevRecords, prevOpts := l.records, l.opts
	if len(l.opts.Users) == 0 {
		users, err := source.Users(ctx, l.src)
		if err != nil {
			l.opts.Logger.Warn("roster unavailable", "source", l.src.Name(), "error", err)
		}
		l.opts.Users = users
	}
	l.records = records
	s, err := l.recompute(ctx)
	if err != nil {
		l.records, l.opts = prevRecords, prevOpts
	}
	return s, err
}

// SetRecords replaces the records and recomputes. On error the previous
// records stay in effect.
func (l *Live) SetRecords(ctx context.Context, records []okr.Record) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.isClosed() {
		return Snapshot{}, ErrClosed
	}
	prev := l.records
	l.records = slices.Clone(records)
	s, err := l.recompute(ctx)
	if err != nil {
		l.records = prev
	}
	return s, err
}

// SetContext replaces the viewer, roster and filter and recomputes.
func (l *Live) SetContext(ctx context.Context, c graph.Context) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.isClosed() {
		return Snapshot{}, ErrClosed
	}
	prev := l.opts
	l.opts.Viewer = c.Viewer
	l.opts.Users = c.Users
	l.opts.TeamMembers = c.TeamMembers
	l.opts.Filter = c.Filter
	s, err := l.recompute(ctx)
	if err != nil {
		l.opts = prev
	}
	return s, err
}

// SetRoot narrows the board to one tree and recomputes. An empty root or
// [okr.SelectAll] shows the whole forest.
func (l *Live) SetRoot(ctx context.Context, root string) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.isClosed() {
		return Snapshot{}, ErrClosed
	}
	prev := l.opts.Root
	l.opts.Root = root
	s, err := l.recompute(ctx)
	if err != nil {
		l.opts.Root = prev
	}
	return s, err
}

// Current returns the latest snapshot, or false before the first
// successful recompute.
func (l *Live) Current() (Snapshot, bool) {
	s := l.current.Load()
	if s == nil {
		return Snapshot{}, false
	}
	return *s, true
}

// Records returns a copy of the board's records.
func (l *Live) Records() []okr.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.records)
}

// Context returns the viewer and filter state in effect.
func (l *Live) Context() graph.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opts.Context()
}

// Subscribe returns a channel that receives every new snapshot and a func
// that ends the subscription. A subscriber that falls behind only sees the
// newest snapshot. The channel is closed on unsubscribe or Close.
func (l *Live) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	l.subMu.Lock()
	defer l.subMu.Unlock()
	if l.closed {
		close(ch)
		return ch, func() {}
	}
	l.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.subMu.Lock()
			defer l.subMu.Unlock()
			if _, ok := l.subs[ch]; ok {
				delete(l.subs, ch)
				close(ch)
			}
		})
	}
}

// Close ends all subscriptions. Later changes return [ErrClosed].
func (l *Live) Close() {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	for ch := range l.subs {
		close(ch)
	}
	clear(l.subs)
}

func (l *Live) isClosed() bool {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	return l.closed
}

// recompute must be called with mu held.
func (l *Live) recompute(ctx context.Context) (Snapshot, error) {
	start := time.Now()
	lay, err := l.runner.ComputeLayout(ctx, l.records, l.opts)
	if err != nil {
		observability.Pipeline().OnRecompute(ctx, l.version, time.Since(start), err)
		l.opts.Logger.Debug("recompute failed", "version", l.version, "error", err)
		return Snapshot{}, err
	}

	l.version++
	s := &Snapshot{
		Version:  l.version,
		Layout:   lay,
		Records:  len(l.records),
		Computed: time.Now(),
	}
	l.current.Store(s)
	observability.Pipeline().OnRecompute(ctx, s.Version, time.Since(start), nil)
	l.opts.Logger.Debug("board recomputed", "version", s.Version, "nodes", len(lay.Nodes))

	l.publish(*s)
	return *s, nil
}

func (l *Live) publish(s Snapshot) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for ch := range l.subs {
		select {
		case ch <- s:
		default:
			// drop the stale snapshot the subscriber has not read yet
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}
