// Package syncer writes the academy state to the local store and propagates
// record changes to the cloud store.
//
// Changes are debounced on the trailing edge and coalesced: a burst of edits
// produces one pass over the latest snapshot. Passes never overlap, so an
// older snapshot can never overwrite a newer one.
package syncer

import (
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/repository"
	"alcyxob/sports-academy/internal/state"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDebounce      = 300 * time.Millisecond
	DefaultDegradedAfter = 3
	DefaultCloudWorkers  = 4

	// maxWaitFactor bounds a debounce window that keeps being extended.
	maxWaitFactor = 5
)

// Options tune the coordinator. Zero values select the defaults, except
// Debounce which is taken as given when negative (no debounce).
type Options struct {
	Debounce      time.Duration
	MaxWait       time.Duration // longest a steady stream of changes can defer a pass; 5x Debounce by default
	DegradedAfter int           // consecutive passes with cloud failures before Degraded
	CloudWorkers  int           // collections pushed to the cloud concurrently
	Metrics       *Metrics
}

// Status is the busy/idle signal shown to operators.
type Status struct {
	InProgress               bool       `json:"inProgress"`
	Pending                  bool       `json:"pending"`
	Degraded                 bool       `json:"degraded"`
	CloudEnabled             bool       `json:"cloudEnabled"`
	ConsecutiveCloudFailures int        `json:"consecutiveCloudFailures"`
	Passes                   int        `json:"passes"`
	LastPassID               string     `json:"lastPassId,omitempty"`
	LastSyncAt               *time.Time `json:"lastSyncAt,omitempty"`
	LastError                string     `json:"lastError,omitempty"`
}

// Result describes one sync pass.
type Result struct {
	PassID      string
	StartTime   time.Time
	Duration    time.Duration
	LocalWrites int
	LocalErrors []error
	Upserted    int
	Created     int
	Deleted     int
	CloudErrors []error
}

// Err joins every error of the pass, or returns nil for a clean pass.
func (r Result) Err() error {
	return errors.Join(append(append([]error{}, r.LocalErrors...), r.CloudErrors...)...)
}

type promotion struct {
	collection string
	from, to   string
}

// Coordinator runs sync passes for a state.Store.
type Coordinator struct {
	store   *state.Store
	local   repository.LocalStore
	cloud   repository.CloudStore
	opts    Options
	metrics *Metrics
	logger  *zap.Logger

	notify chan struct{}
	passMu sync.Mutex // serialises passes

	// fingerprints of the last successful cloud write, per collection and id.
	// Only touched while passMu is held.
	written map[string]map[string]string

	mu        sync.Mutex
	status    Status
	requested uint64 // bumped on every change
	settled   uint64 // value of requested captured by the last finished pass
	passDone  chan struct{}
}

// New creates a coordinator and subscribes it to store changes. cloud may be
// nil, in which case only the local store is written.
func New(store *state.Store, local repository.LocalStore, cloud repository.CloudStore, opts Options, logger *zap.Logger) *Coordinator {
	if opts.Debounce == 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MaxWait <= 0 && opts.Debounce > 0 {
		opts.MaxWait = maxWaitFactor * opts.Debounce
	}
	if opts.MaxWait < opts.Debounce {
		opts.MaxWait = opts.Debounce
	}
	if opts.DegradedAfter <= 0 {
		opts.DegradedAfter = DefaultDegradedAfter
	}
	if opts.CloudWorkers <= 0 {
		opts.CloudWorkers = DefaultCloudWorkers
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		store:    store,
		local:    local,
		cloud:    cloud,
		opts:     opts,
		metrics:  opts.Metrics,
		logger:   logger.Named("syncer"),
		notify:   make(chan struct{}, 1),
		written:  make(map[string]map[string]string, len(domain.Collections)),
		passDone: make(chan struct{}),
	}
	for _, name := range domain.Collections {
		c.written[name] = map[string]string{}
	}
	c.status.CloudEnabled = cloud != nil
	store.OnChange(c.Trigger)
	return c
}

// Trigger schedules a pass. It never blocks; triggers that arrive while a
// pass is already scheduled collapse into it.
func (c *Coordinator) Trigger() {
	c.mu.Lock()
	c.requested++
	c.mu.Unlock()
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Run processes triggers until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Info("sync coordinator started",
		zap.Duration("debounce", c.opts.Debounce),
		zap.Duration("maxWait", c.opts.MaxWait),
		zap.Bool("cloud", c.cloud != nil))

	var timer *time.Timer
	var fire <-chan time.Time
	var deadline time.Time // latest start for the pending pass
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("sync coordinator stopped")
			return nil
		case <-c.notify:
			if c.opts.Debounce < 0 {
				c.pass(ctx)
				continue
			}
			now := time.Now()
			if fire == nil {
				deadline = now.Add(c.opts.MaxWait)
			}
			wait := min(c.opts.Debounce, max(deadline.Sub(now), 0))
			if timer == nil {
				timer = time.NewTimer(wait)
			} else {
				timer.Reset(wait)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			c.pass(ctx)
		}
	}
}

// Flush runs a pass right away, waiting for any pass in flight first.
func (c *Coordinator) Flush(ctx context.Context) Result {
	return c.pass(ctx)
}

// WaitIdle blocks until every change seen so far has been written by a
// finished pass.
func (c *Coordinator) WaitIdle(ctx context.Context) error {
	for {
		c.mu.Lock()
		idle := !c.status.InProgress && c.settled >= c.requested
		done := c.passDone
		c.mu.Unlock()
		if idle {
			return nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Status returns the current busy/idle and health signal.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.status
	st.Pending = c.settled < c.requested
	return st
}

// Pull merges every cloud collection into the store. Collections that fail
// to load keep their local data; the joined error lists them.
func (c *Coordinator) Pull(ctx context.Context) (map[string]state.MergeResult, error) {
	if c.cloud == nil {
		return nil, nil
	}
	var (
		mu      sync.Mutex
		results = make(map[string]state.MergeResult, len(domain.Collections))
		errs    []error
	)
	var g errgroup.Group
	g.SetLimit(c.opts.CloudWorkers)
	for _, name := range domain.Collections {
		g.Go(func() error {
			res, err := c.store.Pull(ctx, name, c.cloud)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.metrics.cloudFailures.WithLabelValues("load").Inc()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return nil
			}
			results[name] = res
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	if err != nil {
		c.logger.Warn("cloud pull incomplete, continuing with local data", zap.Error(err))
	} else {
		c.logger.Info("cloud pull finished", zap.Any("merged", results))
	}
	return results, err
}

func (c *Coordinator) pass(ctx context.Context) Result {
	c.passMu.Lock()
	defer c.passMu.Unlock()

	c.mu.Lock()
	target := c.requested
	c.status.InProgress = true
	c.mu.Unlock()
	c.metrics.inProgress.Set(1)

	res := Result{PassID: uuid.NewString(), StartTime: time.Now()}
	logger := c.logger.With(zap.String("pass", res.PassID))

	snap := c.store.Snapshot()
	for _, col := range snap {
		if err := c.local.Save(ctx, col.Name, col.Records); err != nil {
			logger.Error("local write failed", zap.String("collection", col.Name), zap.Error(err))
			c.metrics.localFailures.Inc()
			res.LocalErrors = append(res.LocalErrors, err)
			continue
		}
		res.LocalWrites++
	}

	if c.cloud != nil {
		c.saveTombstones(ctx, &res, logger)
		if promoted := c.pushCloud(ctx, snap, &res, logger); len(promoted) > 0 {
			c.savePromoted(ctx, promoted, &res, logger)
		}
		c.saveTombstones(ctx, &res, logger)
	}

	res.Duration = time.Since(res.StartTime)
	c.finish(target, res)

	logger.Debug("sync pass finished",
		zap.Int("records", snap.Len()),
		zap.Int("localWrites", res.LocalWrites),
		zap.Int("upserted", res.Upserted),
		zap.Int("created", res.Created),
		zap.Int("deleted", res.Deleted),
		zap.Int("cloudErrors", len(res.CloudErrors)),
		zap.Duration("took", res.Duration))
	return res
}

// savePromoted writes the collections whose pending ids were promoted, so
// the cloud ids survive a restart even when no later pass runs.
func (c *Coordinator) savePromoted(ctx context.Context, promoted map[string]struct{}, res *Result, logger *zap.Logger) {
	for _, col := range c.store.Snapshot() {
		if _, ok := promoted[col.Name]; !ok {
			continue
		}
		if err := c.local.Save(ctx, col.Name, col.Records); err != nil {
			logger.Error("local write of promoted ids failed", zap.String("collection", col.Name), zap.Error(err))
			c.metrics.localFailures.Inc()
			res.LocalErrors = append(res.LocalErrors, err)
			continue
		}
		res.LocalWrites++
	}
}

// saveTombstones persists the pending cloud deletes.
func (c *Coordinator) saveTombstones(ctx context.Context, res *Result, logger *zap.Logger) {
	if err := c.local.Save(ctx, state.TombstonesKey, c.store.Tombstones()); err != nil {
		logger.Error("local write of pending deletes failed", zap.Error(err))
		c.metrics.localFailures.Inc()
		res.LocalErrors = append(res.LocalErrors, err)
	}
}

// pushCloud returns the collections that had pending ids promoted.
func (c *Coordinator) pushCloud(ctx context.Context, snap state.Snapshot, res *Result, logger *zap.Logger) map[string]struct{} {
	var (
		mu     sync.Mutex
		promos []promotion
	)
	var g errgroup.Group
	g.SetLimit(c.opts.CloudWorkers)
	for _, col := range snap {
		g.Go(func() error {
			upserted, created, p, errs := c.pushCollection(ctx, col)
			mu.Lock()
			defer mu.Unlock()
			res.Upserted += upserted
			res.Created += created
			promos = append(promos, p...)
			res.CloudErrors = append(res.CloudErrors, errs...)
			return nil
		})
	}
	_ = g.Wait()

	var failed []state.Tombstone
	for _, ts := range c.store.TakeTombstones() {
		if domain.IsPendingLocal(ts.ID) {
			continue
		}
		// Removed and added back since; the upsert already carries it.
		if c.store.Contains(ts.Collection, ts.ID) {
			logger.Debug("dropping delete of re-added record", zap.String("collection", ts.Collection), zap.String("id", ts.ID))
			continue
		}
		if err := c.cloud.Delete(ctx, ts.Collection, ts.ID); err != nil {
			c.metrics.cloudFailures.WithLabelValues("delete").Inc()
			res.CloudErrors = append(res.CloudErrors, fmt.Errorf("delete %s/%s: %w", ts.Collection, ts.ID, err))
			failed = append(failed, ts)
			continue
		}
		c.metrics.cloudWrites.WithLabelValues("delete").Inc()
		delete(c.written[ts.Collection], ts.ID)
		res.Deleted++
	}
	c.store.RequeueTombstones(failed)

	promoted := make(map[string]struct{})
	for _, p := range promos {
		if c.store.PromoteID(p.collection, p.from, p.to) {
			promoted[p.collection] = struct{}{}
			continue
		}
		// The record went away while it was being created; drop the orphan.
		logger.Info("removing orphaned cloud document", zap.String("collection", p.collection), zap.String("id", p.to))
		if err := c.cloud.Delete(ctx, p.collection, p.to); err != nil {
			c.metrics.cloudFailures.WithLabelValues("delete").Inc()
			res.CloudErrors = append(res.CloudErrors, fmt.Errorf("delete %s/%s: %w", p.collection, p.to, err))
			c.store.RequeueTombstones([]state.Tombstone{{Collection: p.collection, ID: p.to}})
			continue
		}
		delete(c.written[p.collection], p.to)
	}
	return promoted
}

// pushCollection upserts the records of one collection whose content changed
// since their last successful cloud write.
func (c *Coordinator) pushCollection(ctx context.Context, col state.CollectionSnapshot) (upserted, created int, promos []promotion, errs []error) {
	written := c.written[col.Name]
	for _, rec := range col.Records {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			return
		}
		id := rec.RecordID()
		fp, err := fingerprint(rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("fingerprint %s/%s: %w", col.Name, id, err))
			continue
		}
		pending := domain.IsPendingLocal(id)
		if !pending && written[id] == fp {
			continue
		}

		op := "upsert"
		if pending {
			op = "create"
		}
		newID, err := c.cloud.Upsert(ctx, col.Name, rec)
		if err != nil || newID == "" {
			if err == nil {
				err = errors.New("cloud store returned no id")
			}
			c.metrics.cloudFailures.WithLabelValues(op).Inc()
			errs = append(errs, fmt.Errorf("%s %s/%s: %w", op, col.Name, id, err))
			continue
		}
		c.metrics.cloudWrites.WithLabelValues(op).Inc()
		written[newID] = fp
		if newID != id {
			promos = append(promos, promotion{collection: col.Name, from: id, to: newID})
			created++
			continue
		}
		upserted++
	}
	return
}

func (c *Coordinator) finish(target uint64, res Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.status.InProgress = false
	c.status.Passes++
	c.status.LastPassID = res.PassID
	c.status.LastSyncAt = &now
	if target > c.settled {
		c.settled = target
	}
	if c.cloud != nil {
		if len(res.CloudErrors) > 0 {
			c.status.ConsecutiveCloudFailures++
		} else {
			c.status.ConsecutiveCloudFailures = 0
		}
	}
	wasDegraded := c.status.Degraded
	c.status.Degraded = c.status.ConsecutiveCloudFailures >= c.opts.DegradedAfter
	c.status.LastError = ""
	if err := res.Err(); err != nil {
		c.status.LastError = err.Error()
	}

	close(c.passDone)
	c.passDone = make(chan struct{})

	c.metrics.passes.Inc()
	c.metrics.passDuration.Observe(res.Duration.Seconds())
	c.metrics.inProgress.Set(0)
	if c.status.Degraded {
		c.metrics.degraded.Set(1)
	} else {
		c.metrics.degraded.Set(0)
	}
	switch {
	case c.status.Degraded && !wasDegraded:
		c.logger.Warn("cloud sync degraded", zap.Int("consecutiveFailures", c.status.ConsecutiveCloudFailures))
	case !c.status.Degraded && wasDegraded:
		c.logger.Info("cloud sync recovered")
	}
}
