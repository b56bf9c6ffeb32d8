package service

import (
	"context"
	"sync"
	"time"

	"incubator_console/internal/cache"
	"incubator_console/internal/logger"
	"incubator_console/internal/metrics"
	"incubator_console/internal/models"
)

// historyLimit caps how many samples one telemetry poll pulls.
const historyLimit = 50

// PollIntervals configures the refresh period per resource class.
type PollIntervals struct {
	Device    time.Duration
	Telemetry time.Duration
}

// PollerBackend is the slice of the backend client the poller fetches with.
type PollerBackend interface {
	GetDevice(ctx context.Context, id string) (models.Device, error)
	Telemetry(ctx context.Context, id string, limit int) ([]models.Sample, error)
}

type fetchFunc func(ctx context.Context) (any, error)

type pollLoop struct {
	refs   int
	cancel context.CancelFunc
}

// Poller runs one shared refresh loop per watched resource key. Watchers are
// ref-counted: the first WatchDevice for an id starts the loop, the last
// release stops it. Loops never overlap their own fetches, and a versioned
// write guard keeps a slow response from clobbering a newer cache value
// (e.g. an optimistic command projection written mid-flight).
type Poller struct {
	ctx       context.Context
	store     *cache.Store
	backend   PollerBackend
	met       *metrics.ConsoleMetrics
	log       *logger.Logger
	intervals PollIntervals

	mu    sync.Mutex
	loops map[cache.Key]*pollLoop
}

func NewPoller(ctx context.Context, store *cache.Store, backend PollerBackend,
	met *metrics.ConsoleMetrics, log *logger.Logger, intervals PollIntervals) *Poller {
	return &Poller{
		ctx:       ctx,
		store:     store,
		backend:   backend,
		met:       met,
		log:       log,
		intervals: intervals,
		loops:     make(map[cache.Key]*pollLoop),
	}
}

// WatchDevice keeps device:{id} fresh until the returned release is called.
func (p *Poller) WatchDevice(id string) func() {
	return p.acquire(cache.DeviceKey(id), "device", p.intervals.Device,
		func(ctx context.Context) (any, error) {
			return p.backend.GetDevice(ctx, id)
		})
}

// WatchTelemetry keeps telemetry:{id} fresh until the returned release is called.
func (p *Poller) WatchTelemetry(id string) func() {
	return p.acquire(cache.TelemetryKey(id), "telemetry", p.intervals.Telemetry,
		func(ctx context.Context) (any, error) {
			return p.backend.Telemetry(ctx, id, historyLimit)
		})
}

// DeviceUpdates exposes the cache's change signal for a device key.
func (p *Poller) DeviceUpdates(id string) (<-chan struct{}, func()) {
	return p.store.Subscribe(cache.DeviceKey(id))
}

func (p *Poller) acquire(key cache.Key, resource string, interval time.Duration, fetch fetchFunc) func() {
	p.mu.Lock()
	loop, ok := p.loops[key]
	if !ok {
		loopCtx, cancel := context.WithCancel(p.ctx)
		loop = &pollLoop{cancel: cancel}
		p.loops[key] = loop
		go p.run(loopCtx, key, resource, interval, fetch)
	}
	loop.refs++
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { p.release(key) })
	}
}

func (p *Poller) release(key cache.Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	loop, ok := p.loops[key]
	if !ok {
		return
	}
	loop.refs--
	if loop.refs <= 0 {
		loop.cancel()
		delete(p.loops, key)
	}
}

// run ticks at the resource interval until canceled. An invalidation of the
// key (value dropped, version bumped) kicks an immediate refetch instead of
// waiting for the next tick.
func (p *Poller) run(ctx context.Context, key cache.Key, resource string, interval time.Duration, fetch fetchFunc) {
	kick, cancelSub := p.store.Subscribe(key)
	defer cancelSub()

	t := time.NewTicker(interval)
	defer t.Stop()

	p.refresh(ctx, key, resource, fetch)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		case <-kick:
			if _, ok := p.store.Get(key); ok {
				continue // a write, not an invalidation; nothing to refetch
			}
		}
		p.refresh(ctx, key, resource, fetch)
	}
}

// refresh performs one fetch-and-store round. Transport failures skip the
// write and leave the stale value for the next tick; a version mismatch
// means the fetch was superseded and its result is dropped.
func (p *Poller) refresh(ctx context.Context, key cache.Key, resource string, fetch fetchFunc) {
	seen := p.store.Version(key)

	value, err := fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if p.met != nil {
			p.met.PollFailuresTotal.WithLabelValues(resource).Inc()
		}
		if p.log != nil {
			p.log.Debugw("poll_skipped", "key", key, "err", err)
		}
		return
	}

	if !p.store.SetIfVersion(key, value, seen) {
		if p.met != nil {
			p.met.StaleDropsTotal.WithLabelValues(resource).Inc()
		}
		return
	}
	if p.met != nil {
		p.met.PollsTotal.WithLabelValues(resource).Inc()
	}
}
