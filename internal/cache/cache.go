package cache

import (
	"sync"
)

// Key identifies one cached resource, e.g. "device:ab12".
type Key string

// DeviceListKey holds the full device list.
const DeviceListKey Key = "devices"

func DeviceKey(id string) Key    { return Key("device:" + id) }
func TelemetryKey(id string) Key { return Key("telemetry:" + id) }
func StatsKey(id string) Key     { return Key("stats:" + id) }

type entry struct {
	value    any
	version  uint64
	hasValue bool
}

// Store is the session-lifetime resource cache. Values are immutable
// snapshots: every write swaps the whole value under one lock, so readers
// never observe a partial mutation. Each write bumps a per-key version,
// which lets slow poll responses detect that they have been superseded.
type Store struct {
	mu      sync.RWMutex
	entries map[Key]*entry
	subs    map[Key]map[uint64]chan struct{}
	nextSub uint64
}

func New() *Store {
	return &Store{
		entries: make(map[Key]*entry),
		subs:    make(map[Key]map[uint64]chan struct{}),
	}
}

// Get returns the cached value for key, if any.
func (s *Store) Get(key Key) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || !e.hasValue {
		return nil, false
	}
	return e.value, true
}

// Version returns the current write version for key (0 if never written).
func (s *Store) Version(key Key) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[key]; ok {
		return e.version
	}
	return 0
}

// Set stores value under key unconditionally and notifies subscribers.
func (s *Store) Set(key Key, value any) {
	s.mu.Lock()
	e := s.ensure(key)
	e.value = value
	e.hasValue = true
	e.version++
	s.notifyLocked(key)
	s.mu.Unlock()
}

// SetIfVersion stores value only when the key's version still equals seen.
// A false return means someone wrote the key while the caller's fetch was in
// flight; the stale response must be dropped, not applied.
func (s *Store) SetIfVersion(key Key, value any, seen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.ensure(key)
	if e.version != seen {
		return false
	}
	e.value = value
	e.hasValue = true
	e.version++
	s.notifyLocked(key)
	return true
}

// Update applies fn to the current value and swaps the result in.
// When nothing is cached yet the call is a no-op and returns false.
func (s *Store) Update(key Key, fn func(any) any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !e.hasValue {
		return false
	}
	e.value = fn(e.value)
	e.version++
	s.notifyLocked(key)
	return true
}

// Invalidate drops the cached value, advances the version and notifies
// subscribers. Poll loops treat the notification as a kick to refetch.
func (s *Store) Invalidate(key Key) {
	s.mu.Lock()
	e := s.ensure(key)
	e.value = nil
	e.hasValue = false
	e.version++
	s.notifyLocked(key)
	s.mu.Unlock()
}

// Subscribe registers interest in writes to key. The returned channel gets a
// non-blocking signal on every write; call cancel when done.
func (s *Store) Subscribe(key Key) (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	id := s.nextSub
	ch := make(chan struct{}, 1)
	if s.subs[key] == nil {
		s.subs[key] = make(map[uint64]chan struct{})
	}
	s.subs[key][id] = ch

	cancel := func() {
		s.mu.Lock()
		delete(s.subs[key], id)
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) ensure(key Key) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	return e
}

func (s *Store) notifyLocked(key Key) {
	for _, ch := range s.subs[key] {
		select {
		case ch <- struct{}{}:
		default: // subscriber already has a pending signal
		}
	}
}

// Value reads key and asserts it to T. The second return is false when the
// key is absent or holds a different type.
func Value[T any](s *Store, key Key) (T, bool) {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
