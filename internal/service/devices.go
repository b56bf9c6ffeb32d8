package service

import (
	"context"
	"time"

	"incubator_console/internal/cache"
	"incubator_console/internal/models"
)

// DeviceBackend is the read side of the backend client.
type DeviceBackend interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
	GetDevice(ctx context.Context, id string) (models.Device, error)
	Stats(ctx context.Context, id string) (models.DeviceStats, error)
	Analyze(ctx context.Context, id string) (models.Analysis, error)
}

// DeviceService serves the cached device view. The list and stats resources
// are low-volatility and fetched on demand; detail reads hit the cache first
// so they ride on whatever the pollers and dispatcher keep fresh.
type DeviceService struct {
	backend DeviceBackend
	store   *cache.Store
}

func NewDeviceService(backend DeviceBackend, store *cache.Store) *DeviceService {
	return &DeviceService{backend: backend, store: store}
}

// List refreshes the device list. On transport failure the stale cached list
// is served instead, matching the silent-skip poll policy.
func (s *DeviceService) List(ctx context.Context) ([]DeviceView, error) {
	devices, err := s.backend.ListDevices(ctx)
	if err != nil {
		cached, ok := cache.Value[[]models.Device](s.store, cache.DeviceListKey)
		if !ok {
			return nil, err
		}
		devices = cached
	} else {
		s.store.Set(cache.DeviceListKey, devices)
	}

	now := time.Now()
	views := make([]DeviceView, len(devices))
	for i, d := range devices {
		views[i] = DeviceView{Device: d, Online: IsOnline(d.LastSeen, now)}
	}
	return views, nil
}

// Get returns the cached device detail, fetching it once when cold or
// freshly invalidated.
func (s *DeviceService) Get(ctx context.Context, id string) (DeviceView, error) {
	key := cache.DeviceKey(id)
	device, ok := cache.Value[models.Device](s.store, key)
	if !ok {
		fetched, err := s.backend.GetDevice(ctx, id)
		if err != nil {
			return DeviceView{}, err
		}
		s.store.Set(key, fetched)
		device = fetched
	}
	return DeviceView{Device: device, Online: IsOnline(device.LastSeen, time.Now())}, nil
}

// Stats fetches the current-day aggregate, keeping the last good value
// around for transport failures.
func (s *DeviceService) Stats(ctx context.Context, id string) (models.DeviceStats, error) {
	key := cache.StatsKey(id)
	stats, err := s.backend.Stats(ctx, id)
	if err != nil {
		cached, ok := cache.Value[models.DeviceStats](s.store, key)
		if !ok {
			return models.DeviceStats{}, err
		}
		return cached, nil
	}
	s.store.Set(key, stats)
	return stats, nil
}

// Analyze proxies the external analysis call. No caching, no retry; errors
// are surfaced as-is and never touch device state.
func (s *DeviceService) Analyze(ctx context.Context, id string) (models.Analysis, error) {
	return s.backend.Analyze(ctx, id)
}
