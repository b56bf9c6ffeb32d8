package service

import (
	"context"

	"incubator_console/internal/cache"
	"incubator_console/internal/models"
)

// HistoryBackend fetches raw telemetry samples.
type HistoryBackend interface {
	Telemetry(ctx context.Context, id string, limit int) ([]models.Sample, error)
}

// HistoryService turns cached (or freshly fetched) samples into chart series.
type HistoryService struct {
	backend HistoryBackend
	store   *cache.Store
}

func NewHistoryService(backend HistoryBackend, store *cache.Store) *HistoryService {
	return &HistoryService{backend: backend, store: store}
}

// Series builds the time-ascending series for a device. The bool is false
// while no history has been fetched yet ("still loading"); a device with a
// confirmed-empty history yields true with zero points.
func (s *HistoryService) Series(ctx context.Context, deviceID string) (Series, bool, error) {
	key := cache.TelemetryKey(deviceID)
	samples, ok := cache.Value[[]models.Sample](s.store, key)
	if !ok {
		fetched, err := s.backend.Telemetry(ctx, deviceID, historyLimit)
		if err != nil {
			return Series{}, false, err
		}
		if fetched == nil {
			fetched = []models.Sample{} // reached the backend: empty is confirmed
		}
		s.store.Set(key, fetched)
		samples = fetched
	}
	series, ready := BuildSeries(samples)
	return series, ready, nil
}
