package service

import (
	"sort"
	"time"

	"incubator_console/internal/models"
)

// SeriesPoint is one charted sample with its display label.
type SeriesPoint struct {
	Timestamp time.Time `json:"ts"`
	Label     string    `json:"label"`
	TempC     float64   `json:"temp_c"`
	HumPct    float64   `json:"hum_pct"`
}

// Series is a time-ascending sequence ready for charting.
type Series struct {
	Points []SeriesPoint `json:"points"`
}

// BuildSeries orders samples by timestamp (stable, so equal timestamps keep
// their input order) and derives a local HH:MM label per point.
//
// The second return distinguishes "history not fetched yet" (nil input,
// false) from a confirmed-empty history (non-nil empty input, true).
func BuildSeries(samples []models.Sample) (Series, bool) {
	if samples == nil {
		return Series{}, false
	}

	points := make([]SeriesPoint, len(samples))
	for i, s := range samples {
		points[i] = SeriesPoint{
			Timestamp: s.Timestamp,
			TempC:     s.TempC,
			HumPct:    s.HumPct,
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	for i := range points {
		points[i].Label = points[i].Timestamp.Local().Format("15:04")
	}
	return Series{Points: points}, true
}
