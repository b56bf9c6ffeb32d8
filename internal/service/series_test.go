package service

import (
	"math/rand"
	"testing"
	"time"

	"incubator_console/internal/models"
)

func sampleAt(ts time.Time, temp float64) models.Sample {
	return models.Sample{Timestamp: ts, TempC: temp, HumPct: 55}
}

func TestBuildSeries_SortsAscending(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	samples := []models.Sample{
		sampleAt(base.Add(20*time.Minute), 38.1),
		sampleAt(base, 37.5),
		sampleAt(base.Add(10*time.Minute), 37.8),
	}

	series, ready := BuildSeries(samples)
	if !ready {
		t.Fatalf("non-nil input must be ready")
	}
	if len(series.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(series.Points))
	}
	for i := 1; i < len(series.Points); i++ {
		if series.Points[i].Timestamp.Before(series.Points[i-1].Timestamp) {
			t.Fatalf("points not ascending at %d: %v < %v", i,
				series.Points[i].Timestamp, series.Points[i-1].Timestamp)
		}
	}
	if series.Points[0].TempC != 37.5 {
		t.Fatalf("earliest sample must come first, got %.1f", series.Points[0].TempC)
	}
}

func TestBuildSeries_AnyPermutationIsNonDecreasing(t *testing.T) {
	base := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	var samples []models.Sample
	for i := 0; i < 50; i++ {
		samples = append(samples, sampleAt(base.Add(time.Duration(i)*time.Minute), float64(i)))
	}

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 10; trial++ {
		rng.Shuffle(len(samples), func(i, j int) {
			samples[i], samples[j] = samples[j], samples[i]
		})
		series, _ := BuildSeries(samples)
		for i := 1; i < len(series.Points); i++ {
			if series.Points[i].Timestamp.Before(series.Points[i-1].Timestamp) {
				t.Fatalf("trial %d: output not sorted", trial)
			}
		}
	}
}

func TestBuildSeries_StableOnEqualTimestamps(t *testing.T) {
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	samples := []models.Sample{
		sampleAt(ts, 1),
		sampleAt(ts, 2),
		sampleAt(ts, 3),
	}

	series, _ := BuildSeries(samples)
	for i, want := range []float64{1, 2, 3} {
		if series.Points[i].TempC != want {
			t.Fatalf("ties must keep input order: point %d is %.0f, want %.0f",
				i, series.Points[i].TempC, want)
		}
	}
}

func TestBuildSeries_NilVersusEmpty(t *testing.T) {
	if _, ready := BuildSeries(nil); ready {
		t.Fatalf("nil input means not fetched yet")
	}

	series, ready := BuildSeries([]models.Sample{})
	if !ready {
		t.Fatalf("empty non-nil input is a confirmed-empty series")
	}
	if len(series.Points) != 0 {
		t.Fatalf("expected zero points, got %d", len(series.Points))
	}
}

func TestBuildSeries_DerivesLabels(t *testing.T) {
	ts := time.Date(2026, 8, 30, 9, 5, 0, 0, time.Local)
	series, _ := BuildSeries([]models.Sample{sampleAt(ts, 37)})
	if series.Points[0].Label != "09:05" {
		t.Fatalf("expected label 09:05, got %q", series.Points[0].Label)
	}
}
