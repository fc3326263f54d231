package storage

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"firewatch-backend/internal/model"
)

var base = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newPointStore(t *testing.T) (*PointStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := OpenPointStore(path)
	if err != nil {
		t.Fatalf("open point store: %v", err)
	}
	return s, path
}

func testPoint(deviceID string, offset time.Duration) model.DataPoint {
	return model.DataPoint{
		DeviceID:  deviceID,
		Timestamp: base.Add(offset),
		Fields:    map[string]any{"temperature": 21.0},
	}
}

func TestAppendValidation(t *testing.T) {
	s, _ := newPointStore(t)
	if err := s.Append(model.DataPoint{Timestamp: base}); !IsValidation(err) {
		t.Fatalf("expected validation error for missing device_id, got %v", err)
	}
	if err := s.Append(model.DataPoint{DeviceID: "wfd-end"}); !IsValidation(err) {
		t.Fatalf("expected validation error for missing timestamp, got %v", err)
	}
	if s.Count() != 0 {
		t.Fatalf("invalid points must not be stored")
	}
}

func TestAppendAndQueryBounds(t *testing.T) {
	s, _ := newPointStore(t)
	for i := 0; i < 5; i++ {
		if err := s.Append(testPoint("wfd-end", time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := s.Append(testPoint("other", 0)); err != nil {
		t.Fatalf("append: %v", err)
	}

	all := s.Query("wfd-end", nil, nil)
	if len(all) != 5 {
		t.Fatalf("expected 5 points, got %d", len(all))
	}
	from := base.Add(1 * time.Hour)
	to := base.Add(3 * time.Hour)
	bounded := s.Query("wfd-end", &from, &to)
	if len(bounded) != 3 {
		t.Fatalf("expected 3 bounded points, got %d", len(bounded))
	}
	if len(s.Query("missing", nil, nil)) != 0 {
		t.Fatalf("expected no points for unknown device")
	}
}

func TestAppendPersistsAcrossReopen(t *testing.T) {
	s, path := newPointStore(t)
	if err := s.Append(testPoint("wfd-end", 0)); err != nil {
		t.Fatalf("append: %v", err)
	}
	reopened, err := OpenPointStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	points := reopened.Query("wfd-end", nil, nil)
	if len(points) != 1 {
		t.Fatalf("expected 1 persisted point, got %d", len(points))
	}
	if v, ok := points[0].NumericField("temperature"); !ok || v != 21.0 {
		t.Fatalf("fields lost on reload: %v", points[0].Fields)
	}
	if !points[0].Timestamp.Equal(base) {
		t.Fatalf("timestamp lost on reload: %v", points[0].Timestamp)
	}
}

func TestPruneRemovesStrictlyOlder(t *testing.T) {
	s, _ := newPointStore(t)
	for i := 0; i < 4; i++ {
		s.Append(testPoint("wfd-end", time.Duration(i)*time.Hour))
	}
	cutoff := base.Add(2 * time.Hour)
	removed, err := s.Prune(cutoff)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	// A point exactly at the cutoff survives.
	if s.Count() != 2 {
		t.Fatalf("expected 2 kept, got %d", s.Count())
	}
}

func TestPruneIdempotent(t *testing.T) {
	s, _ := newPointStore(t)
	for i := 0; i < 4; i++ {
		s.Append(testPoint("wfd-end", time.Duration(i)*time.Hour))
	}
	cutoff := base.Add(2 * time.Hour)
	if removed, _ := s.Prune(cutoff); removed != 2 {
		t.Fatalf("expected first prune to remove 2")
	}
	removed, err := s.Prune(cutoff)
	if err != nil {
		t.Fatalf("second prune: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected second prune to be a no-op, removed %d", removed)
	}
}

func TestConcurrentAppendSafety(t *testing.T) {
	s, path := newPointStore(t)
	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Append(testPoint("wfd-end", time.Duration(i)*time.Second)); err != nil {
				t.Errorf("append: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if s.Count() != n {
		t.Fatalf("lost updates: expected %d points, got %d", n, s.Count())
	}
	reopened, err := OpenPointStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Count() != n {
		t.Fatalf("persisted file lost updates: expected %d, got %d", n, reopened.Count())
	}
}
