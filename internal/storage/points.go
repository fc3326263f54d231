package storage

import (
	"fmt"
	"sync"
	"time"

	"firewatch-backend/internal/model"
)

// PointStore owns the raw readings. The in-memory slice is authoritative
// and guarded by a single writer lock; the backing file is rewritten
// wholesale after each mutation. Concurrent appends and the retention
// sweep all serialize on the same lock, so a read-modify-write cycle can
// never lose an update.
type PointStore struct {
	mu     sync.Mutex
	path   string
	points []model.DataPoint
}

// OpenPointStore loads the persisted array, or starts empty when the file
// does not exist yet.
func OpenPointStore(path string) (*PointStore, error) {
	s := &PointStore{path: path, points: []model.DataPoint{}}
	if err := readJSONFile(path, &s.points); err != nil {
		return nil, fmt.Errorf("load point store: %w", err)
	}
	return s, nil
}

// Append validates and stores one reading, then flushes.
func (s *PointStore) Append(point model.DataPoint) error {
	if point.DeviceID == "" {
		return &ValidationError{Field: "device_id", Problem: "required"}
	}
	if point.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Problem: "required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, point)
	if err := s.flushLocked(); err != nil {
		s.points = s.points[:len(s.points)-1]
		return err
	}
	return nil
}

// Query returns every point for the device inside the optional bounds.
// Order is not guaranteed; callers sort.
func (s *PointStore) Query(deviceID string, from, to *time.Time) []model.DataPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []model.DataPoint{}
	for _, p := range s.points {
		if p.DeviceID != deviceID {
			continue
		}
		if from != nil && p.Timestamp.Before(*from) {
			continue
		}
		if to != nil && p.Timestamp.After(*to) {
			continue
		}
		matched = append(matched, p)
	}
	return matched
}

// Prune drops every point strictly older than cutoff and reports how many
// were removed. A run that removes nothing skips the flush.
func (s *PointStore) Prune(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]model.DataPoint, 0, len(s.points))
	for _, p := range s.points {
		if p.Timestamp.Before(cutoff) {
			continue
		}
		kept = append(kept, p)
	}
	removed := len(s.points) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	previous := s.points
	s.points = kept
	if err := s.flushLocked(); err != nil {
		s.points = previous
		return 0, err
	}
	return removed, nil
}

// Count reports the current number of stored points.
func (s *PointStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points)
}

func (s *PointStore) flushLocked() error {
	if err := writeJSONAtomic(s.path, s.points); err != nil {
		return fmt.Errorf("flush point store: %w", err)
	}
	return nil
}
