package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"firewatch-backend/internal/model"
)

// StateStore owns the configuration blob: location registry, per-device
// alert configs and the notification log. Same contract as PointStore:
// one writer lock, wholesale atomic rewrite on mutation.
type StateStore struct {
	mu    sync.Mutex
	path  string
	state model.State
}

// OpenStateStore loads the persisted blob, or starts empty.
func OpenStateStore(path string) (*StateStore, error) {
	s := &StateStore{path: path, state: model.NewState()}
	if err := readJSONFile(path, &s.state); err != nil {
		return nil, fmt.Errorf("load state store: %w", err)
	}
	if s.state.Locations == nil {
		s.state.Locations = map[string]json.RawMessage{}
	}
	if s.state.Alerts == nil {
		s.state.Alerts = map[string]model.AlertConfig{}
	}
	if s.state.Notifications == nil {
		s.state.Notifications = []model.Notification{}
	}
	return s, nil
}

// Locations returns the registry as-is; the contents are opaque to the core.
func (s *StateStore) Locations() map[string]json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]json.RawMessage, len(s.state.Locations))
	for k, v := range s.state.Locations {
		out[k] = v
	}
	return out
}

// AlertConfig returns the device's config, or ErrNotFound.
func (s *StateStore) AlertConfig(deviceID string) (model.AlertConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.state.Alerts[deviceID]
	if !ok {
		return model.AlertConfig{}, ErrNotFound
	}
	return cfg, nil
}

// MergeAlertConfig applies a partial update to a known device and flushes.
func (s *StateStore) MergeAlertConfig(deviceID string, patch model.AlertConfigPatch) (model.AlertConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.state.Alerts[deviceID]
	if !ok {
		return model.AlertConfig{}, ErrNotFound
	}
	patch.Apply(&cfg)
	previous := s.state.Alerts[deviceID]
	s.state.Alerts[deviceID] = cfg
	if err := s.flushLocked(); err != nil {
		s.state.Alerts[deviceID] = previous
		return model.AlertConfig{}, err
	}
	return cfg, nil
}

// PutAlertConfig registers or replaces a device config.
func (s *StateStore) PutAlertConfig(deviceID string, cfg model.AlertConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Alerts[deviceID] = cfg
	return s.flushLocked()
}

// UpdateCounters runs fn against the device's config in one atomic
// read-modify-write. fn returns the notifications to append in the same
// commit; ErrNotFound when the device has no config.
func (s *StateStore) UpdateCounters(deviceID string, fn func(*model.AlertConfig) []model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.state.Alerts[deviceID]
	if !ok {
		return ErrNotFound
	}
	previous := cfg
	previousLen := len(s.state.Notifications)
	emitted := fn(&cfg)
	s.state.Alerts[deviceID] = cfg
	s.state.Notifications = append(s.state.Notifications, emitted...)
	if err := s.flushLocked(); err != nil {
		s.state.Alerts[deviceID] = previous
		s.state.Notifications = s.state.Notifications[:previousLen]
		return err
	}
	return nil
}

// AppendNotification adds one record to the log and flushes.
func (s *StateStore) AppendNotification(n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Notifications = append(s.state.Notifications, n)
	if err := s.flushLocked(); err != nil {
		s.state.Notifications = s.state.Notifications[:len(s.state.Notifications)-1]
		return err
	}
	return nil
}

// Notifications returns the full log, oldest first.
func (s *StateStore) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, len(s.state.Notifications))
	copy(out, s.state.Notifications)
	return out
}

func (s *StateStore) flushLocked() error {
	if err := writeJSONAtomic(s.path, s.state); err != nil {
		return fmt.Errorf("flush state store: %w", err)
	}
	return nil
}
