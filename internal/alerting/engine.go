// Package alerting tracks per-device breach counters against configured
// thresholds and emits a notification when a counter reaches the firing
// threshold.
package alerting

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"firewatch-backend/internal/model"
	"firewatch-backend/internal/storage"
)

// Engine evaluates ingested points. Each (device, condition) pair is a
// small state machine: counter 0 is normal, 1..fireThreshold-1 elevated,
// and the step onto fireThreshold fires exactly one notification while the
// counter keeps accumulating until a recovery resets it.
type Engine struct {
	state  *storage.StateStore
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	devices map[string]*sync.Mutex
}

func NewEngine(state *storage.StateStore, logger *slog.Logger) *Engine {
	return &Engine{
		state:   state,
		logger:  logger,
		now:     time.Now,
		devices: map[string]*sync.Mutex{},
	}
}

// Evaluate runs every condition against one ingested point and returns the
// notifications fired by it. A device without an alert config is a logged
// no-op; ingestion must never fail on a configuration gap. Evaluations
// for the same device are serialized.
func (e *Engine) Evaluate(point model.DataPoint) ([]model.Notification, error) {
	lock := e.deviceLock(point.DeviceID)
	lock.Lock()
	defer lock.Unlock()

	var fired []model.Notification
	err := e.state.UpdateCounters(point.DeviceID, func(cfg *model.AlertConfig) []model.Notification {
		fired = e.step(point, cfg)
		return fired
	})
	if errors.Is(err, storage.ErrNotFound) {
		e.logger.Debug("no alert config for device, skipping evaluation",
			slog.String("device_id", point.DeviceID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fired, nil
}

// step applies the fixed transition order: breach checks, then recovery
// checks, then notification checks. Conditions with a missing field are
// skipped individually.
func (e *Engine) step(point model.DataPoint, cfg *model.AlertConfig) []model.Notification {
	type pending struct {
		cond  condition
		value float64
	}
	evaluable := make([]pending, 0, len(conditions))
	for _, cond := range conditions {
		value, ok := point.NumericField(cond.field)
		if !ok {
			continue
		}
		evaluable = append(evaluable, pending{cond: cond, value: value})
	}

	for _, p := range evaluable {
		if p.cond.breached(p.value, p.cond.bound(cfg)) {
			*p.cond.counter(cfg)++
		}
	}
	for _, p := range evaluable {
		counter := p.cond.counter(cfg)
		if *counter > 0 && p.cond.recovered(p.value, p.cond.bound(cfg)) {
			*counter = 0
		}
	}

	var fired []model.Notification
	for _, p := range evaluable {
		if *p.cond.counter(cfg) != fireThreshold {
			continue
		}
		if !p.cond.breached(p.value, p.cond.bound(cfg)) {
			// Counter sat at the threshold already; only the breach that
			// stepped onto it fires.
			continue
		}
		fired = append(fired, model.Notification{
			ID:        uuid.NewString(),
			DeviceID:  point.DeviceID,
			Message:   p.cond.message,
			EmittedAt: e.now().UTC(),
		})
	}
	return fired
}

func (e *Engine) deviceLock(deviceID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.devices[deviceID]
	if !ok {
		lock = &sync.Mutex{}
		e.devices[deviceID] = lock
	}
	return lock
}
