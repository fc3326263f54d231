package model

import (
	"encoding/json"
	"time"
)

// AlertConfig holds one device's thresholds and the hysteresis counters the
// alert engine accumulates against them. Counters only ever increment by
// one or reset to zero.
type AlertConfig struct {
	TMax   float64 `json:"t_max"`
	HMin   float64 `json:"h_min"`
	GasMax float64 `json:"gas_max"`
	IRMax  float64 `json:"ir_max"`

	CounterTMax int `json:"counter_tmax"`
	CounterHMin int `json:"counter_hmin"`
	CounterGas  int `json:"counter_gas"`
	CounterIR   int `json:"counter_ir"`
}

// AlertConfigPatch is a partial update; nil fields are left untouched.
type AlertConfigPatch struct {
	TMax   *float64 `json:"t_max"`
	HMin   *float64 `json:"h_min"`
	GasMax *float64 `json:"gas_max"`
	IRMax  *float64 `json:"ir_max"`

	CounterTMax *int `json:"counter_tmax"`
	CounterHMin *int `json:"counter_hmin"`
	CounterGas  *int `json:"counter_gas"`
	CounterIR   *int `json:"counter_ir"`
}

// Apply merges the patch into cfg.
func (p AlertConfigPatch) Apply(cfg *AlertConfig) {
	if p.TMax != nil {
		cfg.TMax = *p.TMax
	}
	if p.HMin != nil {
		cfg.HMin = *p.HMin
	}
	if p.GasMax != nil {
		cfg.GasMax = *p.GasMax
	}
	if p.IRMax != nil {
		cfg.IRMax = *p.IRMax
	}
	if p.CounterTMax != nil {
		cfg.CounterTMax = *p.CounterTMax
	}
	if p.CounterHMin != nil {
		cfg.CounterHMin = *p.CounterHMin
	}
	if p.CounterGas != nil {
		cfg.CounterGas = *p.CounterGas
	}
	if p.CounterIR != nil {
		cfg.CounterIR = *p.CounterIR
	}
}

// Notification records one alert firing. The log is append-only and never
// deduplicated.
type Notification struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Message   string    `json:"message"`
	EmittedAt time.Time `json:"emitted_at"`
}

// State is the persisted configuration blob: the static location registry,
// per-device alert configs, and the notification log. It is read fully at
// startup and rewritten wholesale on every mutation.
type State struct {
	Locations     map[string]json.RawMessage `json:"locations"`
	Alerts        map[string]AlertConfig     `json:"alerts"`
	Notifications []Notification             `json:"notifications"`
}

// NewState returns an empty but fully initialized blob.
func NewState() State {
	return State{
		Locations:     map[string]json.RawMessage{},
		Alerts:        map[string]AlertConfig{},
		Notifications: []Notification{},
	}
}
