package alerting

import "firewatch-backend/internal/model"

// recoveryMargin is the hysteresis band: a counter resets only once the
// reading is back past the bound by this much, so readings hovering at the
// threshold cannot flap.
const recoveryMargin = 3.0

// fireThreshold is the counter value at which a condition transitions to
// firing and emits its notification.
const fireThreshold = 3

type polarity int

const (
	above polarity = iota // breach when value > bound
	below                 // breach when value < bound
)

// condition binds one monitored metric to its bound and counter slots in
// the device's AlertConfig.
type condition struct {
	field    string
	message  string
	polarity polarity
	bound    func(*model.AlertConfig) float64
	counter  func(*model.AlertConfig) *int
}

// Evaluation order is fixed; each condition is guarded independently
// against a missing field.
var conditions = []condition{
	{
		field:    "temperature",
		message:  "Temperature is dangerously high",
		polarity: above,
		bound:    func(c *model.AlertConfig) float64 { return c.TMax },
		counter:  func(c *model.AlertConfig) *int { return &c.CounterTMax },
	},
	{
		field:    "humidity",
		message:  "Humidity is dangerously low",
		polarity: below,
		bound:    func(c *model.AlertConfig) float64 { return c.HMin },
		counter:  func(c *model.AlertConfig) *int { return &c.CounterHMin },
	},
	{
		field:    "gas_concentration",
		message:  "Gas concentration is dangerously high",
		polarity: above,
		bound:    func(c *model.AlertConfig) float64 { return c.GasMax },
		counter:  func(c *model.AlertConfig) *int { return &c.CounterGas },
	},
	{
		field:    "ir_data",
		message:  "Infrared reading is dangerously high",
		polarity: above,
		bound:    func(c *model.AlertConfig) float64 { return c.IRMax },
		counter:  func(c *model.AlertConfig) *int { return &c.CounterIR },
	},
}

func (c condition) breached(value, bound float64) bool {
	if c.polarity == above {
		return value > bound
	}
	return value < bound
}

func (c condition) recovered(value, bound float64) bool {
	if c.polarity == above {
		return value < bound-recoveryMargin
	}
	return value > bound+recoveryMargin
}
