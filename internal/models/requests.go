package models

// ChargerUpdate is the PATCH body for the charger. Nil fields are left alone.
// Fields are applied in declaration order.
type ChargerUpdate struct {
	Configuration          *string `json:"configuration,omitempty"` // charge_disable | charge_battery | otg
	ChargeCurrentState     *string `json:"charge_current_state,omitempty"`
	FastChargeCurrentLimit *int    `json:"fast_charge_current_limit_ma,omitempty"`
	ChargeVoltageLimit     *int    `json:"charge_voltage_limit_mv,omitempty"`
	InputCurrentLimit      *int    `json:"input_current_limit_ma,omitempty"`
	InputVoltageLimit      *int    `json:"input_voltage_limit_mv,omitempty"`
	BoostModeCurrentLimit  *int    `json:"boost_mode_current_limit_ma,omitempty"`
	HiZEnabled             *bool   `json:"hiz_enabled,omitempty"`
	BatteryCompensation    *int    `json:"battery_compensation_mohm,omitempty"`
	VoltageClamp           *int    `json:"voltage_clamp_mv,omitempty"`
	WatchdogTimeoutSec     *int    `json:"watchdog_timeout_s,omitempty"`
	WatchdogEnabled        *bool   `json:"watchdog_enabled,omitempty"`
}

// InterruptUpdate is the PUT body for the interrupt-enable switch.
type InterruptUpdate struct {
	Enabled bool `json:"enabled"`
}
