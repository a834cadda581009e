// Package models defines the JSON documents served by the powctl HTTP API.
package models

import "time"

// ChargerState is a point-in-time read of every charger parameter.
type ChargerState struct {
	Code                   string `json:"code"`
	ChargeCurrentState     string `json:"charge_current_state"`
	Status                 string `json:"status"`
	FastChargeCurrentLimit int    `json:"fast_charge_current_limit_ma"`
	ChargeVoltageLimit     int    `json:"charge_voltage_limit_mv"`
	InputCurrentLimit      int    `json:"input_current_limit_ma"`
	HiZEnabled             bool   `json:"hiz_enabled"`
	BatteryCompensation    int    `json:"battery_compensation_mohm"`
	VoltageClamp           int    `json:"voltage_clamp_mv"`
	WatchdogEnabled        bool   `json:"watchdog_enabled"`
	WatchdogTimeoutSec     int    `json:"watchdog_timeout_s"`
}

// DeviceInfo describes one registered device code.
type DeviceInfo struct {
	Code string `json:"code"`
	Type string `json:"type"`
}

// Notification is published whenever the charger interrupt fires.
type Notification struct {
	Code               string    `json:"code"`
	Status             string    `json:"status,omitempty"`
	ChargeCurrentState string    `json:"charge_current_state,omitempty"`
	Error              string    `json:"error,omitempty"`
	Time               time.Time `json:"time"`
}
