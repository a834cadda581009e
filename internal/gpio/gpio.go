// Package gpio is the GPIO subsystem used by power-control drivers: pad
// sessions keyed by device code, opened exclusively and driven as plain
// boolean lines.
package gpio

import (
	"errors"
	"fmt"
	"time"
)

// DeviceCode identifies one pad.
type DeviceCode uint32

// Pads used by the charger.
const (
	DeviceCodeBattChgEnableN DeviceCode = 0x33000002 // active-low charge enable
	DeviceCodeBq24190Irq     DeviceCode = 0x33000003 // charger interrupt, active low
)

func (c DeviceCode) String() string {
	switch c {
	case DeviceCodeBattChgEnableN:
		return "BattChgEnableN"
	case DeviceCodeBq24190Irq:
		return "Bq24190Irq"
	default:
		return fmt.Sprintf("0x%08x", uint32(c))
	}
}

// Direction of a pad.
type Direction uint8

const (
	DirectionInput Direction = iota
	DirectionOutput
)

// Value is the logic level of a pad.
type Value uint8

const (
	ValueLow Value = iota
	ValueHigh
)

func (v Value) String() string {
	if v == ValueHigh {
		return "high"
	}
	return "low"
}

var (
	ErrNotInitialized = errors.New("gpio: not initialized")
	ErrUnknownPad     = errors.New("gpio: unknown pad")
	ErrPadInUse       = errors.New("gpio: pad in use")
	ErrSessionClosed  = errors.New("gpio: session closed")
)

// Pad is an open session on one pad. The session owner has exclusive use of
// the pad until Close.
type Pad interface {
	SetDirection(dir Direction) error
	SetValue(v Value) error
	GetValue() Value
	Close() error
}

// Controller opens pad sessions.
type Controller interface {
	Initialize() error
	Finalize()
	OpenSession(code DeviceCode) (Pad, error)
}

// EdgeWaiter blocks until an edge is seen on an input pad or the timeout
// elapses. periph.io gpio.PinIn satisfies it.
type EdgeWaiter interface {
	WaitForEdge(timeout time.Duration) bool
}
