// Package powctl provides the device model shared by all power-control drivers:
// opaque device codes, the code registry, the generic driver base and the
// lock/retry composition used around every hardware transaction.
package powctl

import "fmt"

// DeviceCode is an opaque identifier for one concrete device instance.
type DeviceCode uint32

// Well-known device codes.
const (
	DeviceCodeBq24193 DeviceCode = 0x39000001 // battery charger
)

func (c DeviceCode) String() string {
	return fmt.Sprintf("0x%08x", uint32(c))
}

// DeviceType is the discriminant carried by every Device.
type DeviceType uint8

const (
	DeviceTypeCharger DeviceType = iota + 1
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeCharger:
		return "charger"
	default:
		return "unknown"
	}
}

// Device is a handle for one physical peripheral instance.
type Device interface {
	DeviceType() DeviceType
}

// Typed is implemented by concrete device types so SafeCast can check the
// discriminant before the type assertion.
type Typed interface {
	Device
	StaticDeviceType() DeviceType
}

// SafeCast downcasts d to its concrete type. Callers are trusted: a nil device,
// a discriminant mismatch or a wrong concrete type is a programming error and
// panics.
func SafeCast[T Typed](d Device) T {
	if d == nil {
		panic("powctl: SafeCast of nil device")
	}
	t, ok := d.(T)
	if !ok {
		panic(fmt.Sprintf("powctl: SafeCast: device of type %s is %T", d.DeviceType(), d))
	}
	if want := t.StaticDeviceType(); d.DeviceType() != want {
		panic(fmt.Sprintf("powctl: SafeCast: discriminant %s, want %s", d.DeviceType(), want))
	}
	return t
}
