package powctl

import (
	"context"
	"fmt"
	"sync"

	"github.com/micro-nova/powctl-go/internal/events"
)

// Driver is the type-agnostic API every concrete power-control driver exposes.
type Driver interface {
	// InitializeDriver brings up the driver's collaborators and registers its
	// devices. Errors are not unwound: callers treat them as fatal.
	InitializeDriver(ctx context.Context) error

	// FinalizeDriver performs the exact inverse of InitializeDriver.
	FinalizeDriver(ctx context.Context)

	// GetDeviceSystemEvent returns the manual-clear event signaled by the
	// device's interrupt line. It fails with ErrNotAvailable for a device built
	// without event-handler mode.
	GetDeviceSystemEvent(dev Device) (*events.SystemEvent, error)

	// SetDeviceInterruptEnabled toggles whether interrupts reach the event.
	SetDeviceInterruptEnabled(dev Device, enable bool) error

	GetDeviceErrorStatus(dev Device) (uint32, error)
	SetDeviceErrorStatus(dev Device, status uint32) error
}

// DriverBase holds the state common to every driver: its device set, the
// mutex serializing hardware sequences and the event-handler mode flag.
// Concrete drivers embed it.
type DriverBase struct {
	mu           sync.Mutex // hardware sequences
	eventHandler bool

	devMu   sync.Mutex
	devices []Device
}

// NewDriverBase returns a base with the given event-handler mode.
func NewDriverBase(eventHandler bool) DriverBase {
	return DriverBase{eventHandler: eventHandler}
}

// Mutex returns the lock that serializes this driver's hardware access.
func (b *DriverBase) Mutex() *sync.Mutex { return &b.mu }

// IsEventHandlerEnabled reports whether devices are built in event-handler mode.
func (b *DriverBase) IsEventHandlerEnabled() bool { return b.eventHandler }

// RegisterDevice adds dev to the driver's device set.
func (b *DriverBase) RegisterDevice(dev Device) {
	b.devMu.Lock()
	defer b.devMu.Unlock()
	for _, d := range b.devices {
		if d == dev {
			panic(fmt.Sprintf("powctl: device %p registered twice", dev))
		}
	}
	b.devices = append(b.devices, dev)
}

// UnregisterDevice removes dev from the driver's device set. Removing a device
// that is not registered is a contract violation and panics.
func (b *DriverBase) UnregisterDevice(dev Device) {
	b.devMu.Lock()
	defer b.devMu.Unlock()
	for i, d := range b.devices {
		if d == dev {
			b.devices = append(b.devices[:i], b.devices[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("powctl: unregister of unknown device %p", dev))
}

// Devices returns a copy of the registered device set.
func (b *DriverBase) Devices() []Device {
	b.devMu.Lock()
	defer b.devMu.Unlock()
	out := make([]Device, len(b.devices))
	copy(out, b.devices)
	return out
}
