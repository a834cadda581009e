package gpio

import (
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphController drives pads through periph.io. Pads are mapped from device
// codes to host pin names (BCM numbering on a Raspberry Pi, e.g. "GPIO17").
type PeriphController struct {
	mu    sync.Mutex
	pins  map[DeviceCode]string
	open  map[DeviceCode]bool
	ready bool
}

// NewPeriph creates a controller for the given code → pin name map.
func NewPeriph(pins map[DeviceCode]string) *PeriphController {
	m := make(map[DeviceCode]string, len(pins))
	for c, n := range pins {
		m[c] = n
	}
	return &PeriphController{pins: m, open: make(map[DeviceCode]bool)}
}

// Initialize loads the periph.io host drivers.
func (c *PeriphController) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("gpio: host init failed: %w", err)
	}
	c.ready = true
	return nil
}

// Finalize marks the controller unusable; open sessions must be closed first.
func (c *PeriphController) Finalize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.open) > 0 {
		slog.Warn("gpio: finalize with open sessions", "open", len(c.open))
	}
	c.ready = false
}

func (c *PeriphController) lookup(code DeviceCode) (gpio.PinIO, error) {
	if !c.ready {
		return nil, ErrNotInitialized
	}
	name, ok := c.pins[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no pin mapping", ErrUnknownPad, code)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: failed to open %s (%s)", ErrUnknownPad, name, code)
	}
	return p, nil
}

// OpenSession claims the pad for code.
func (c *PeriphController) OpenSession(code DeviceCode) (Pad, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open[code] {
		return nil, fmt.Errorf("%w: %s", ErrPadInUse, code)
	}
	p, err := c.lookup(code)
	if err != nil {
		return nil, err
	}
	c.open[code] = true
	slog.Debug("gpio: session opened", "pad", code, "pin", p.Name())
	return &periphPad{ctl: c, code: code, pin: p}, nil
}

// OpenInterrupt configures the pad for code as a pulled-up input that reports
// falling edges, the idle state of an active-low interrupt line.
func (c *PeriphController) OpenInterrupt(code DeviceCode) (EdgeWaiter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.lookup(code)
	if err != nil {
		return nil, err
	}
	if err := p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("gpio: failed to arm %s edge detection: %w", code, err)
	}
	return p, nil
}

func (c *PeriphController) release(code DeviceCode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.open, code)
}

type periphPad struct {
	mu     sync.Mutex
	ctl    *PeriphController
	code   DeviceCode
	pin    gpio.PinIO
	dir    Direction
	closed bool
}

func (p *periphPad) SetDirection(dir Direction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrSessionClosed
	}
	var err error
	switch dir {
	case DirectionOutput:
		// Keep the current level so switching direction does not glitch the line.
		err = p.pin.Out(p.pin.Read())
	default:
		err = p.pin.In(gpio.PullNoChange, gpio.NoEdge)
	}
	if err != nil {
		return fmt.Errorf("gpio: set direction on %s: %w", p.code, err)
	}
	p.dir = dir
	return nil
}

func (p *periphPad) SetValue(v Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrSessionClosed
	}
	if p.dir != DirectionOutput {
		return fmt.Errorf("gpio: %s is not an output", p.code)
	}
	if err := p.pin.Out(gpio.Level(v == ValueHigh)); err != nil {
		return fmt.Errorf("gpio: drive %s %s: %w", p.code, v, err)
	}
	return nil
}

func (p *periphPad) GetValue() Value {
	if p.pin.Read() == gpio.High {
		return ValueHigh
	}
	return ValueLow
}

func (p *periphPad) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.ctl.release(p.code)
	// Leave the line driven; Halt only stops background edge detection.
	if err := p.pin.Halt(); err != nil {
		slog.Debug("gpio: halt failed", "pad", p.code, "err", err)
	}
	return nil
}

var _ EdgeWaiter = gpio.PinIn(nil)
