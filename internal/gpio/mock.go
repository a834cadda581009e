package gpio

import (
	"fmt"
	"sync"
)

// Mock is a thread-safe in-memory GPIO controller for testing and development.
type Mock struct {
	mu          sync.Mutex
	ready       bool
	initCount   int
	values      map[DeviceCode]Value
	directions  map[DeviceCode]Direction
	open        map[DeviceCode]bool
	writes      map[DeviceCode][]Value
	failOpen    error
	failSetting error
}

// NewMock creates a mock controller. Every pad reads low until written.
func NewMock() *Mock {
	return &Mock{
		values:     make(map[DeviceCode]Value),
		directions: make(map[DeviceCode]Direction),
		open:       make(map[DeviceCode]bool),
		writes:     make(map[DeviceCode][]Value),
	}
}

// SetFailOpen makes OpenSession fail with err (nil restores normal behavior).
func (m *Mock) SetFailOpen(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOpen = err
}

// SetFailWrite makes SetValue and SetDirection fail with err.
func (m *Mock) SetFailWrite(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSetting = err
}

// SetLevel forces the level seen by GetValue, as if driven externally.
func (m *Mock) SetLevel(code DeviceCode, v Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[code] = v
}

// Level returns the current level of a pad.
func (m *Mock) Level(code DeviceCode) Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[code]
}

// Direction returns the configured direction of a pad.
func (m *Mock) Direction(code DeviceCode) Direction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.directions[code]
}

// Writes returns every value written to a pad, oldest first.
func (m *Mock) Writes(code DeviceCode) []Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Value, len(m.writes[code]))
	copy(out, m.writes[code])
	return out
}

// IsOpen reports whether a session is open on the pad.
func (m *Mock) IsOpen(code DeviceCode) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open[code]
}

// IsInitialized reports whether Initialize has been called without Finalize.
func (m *Mock) IsInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *Mock) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = true
	m.initCount++
	return nil
}

func (m *Mock) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = false
}

func (m *Mock) OpenSession(code DeviceCode) (Pad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return nil, ErrNotInitialized
	}
	if m.failOpen != nil {
		return nil, m.failOpen
	}
	if m.open[code] {
		return nil, fmt.Errorf("%w: %s", ErrPadInUse, code)
	}
	m.open[code] = true
	return &mockPad{m: m, code: code}, nil
}

type mockPad struct {
	m      *Mock
	code   DeviceCode
	closed bool
}

func (p *mockPad) SetDirection(dir Direction) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if p.closed {
		return ErrSessionClosed
	}
	if p.m.failSetting != nil {
		return p.m.failSetting
	}
	p.m.directions[p.code] = dir
	return nil
}

func (p *mockPad) SetValue(v Value) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if p.closed {
		return ErrSessionClosed
	}
	if p.m.failSetting != nil {
		return p.m.failSetting
	}
	if p.m.directions[p.code] != DirectionOutput {
		return fmt.Errorf("gpio: %s is not an output", p.code)
	}
	p.m.values[p.code] = v
	p.m.writes[p.code] = append(p.m.writes[p.code], v)
	return nil
}

func (p *mockPad) GetValue() Value {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	return p.m.values[p.code]
}

func (p *mockPad) Close() error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	delete(p.m.open, p.code)
	return nil
}

// Ensure Mock implements Controller
var _ Controller = (*Mock)(nil)
var _ Controller = (*PeriphController)(nil)
