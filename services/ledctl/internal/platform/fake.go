package platform

import (
	"sync"
)

// ----------------------------- GPIO (fake) -----------------------------------

// FakePin implements halcore.GPIOPin for host-side tests and the "sim" device.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	writes  int
}

func NewFakePin(n int) *FakePin { return &FakePin{number: n} }

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	p.writes++
	p.mu.Unlock()
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.level
}

func (p *FakePin) Number() int { return p.number }

// IsOutput reports whether ConfigureOutput has been called.
func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

// Writes counts Set calls since creation.
func (p *FakePin) Writes() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.writes
}

// ----------------------------- UART (fake) -----------------------------------

// FakeUART implements halcore.UARTPort. Inject plays the role of the RX
// interrupt; bytes written are captured for inspection.
type FakeUART struct {
	*rxQueue

	mu     sync.Mutex
	tx     []byte
	baud   uint32
	parity string
}

func NewFakeUART() *FakeUART { return &FakeUART{rxQueue: newRxQueue(256)} }

// Inject delivers bytes as if received on the line.
func (u *FakeUART) Inject(p []byte) { u.push(p) }

func (u *FakeUART) Write(p []byte) (int, error) {
	u.mu.Lock()
	u.tx = append(u.tx, p...)
	u.mu.Unlock()
	return len(p), nil
}

// TX returns a copy of everything written so far.
func (u *FakeUART) TX() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]byte(nil), u.tx...)
}

func (u *FakeUART) SetBaudRate(br uint32) error {
	u.mu.Lock()
	u.baud = br
	u.mu.Unlock()
	return nil
}

func (u *FakeUART) SetFormat(_, _ uint8, parity string) error {
	u.mu.Lock()
	u.parity = parity
	u.mu.Unlock()
	return nil
}

// Baud returns the last rate set.
func (u *FakeUART) Baud() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.baud
}

// Parity returns the last parity set through SetFormat.
func (u *FakeUART) Parity() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.parity
}
