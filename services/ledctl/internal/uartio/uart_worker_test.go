package uartio

import (
	"context"
	"sync"
	"testing"
	"time"
)

// --- minimal fake UART implementing halcore.UARTPort ---

type fakeUART struct {
	mu sync.Mutex
	rx []byte
	rd chan struct{}
}

func newFakeUART() *fakeUART { return &fakeUART{rd: make(chan struct{}, 1)} }

func (f *fakeUART) inject(b []byte) {
	f.mu.Lock()
	f.rx = append(f.rx, b...)
	f.mu.Unlock()
	select {
	case f.rd <- struct{}{}:
	default:
	}
}

func (f *fakeUART) Write(p []byte) (int, error) { return len(p), nil }
func (f *fakeUART) Buffered() int               { f.mu.Lock(); n := len(f.rx); f.mu.Unlock(); return n }
func (f *fakeUART) Read(p []byte) (int, error) {
	f.mu.Lock()
	n := copy(p, f.rx)
	f.rx = f.rx[n:]
	f.mu.Unlock()
	return n, nil
}
func (f *fakeUART) Readable() <-chan struct{} { return f.rd }
func (f *fakeUART) RecvSomeContext(ctx context.Context, p []byte) (int, error) {
	if n := f.Buffered(); n > 0 {
		return f.Read(p)
	}
	select {
	case <-f.rd:
		return f.Read(p)
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// --- helpers ---

func recvEvent(ch <-chan Event, d time.Duration) (Event, bool) {
	select {
	case ev := <-ch:
		return ev, true
	case <-time.After(d):
		return Event{}, false
	}
}

// --- tests ---

func TestUARTWorker_EmitsChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	u := newFakeUART()
	w := New(8)
	stop, err := w.Register(ctx, ReaderCfg{DevID: "uart0", Port: u, MaxFrame: 16})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	defer stop()

	u.inject([]byte("bs"))
	ev, ok := recvEvent(w.Events(), time.Second)
	if !ok {
		t.Fatalf("timeout waiting for rx")
	}
	if ev.DevID != "uart0" {
		t.Errorf("unexpected dev: %q", ev.DevID)
	}
	if string(ev.Data) != "bs" {
		t.Errorf("unexpected data: %q", string(ev.Data))
	}
	if ev.TS.IsZero() {
		t.Errorf("timestamp not set")
	}

	u.inject([]byte("x"))
	ev, ok = recvEvent(w.Events(), time.Second)
	if !ok || string(ev.Data) != "x" {
		t.Errorf("second chunk: ok=%v data=%q", ok, ev.Data)
	}
}

func TestUARTWorker_SplitsAtMaxFrame(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	u := newFakeUART()
	w := New(8)
	stop, _ := w.Register(ctx, ReaderCfg{DevID: "uart0", Port: u, MaxFrame: 4}) // clamped to 16
	defer stop()

	src := []byte("ABCDEFGHIJKLMNOPQRST") // 20 bytes
	u.inject(src)

	var got []byte
	deadline := time.After(time.Second)
	for len(got) < len(src) {
		select {
		case ev := <-w.Events():
			if len(ev.Data) > 16 {
				t.Fatalf("chunk larger than frame: %d", len(ev.Data))
			}
			got = append(got, ev.Data...)
		case <-deadline:
			t.Fatalf("timeout; got %q", got)
		}
	}
	if string(got) != string(src) {
		t.Errorf("reassembled %q want %q", got, src)
	}
}

func TestUARTWorker_DrainsPendingOnRegister(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	u := newFakeUART()
	u.mu.Lock()
	u.rx = []byte("B")
	u.mu.Unlock()

	w := New(4)
	stop, _ := w.Register(ctx, ReaderCfg{DevID: "uart1", Port: u})
	defer stop()

	ev, ok := recvEvent(w.Events(), time.Second)
	if !ok || string(ev.Data) != "B" {
		t.Errorf("pending byte not delivered: ok=%v data=%q", ok, ev.Data)
	}
}

func TestUARTWorker_DropsWhenConsumerSlow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	u := newFakeUART()
	w := New(1)
	stop, _ := w.Register(ctx, ReaderCfg{DevID: "uart0", Port: u, MaxFrame: 16})
	defer stop()

	for i := 0; i < 4; i++ {
		u.inject([]byte{'b'})
		time.Sleep(20 * time.Millisecond)
	}
	deadline := time.Now().Add(500 * time.Millisecond)
	for w.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if w.Dropped() == 0 {
		t.Errorf("expected dropped bytes")
	}
}

func TestUARTWorker_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	u := newFakeUART()
	w := New(4)
	stop, _ := w.Register(ctx, ReaderCfg{DevID: "uart0", Port: u})
	stop()
	cancel()
	time.Sleep(20 * time.Millisecond)

	u.inject([]byte("b"))
	if _, ok := recvEvent(w.Events(), 100*time.Millisecond); ok {
		t.Errorf("event after stop")
	}
}

func TestUARTWorker_StopWaitsForReader(t *testing.T) {
	u := newFakeUART()
	for i := 0; i < 20; i++ {
		w := New(4)
		stop, _ := w.Register(context.Background(), ReaderCfg{DevID: "uart0", Port: u})
		stop()

		// A stopped reader must leave new bytes for the next one.
		u.inject([]byte("s"))
		time.Sleep(5 * time.Millisecond)
		if n := u.Buffered(); n != 1 {
			t.Fatalf("round %d: buffered=%d after stop, byte taken by stopped reader", i, n)
		}
		buf := make([]byte, 4)
		_, _ = u.Read(buf)
	}
}
