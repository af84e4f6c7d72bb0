package platform

import (
	"context"
	"testing"
	"time"

	"uartled-go/errcode"
	"uartled-go/types"
)

func simCfg() types.LEDConfig {
	return types.LEDConfig{
		Device: DeviceSim,
		UART:   types.SerialConfig{ID: "uart0", Baud: 9600},
		LEDPin: 25,
	}
}

func TestOpen_SimAndClaims(t *testing.T) {
	r, err := Open("ledctl", simCfg())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Release()

	if r.Port != Sim().UART || r.Pin != Sim().Pin {
		t.Errorf("sim resources not returned")
	}
	if got := Sim().UART.Baud(); got != 9600 {
		t.Errorf("baud = %d", got)
	}

	if _, err := Open("other", simCfg()); errcode.Of(err) != errcode.PortInUse {
		t.Errorf("second owner: err=%v want port_in_use", err)
	}

	cfg := simCfg()
	cfg.UART.ID = "uart1"
	if _, err := Open("other", cfg); errcode.Of(err) != errcode.PinInUse {
		t.Errorf("pin clash: err=%v want pin_in_use", err)
	}

	// The failed pin claim must not leave uart1 claimed.
	cfg.LEDPin = 2
	r2, err := Open("other", cfg)
	if err != nil {
		t.Fatalf("Open uart1: %v", err)
	}
	r2.Release()
}

func TestOpen_ReleaseFreesClaims(t *testing.T) {
	r, err := Open("a", simCfg())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r.Release()
	r.Release()

	r, err = Open("b", simCfg())
	if err != nil {
		t.Fatalf("reopen after release: %v", err)
	}
	r.Release()
}

func TestOpen_ActiveLowInverts(t *testing.T) {
	cfg := simCfg()
	cfg.ActiveLow = true
	r, err := Open("ledctl", cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Release()

	if err := r.Pin.ConfigureOutput(false); err != nil {
		t.Fatal(err)
	}
	if !Sim().Pin.Get() {
		t.Errorf("logical off should drive line high")
	}
	r.Pin.Set(true)
	if Sim().Pin.Get() || !r.Pin.Get() {
		t.Errorf("logical on should drive line low")
	}
}

func TestOpen_UnknownDevice(t *testing.T) {
	cfg := simCfg()
	cfg.Device = "toaster"
	if _, err := Open("ledctl", cfg); errcode.Of(err) != errcode.Unsupported {
		t.Errorf("err=%v want unsupported", err)
	}
	// Claims are released on failure.
	r, err := Open("ledctl2", simCfg())
	if err != nil {
		t.Fatalf("claims leaked: %v", err)
	}
	r.Release()
}

func TestRxQueue_OverflowAndRecv(t *testing.T) {
	q := newRxQueue(4)
	q.push([]byte("abcdef"))
	if q.Buffered() != 4 || q.Dropped() != 2 {
		t.Fatalf("buffered=%d dropped=%d", q.Buffered(), q.Dropped())
	}

	buf := make([]byte, 3)
	n, _ := q.RecvSomeContext(context.Background(), buf)
	if string(buf[:n]) != "abc" {
		t.Errorf("first read %q", buf[:n])
	}
	n, _ = q.Read(buf)
	if string(buf[:n]) != "d" {
		t.Errorf("second read %q", buf[:n])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if n, err := q.RecvSomeContext(ctx, buf); n != 0 || err == nil {
		t.Errorf("expected timeout, got n=%d err=%v", n, err)
	}
}

func TestFakeUART_CapturesTX(t *testing.T) {
	u := NewFakeUART()
	_, _ = u.Write([]byte("b"))
	_, _ = u.Write([]byte("s"))
	if string(u.TX()) != "bs" {
		t.Errorf("tx = %q", u.TX())
	}
}

func TestOpen_SimAppliesLineFormat(t *testing.T) {
	cfg := simCfg()
	cfg.UART.Baud = 19200
	cfg.UART.Parity = types.ParityEven
	r, err := Open("ledctl", cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Release()
	defer func() { _ = Sim().UART.SetFormat(8, 1, "none") }()

	if got := Sim().UART.Baud(); got != 19200 {
		t.Errorf("baud = %d", got)
	}
	if got := Sim().UART.Parity(); got != "even" {
		t.Errorf("parity = %q", got)
	}
}

func TestRxQueue_CancelledRecvLeavesBytes(t *testing.T) {
	q := newRxQueue(8)
	q.push([]byte("s"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	buf := make([]byte, 4)
	if n, err := q.RecvSomeContext(ctx, buf); n != 0 || err == nil {
		t.Fatalf("cancelled recv took %d bytes (err=%v)", n, err)
	}
	if q.Buffered() != 1 {
		t.Errorf("buffered=%d want 1", q.Buffered())
	}
}
