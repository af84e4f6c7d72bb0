// services/ledctl/internal/uartio/uart_worker.go
package uartio

import (
	"context"
	"sync/atomic"
	"time"

	"uartled-go/services/ledctl/internal/halcore"
	"uartled-go/x/mathx"
)

// Event carries one chunk of received bytes, in arrival order.
type Event struct {
	DevID string
	Data  []byte
	TS    time.Time
}

type ReaderCfg struct {
	DevID    string
	Port     halcore.UARTPort
	MaxFrame int // clamp 16..256
}

type Worker struct {
	outQ    chan Event
	dropped atomic.Uint32
}

func New(outBuf int) *Worker {
	if outBuf <= 0 {
		outBuf = 64
	}
	return &Worker{outQ: make(chan Event, outBuf)}
}

func (w *Worker) Events() <-chan Event { return w.outQ }

// Dropped counts bytes discarded because the consumer fell behind.
func (w *Worker) Dropped() uint32 { return w.dropped.Load() }

// Register starts a bounded reader goroutine for a UART port. The returned
// stop func cancels the reader and waits for it to exit; once it returns
// the reader takes no more bytes off the port.
func (w *Worker) Register(ctx context.Context, cfg ReaderCfg) (func(), error) {
	max := mathx.Clamp(cfg.MaxFrame, 16, 256)
	cctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		buf := make([]byte, max)

		emit := func(n int) {
			payload := append([]byte(nil), buf[:n]...)
			select {
			case w.outQ <- Event{DevID: cfg.DevID, Data: payload, TS: time.Now()}:
			default:
				w.dropped.Add(uint32(n))
			}
		}

		// Bytes may already be waiting from before registration.
		for cctx.Err() == nil && cfg.Port.Buffered() > 0 {
			n, _ := cfg.Port.Read(buf)
			if n <= 0 {
				break
			}
			emit(n)
		}

		for {
			select {
			case <-cctx.Done():
				return
			case <-cfg.Port.Readable():
				// Coalesced wake: drain until empty. Bound each wait to
				// assist shutdown.
				for cctx.Err() == nil {
					rctx, rcancel := context.WithTimeout(cctx, 250*time.Millisecond)
					n, _ := cfg.Port.RecvSomeContext(rctx, buf)
					rcancel()
					if n <= 0 {
						break
					}
					emit(n)
					if cfg.Port.Buffered() == 0 {
						break
					}
				}
			}
		}
	}()

	stop := func() {
		cancel()
		<-done
	}
	return stop, nil
}
