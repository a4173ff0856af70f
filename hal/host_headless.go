//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// hostQuitByte (Ctrl-]) leaves a raw-mode session.
const hostQuitByte = 0x1d

// ErrHostQuit reports that the user left a headless session.
var ErrHostQuit = errors.New("host quit")

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Host HostConfig
	// Hz is the frame rate the app step runs at.
	Hz int
	// Ticks stops the runner after that many frames (0 = run forever).
	Ticks uint64
	// Input is typed into the PS/2 port. A terminal is put into raw mode.
	Input io.Reader
}

// RunHeadless runs the OS without opening a window. It returns a
// *ShutdownError when the OS powers the machine off.
func RunHeadless(ctx context.Context, newApp AppFactory, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	h := NewHost(cfg.Host)
	step, err := newApp(h)
	if err != nil {
		return err
	}

	if f, ok := cfg.Input.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		old, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("raw mode: %w", err)
		}
		defer term.Restore(int(f.Fd()), old)
	}

	g, ctx := errgroup.WithContext(ctx)
	quit := make(chan struct{})
	if cfg.Input != nil {
		// Not part of the group: a blocked Read cannot be interrupted.
		go pumpInput(cfg.Input, h.ps2, quit)
	}

	g.Go(func() error { return h.pit.Run(ctx) })
	g.Go(func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-quit:
			return ErrHostQuit
		case <-h.power.Done():
			return &ShutdownError{Code: h.power.Code()}
		}
	})
	g.Go(func() error {
		t := time.NewTicker(d)
		defer t.Stop()

		var frame uint64
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				if step != nil {
					if err := step(); err != nil {
						return err
					}
				}
				frame++
				if cfg.Ticks > 0 && frame >= cfg.Ticks {
					return errFramesDone
				}
			}
		}
	})

	err = g.Wait()
	h.power.Shutdown(0)
	if errors.Is(err, errFramesDone) {
		return nil
	}
	return err
}

var errFramesDone = errors.New("frame budget reached")

func pumpInput(r io.Reader, port *PS2Port, quit chan<- struct{}) {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if b == hostQuitByte {
				close(quit)
				return
			}
			port.Inject(ScancodesForByte(b)...)
		}
		if err != nil {
			return
		}
	}
}
