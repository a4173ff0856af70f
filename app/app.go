// Package app boots the kernel on a HAL: it wires the interrupt handlers to
// the event bridges, starts the executor and spawns the programs.
package app

import (
	"fmt"
	"io"
	"sync"
	"time"

	"fortio.org/safecast"

	"cbos/bridge"
	"cbos/hal"
	"cbos/internal/buildinfo"
	"cbos/internal/config"
	"cbos/kernel"
	"cbos/keyboard"
	"cbos/programs/shell"
	"cbos/programs/statusline"
	"cbos/services/console"
	"cbos/services/logger"
	"cbos/task"
)

// Option configures Boot.
type Option func(*System)

// WithMirror repaints the console on an ANSI terminal every frame.
func WithMirror(w io.Writer) Option {
	return func(s *System) { s.mirror = console.NewANSIMirror(w) }
}

// WithTee copies program output to w as plain text.
func WithTee(w io.Writer) Option {
	return func(s *System) { s.tee = w }
}

// WithoutFramebuffer skips drawing the console on the HAL display.
func WithoutFramebuffer() Option {
	return func(s *System) { s.noFB = true }
}

// System is a booted kernel.
type System struct {
	h   hal.HAL
	cfg config.Config
	log *logger.Logger

	con       *console.Console
	scancodes *bridge.Scancodes
	ticks     *bridge.Ticks
	exec      *task.Executor

	shell  *shell.Shell
	status *statusline.StatusLine

	// frameMu serializes framebuffer drawing between Step and the panic
	// handler.
	frameMu  sync.Mutex
	renderer *console.Renderer
	mirror   *console.ANSIMirror
	tee      io.Writer
	noFB     bool

	startOnce sync.Once
	done      chan struct{}
	runErr    error
}

// Boot builds the kernel on h. Interrupts stay disabled and no task runs
// until Start.
func Boot(h hal.HAL, cfg config.Config, opts ...Option) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}

	s := &System{
		h:         h,
		cfg:       cfg,
		con:       console.New(),
		scancodes: bridge.NewScancodes(),
		ticks:     bridge.NewTicks(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.New(io.MultiWriter(logger.NewLineWriter(h.Logger()), s.con.Kernel), level)
	s.bootStep("console")

	if s.tee != nil {
		s.con.Stdout.Tee(s.tee)
		s.con.Stderr.Tee(s.tee)
	}
	if !s.noFB {
		if fb := framebuffer(h); fb != nil {
			s.renderer = console.NewRenderer(fb)
		}
	}
	s.installPanicHandler()

	s.exec = task.NewExecutor(h.CPU(),
		task.WithQueueCapacity(cfg.Kernel.ReadyQueue),
		task.WithLogger(logger.Component(s.log, "executor")),
	)
	sp := s.exec.Spawner()

	s.bootStep("interrupts")
	pic := h.PIC()
	pic.Register(hal.VectorTimer, func(v hal.Vector) {
		s.ticks.Tick()
		pic.EndOfInterrupt(v)
	})
	ps2 := h.PS2()
	pic.Register(hal.VectorKeyboard, func(v hal.Vector) {
		s.scancodes.Push(ps2.ReadData())
		pic.EndOfInterrupt(v)
	})

	s.bootStep("programs")
	s.con.Kernel.Printf("Booting cbos %s ...\n", buildinfo.Short())
	if l := h.Logger(); l != nil {
		l.WriteLineString("Booting cbos " + buildinfo.Short() + " ...")
	}

	if cfg.StatusLine.Enabled {
		hz, err := safecast.Conv[uint64](h.PIT().Hz())
		if err != nil {
			return nil, fmt.Errorf("boot: timer rate: %w", err)
		}
		seconds, err := s.ticks.Stream(hz)
		if err != nil {
			return nil, fmt.Errorf("boot: %w", err)
		}
		s.status = statusline.New(cfg.StatusLine.Name, s.con.Status, logger.Component(s.log, "statusline"))
		s.exec.Spawn(task.Spawnable(func(co *task.Co) { s.status.Run(co, seconds) }))
	}

	kb := keyboard.New(keyboard.US104{}, keyboard.Ignore)
	keys, err := s.scancodes.Stream(kb, logger.Component(s.log, "keyboard"))
	if err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}
	s.shell, err = shell.New(shell.Config{
		Out:     s.con.Stdout,
		Err:     s.con.Stderr,
		Keys:    keys,
		Spawner: &sp,
		Ticks:   s.ticks,
		TickHz:  h.PIT().Hz(),
		Power:   powerOff{s},
		Status:  s.status,
		Log:     logger.Component(s.log, "shell"),
		Prompt:  cfg.Shell.Prompt,
		MaxLine: cfg.Shell.MaxLine,
	})
	if err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}
	s.exec.Spawn(s.shell.Task())

	s.bootStep("ready")
	return s, nil
}

// powerOff stops the executor before cutting the power, so the remaining tasks
// are dropped instead of parked on a dead CPU.
type powerOff struct{ s *System }

func (p powerOff) Shutdown(code int) {
	p.s.exec.Stop()
	p.s.h.Power().Shutdown(code)
}

// framebuffer returns the HAL framebuffer, or nil when the board has none to
// draw into.
func framebuffer(h hal.HAL) hal.Framebuffer {
	d := h.Display()
	if d == nil {
		return nil
	}
	fb := d.Framebuffer()
	if fb == nil || fb.Buffer() == nil {
		return nil
	}
	return fb
}

// Console returns the screen the programs write to.
func (s *System) Console() *console.Console { return s.con }

// Ticks returns the timer bridge.
func (s *System) Ticks() *bridge.Ticks { return s.ticks }

// Scancodes returns the keyboard bridge.
func (s *System) Scancodes() *bridge.Scancodes { return s.scancodes }

// Start enables interrupts and runs the executor on its own goroutine.
func (s *System) Start() {
	s.startOnce.Do(func() {
		s.h.CPU().EnableInterrupts()
		go s.Run()
	})
}

// Run drives the executor until every task has completed. A fatal kernel
// error halts the system and never returns.
func (s *System) Run() {
	err := s.exec.Run()
	if err != nil {
		s.log.Emerg().Err(err).Log("kernel fault")
		s.runErr = err
		close(s.done)
		kernel.HaltOnError(err)
	}
	s.log.Info().Log("all tasks completed")
	close(s.done)
}

// Done is closed once Run has returned or halted.
func (s *System) Done() <-chan struct{} { return s.done }

// Err returns the fatal error Run halted on. Only valid after Done.
func (s *System) Err() error { return s.runErr }

// Step is the per-frame hook of the host runners: it draws the console. It
// returns hal.ErrHalted once the kernel has panicked.
func (s *System) Step() error {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	if kernel.InPanicMode() {
		if s.mirror != nil {
			s.mirror.Render(s.con.Screen)
		}
		return hal.ErrHalted
	}
	if s.renderer != nil {
		if _, err := s.renderer.Render(s.con.Screen); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	if s.mirror != nil {
		if _, err := s.mirror.Render(s.con.Screen); err != nil {
			return fmt.Errorf("mirror: %w", err)
		}
	}
	return nil
}

// Factory returns a hal.AppFactory booting and starting a System.
func Factory(cfg config.Config, opts ...Option) hal.AppFactory {
	return func(h hal.HAL) (func() error, error) {
		s, err := Boot(h, cfg, opts...)
		if err != nil {
			return nil, err
		}
		s.Start()
		return s.Step, nil
	}
}

// serialOptions routes program output to the serial port on boards without a
// framebuffer.
func serialOptions(h hal.HAL) []Option {
	if framebuffer(h) != nil {
		return nil
	}
	opts := []Option{WithoutFramebuffer()}
	if port := h.Serial(); port != nil {
		opts = append(opts, WithTee(port))
	}
	return opts
}

// RunForever boots on h, redraws the console at the configured frame rate
// and parks the caller. It is the bare-metal entry.
func RunForever(h hal.HAL, cfg config.Config) {
	s, err := Boot(h, cfg, serialOptions(h)...)
	if err != nil {
		kernel.HaltOnError(err)
	}
	go func() {
		period := time.Second / time.Duration(cfg.Host.FrameHz)
		for s.Step() == nil {
			time.Sleep(period)
		}
	}()
	s.h.CPU().EnableInterrupts()
	s.Run()
	select {}
}
