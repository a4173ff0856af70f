// Package shell is Minell, a minimal line-oriented shell running as a kernel
// task.
package shell

import (
	"errors"
	"strings"

	"cbos/hal"
	"cbos/keyboard"
	"cbos/programs/statusline"
	"cbos/services/console"
	"cbos/services/logger"
	"cbos/services/readline"
	"cbos/task"
)

// Defaults for unset Config fields.
const (
	DefaultMaxLine = console.Cols
	DefaultPrompt  = "> "
)

const (
	banner   = "\nMinell. A MInimal shELL.\nType help for help. Exit to exit ..\n"
	notFound = "Command not found. Type `help` for more information."
)

// errExit stops the read loop.
var errExit = errors.New("exit")

// TickCounter reports the number of timer interrupts seen so far.
type TickCounter interface {
	Count() uint64
}

// Config wires the shell to the rest of the system. Out, Err and Keys are
// required.
type Config struct {
	Out  *console.View
	Err  *console.View
	Keys task.Stream[keyboard.DecodedKey]

	Spawner *task.Spawner
	Ticks   TickCounter
	TickHz  int
	Power   hal.Power
	Status  *statusline.StatusLine
	Log     *logger.Logger

	Prompt  string
	MaxLine int
}

// Shell is owned by the task running it.
type Shell struct {
	cfg Config
	in  *readline.Reader
	reg *registry
}

func New(cfg Config) (*Shell, error) {
	if cfg.Out == nil || cfg.Err == nil || cfg.Keys == nil {
		return nil, errors.New("shell: output views and key stream are required")
	}
	if cfg.MaxLine <= 0 {
		cfg.MaxLine = DefaultMaxLine
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	s := &Shell{
		cfg: cfg,
		in:  &readline.Reader{Keys: cfg.Keys, Echo: cfg.Out, Log: cfg.Log},
		reg: newRegistry(),
	}
	if err := registerCommands(s.reg); err != nil {
		return nil, err
	}
	return s, nil
}

// Task returns a task running the shell until exit.
func (s *Shell) Task() *task.Task {
	return task.Spawnable(s.Run)
}

// Run prints the banner, then reads and executes lines until exit.
func (s *Shell) Run(co *task.Co) {
	s.cfg.Err.WriteString(banner)
	for {
		s.cfg.Err.WriteString(s.cfg.Prompt)
		line := s.in.ReadLine(co, s.cfg.MaxLine)
		s.cfg.Out.WriteString("\n")
		// Let the status line and other tasks catch up before the command runs.
		co.YieldNow()
		if errors.Is(s.Exec(co, line), errExit) {
			s.cfg.Log.Info().Log("shell exited")
			return
		}
	}
}

// Exec runs one command line. Blank lines do nothing. A failing command
// prints its error on Err; the error is also returned.
func (s *Shell) Exec(co *task.Co, line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	cmd, ok := s.reg.resolve(args[0])
	if !ok {
		s.cfg.Out.WriteString(notFound + "\n")
		s.cfg.Log.Debug().Str("command", args[0]).Log("command not found")
		return nil
	}
	err := cmd.Run(co, s, args[1:])
	if err != nil && !errors.Is(err, errExit) {
		s.cfg.Err.Printf("%s: %v\n", cmd.Name, err)
	}
	return err
}
