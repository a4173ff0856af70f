package shell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cbos/internal/buildinfo"
	"cbos/programs/statusline"
	"cbos/task"
)

func registerCommands(r *registry) error {
	for _, cmd := range []command{
		{Name: "help", Usage: "help [command]", Desc: "Prints this.", Run: cmdHelp},
		{Name: "exit", Aliases: []string{"shutdown"}, Usage: "exit", Desc: "Shuts down the pc.", Run: cmdExit},
		{Name: "clear", Aliases: []string{"cls"}, Usage: "clear", Desc: "Clears the screen.", Run: cmdClear},
		{Name: "echo", Usage: "echo [args...]", Desc: "Prints its arguments.", Run: cmdEcho},
		{Name: "uptime", Usage: "uptime", Desc: "Prints timer ticks since boot.", Run: cmdUptime},
		{Name: "tasks", Usage: "tasks", Desc: "Prints the number of live tasks.", Run: cmdTasks},
		{Name: "spawn", Usage: "spawn [n]", Desc: "Starts n demo tasks.", Run: cmdSpawn},
		{Name: "vt", Usage: "vt <1-12> <active|inactive|alert|notused>", Desc: "Sets a terminal's status.", Run: cmdVT},
		{Name: "version", Usage: "version", Desc: "Prints the build.", Run: cmdVersion},
		{Name: "panic", Usage: "panic", Desc: "Panics the shell task.", Run: cmdPanic},
	} {
		if err := r.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func cmdHelp(_ *task.Co, s *Shell, args []string) error {
	out := s.cfg.Out
	if len(args) == 0 {
		w := s.reg.width()
		out.WriteString("Alternatives are denoted using |\n")
		out.Printf("%*s : Function =======\n", w, "======= Command")
		for _, name := range s.reg.names() {
			cmd, _ := s.reg.resolve(name)
			out.Printf("%*s : %s\n", w, cmd.label(), cmd.Desc)
		}
		return nil
	}
	if len(args) != 1 {
		return errors.New("usage: help [command]")
	}

	cmd, ok := s.reg.resolve(args[0])
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	if cmd.Usage != "" {
		out.WriteString("usage: " + cmd.Usage + "\n")
	}
	if cmd.Desc != "" {
		out.WriteString(cmd.Desc + "\n")
	}
	if len(cmd.Aliases) > 0 {
		out.WriteString("aliases: " + strings.Join(cmd.Aliases, ", ") + "\n")
	}
	return nil
}

func cmdExit(_ *task.Co, s *Shell, _ []string) error {
	if s.cfg.Power != nil {
		s.cfg.Power.Shutdown(0)
	}
	return errExit
}

func cmdClear(_ *task.Co, s *Shell, _ []string) error {
	s.cfg.Out.Clear()
	return nil
}

func cmdEcho(_ *task.Co, s *Shell, args []string) error {
	s.cfg.Out.WriteString(strings.Join(args, " ") + "\n")
	return nil
}

func cmdUptime(_ *task.Co, s *Shell, _ []string) error {
	if s.cfg.Ticks == nil || s.cfg.TickHz <= 0 {
		return errors.New("no timer")
	}
	n := s.cfg.Ticks.Count()
	hz := uint64(s.cfg.TickHz)
	s.cfg.Out.Printf("up %d ticks (%d.%02ds at %d Hz)\n", n, n/hz, n%hz*100/hz, hz)
	return nil
}

func cmdTasks(_ *task.Co, s *Shell, _ []string) error {
	if s.cfg.Spawner == nil {
		return errors.New("no spawner")
	}
	s.cfg.Out.Printf("%d tasks\n", s.cfg.Spawner.Len())
	return nil
}

func cmdSpawn(_ *task.Co, s *Shell, args []string) error {
	if s.cfg.Spawner == nil {
		return errors.New("no spawner")
	}
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return fmt.Errorf("bad count %q", args[0])
		}
		n = v
	}
	for i := 0; i < n; i++ {
		t := s.demoTask()
		s.cfg.Spawner.Spawn(t)
		s.cfg.Out.Printf("spawned task %s\n", t.ID())
	}
	return nil
}

// demoTask prints, yields once and completes.
func (s *Shell) demoTask() *task.Task {
	var t *task.Task
	t = task.Spawnable(func(co *task.Co) {
		s.cfg.Out.Printf("task %s running\n", t.ID())
		co.YieldNow()
		s.cfg.Out.Printf("task %s done\n", t.ID())
	})
	return t
}

func cmdVT(_ *task.Co, s *Shell, args []string) error {
	if s.cfg.Status == nil {
		return errors.New("no status line")
	}
	if len(args) != 2 {
		return errors.New("usage: vt <1-12> <state>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > statusline.VTCount {
		return fmt.Errorf("bad terminal %q", args[0])
	}
	st, ok := statusline.ParseVTState(args[1])
	if !ok {
		return fmt.Errorf("bad state %q", args[1])
	}
	if !s.cfg.Status.SetVTState(n-1, st) {
		s.cfg.Out.Printf("vt %d already %s\n", n, st)
	}
	return nil
}

func cmdVersion(_ *task.Co, s *Shell, _ []string) error {
	s.cfg.Out.Printf("cbos %s (%s, %s)\n", buildinfo.Short(), buildinfo.Commit, buildinfo.Date)
	return nil
}

func cmdPanic(*task.Co, *Shell, []string) error {
	panic("shell panic")
}
