package app

import (
	"fmt"
	"strings"

	"tinygo.org/x/tinyterm"

	"cbos/fonts/font6x8"
	"cbos/kernel"
	"cbos/services/console"
)

func (s *System) installPanicHandler() {
	kernel.SetPanicHandler(func(info kernel.PanicInfo) {
		s.frameMu.Lock()
		defer s.frameMu.Unlock()

		lines := panicLines(info)
		if l := s.h.Logger(); l != nil {
			for _, line := range lines {
				l.WriteLineString(line)
			}
		}
		if port := s.h.Serial(); port != nil {
			fmt.Fprintf(port, "%s\r\n", strings.Join(lines, "\r\n"))
		}
		s.con.Kernel.Printf("KERNEL PANIC (task %d): %v\n", info.TaskID, info.Value)

		if s.noFB {
			return
		}
		disp := s.h.Display()
		if disp == nil || disp.Framebuffer() == nil {
			return
		}
		fb := disp.Framebuffer()
		fb.ClearRGB(0, 0, 0)
		t := tinyterm.NewTerminal(console.NewDisplay(fb))
		t.Configure(&tinyterm.Config{
			Font:       font6x8.Font,
			FontHeight: font6x8.Height,
			FontOffset: font6x8.Baseline,
		})

		cols := fb.Width() / font6x8.Width
		rows := fb.Height() / font6x8.Height
		n := 0
		for i, line := range lines {
			for _, chunk := range wrap(line, cols) {
				if n == rows-1 {
					t.Display()
					return
				}
				if i == 0 {
					fmt.Fprintf(t, "\x1b[31m%s\x1b[0m\r\n", chunk)
				} else {
					fmt.Fprintf(t, "%s\r\n", chunk)
				}
				n++
			}
		}
		t.Display()
	})
}

func panicLines(info kernel.PanicInfo) []string {
	lines := []string{
		"cbos panic:",
		fmt.Sprintf("task: %d", info.TaskID),
		fmt.Sprintf("panic: %v", info.Value),
	}
	if len(info.Stack) == 0 {
		return append(lines, "stack: unavailable")
	}
	lines = append(lines, "stack:")
	for _, line := range strings.Split(string(info.Stack), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// wrap cuts s into pieces of at most n bytes. Continuation pieces lose their
// leading blanks.
func wrap(s string, n int) []string {
	if n <= 0 {
		return nil
	}
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = strings.TrimLeft(s[n:], " \t")
	}
	return append(out, s)
}
