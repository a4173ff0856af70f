// Package statusline keeps the top screen row up to date: system name,
// virtual terminal states and a wall clock.
package statusline

import (
	"fmt"
	"strings"

	"cbos/services/logger"
	"cbos/task"
)

// Width is the rendered width of the line.
const Width = 80

// VTCount is the number of virtual terminals shown.
const VTCount = 12

const (
	nameWidth = 8
	vtWidth   = 5
	gapWidth  = Width - nameWidth - VTCount*vtWidth - clockWidth
)

// VTState is what the status line shows for one virtual terminal.
type VTState uint8

const (
	NotUsed VTState = iota
	Active
	Inactive
	Alert
)

var vtStateNames = [...]string{
	NotUsed:  "NotUsed",
	Active:   "Active",
	Inactive: "Inactive",
	Alert:    "Alert",
}

func (s VTState) String() string {
	if int(s) < len(vtStateNames) {
		return vtStateNames[s]
	}
	return fmt.Sprintf("VTState(%d)", uint8(s))
}

// ParseVTState accepts the names returned by String, case-insensitively.
func ParseVTState(s string) (VTState, bool) {
	for i, name := range vtStateNames {
		if strings.EqualFold(s, name) {
			return VTState(i), true
		}
	}
	return NotUsed, false
}

// cell renders terminal n (1-based) in vtWidth columns.
func (s VTState) cell(n int) string {
	switch s {
	case Active:
		return fmt.Sprintf("[%2d] ", n)
	case Inactive:
		return fmt.Sprintf(" %2d  ", n)
	case Alert:
		return fmt.Sprintf("!%2d! ", n)
	default:
		return "  -  "
	}
}

// LineSetter receives the rendered line.
type LineSetter interface {
	SetLine(s string)
}

// StatusLine is owned by a single task.
type StatusLine struct {
	name  string
	vts   [VTCount]VTState
	clock Clock
	out   LineSetter
	log   *logger.Logger
}

// New returns a status line drawing into out. Only VT 1 is active.
func New(name string, out LineSetter, log *logger.Logger) *StatusLine {
	s := &StatusLine{name: name, out: out, log: log}
	s.vts[0] = Active
	return s
}

func (s *StatusLine) Name() string { return s.name }

func (s *StatusLine) SetName(name string) {
	s.name = name
	s.update()
}

func (s *StatusLine) Clock() Clock { return s.clock }

// VTState returns the state of VT id (0-based).
func (s *StatusLine) VTState(id int) (VTState, bool) {
	if id < 0 || id >= VTCount {
		return NotUsed, false
	}
	return s.vts[id], true
}

// SetVTState changes the state of VT id (0-based) and redraws. It returns
// false, changing nothing, for an unknown id or an unchanged state.
func (s *StatusLine) SetVTState(id int, state VTState) bool {
	if id < 0 || id >= VTCount || s.vts[id] == state {
		return false
	}
	s.vts[id] = state
	s.update()
	return true
}

// Tick advances the clock one second and redraws.
func (s *StatusLine) Tick() {
	s.clock.Tick()
	s.update()
}

func (s *StatusLine) update() {
	if s.out != nil {
		s.out.SetLine(s.String())
	}
}

// String renders exactly Width columns.
func (s *StatusLine) String() string {
	var b strings.Builder
	b.Grow(Width)
	name := s.name
	if len(name) > nameWidth {
		name = name[:nameWidth]
	}
	fmt.Fprintf(&b, "%-*s", nameWidth, name)
	for i, st := range s.vts {
		b.WriteString(st.cell(i + 1))
	}
	b.WriteString(strings.Repeat(" ", gapWidth))
	b.WriteString(s.clock.String())
	return b.String()
}

// Run draws the line, then advances the clock once per item of ticks. It
// never returns.
func (s *StatusLine) Run(co *task.Co, ticks task.Stream[uint64]) {
	s.update()
	for {
		n := task.Await(co, ticks)
		s.Tick()
		s.log.Trace().Uint64("ticks", n).Str("clock", s.clock.String()).Log("status line updated")
	}
}
