package statusline

import "fmt"

const clockWidth = 8

// Clock is a time of day with one second resolution.
type Clock struct {
	Hours   uint8
	Minutes uint8
	Seconds uint8
}

// Tick advances the clock one second, wrapping at midnight.
func (c *Clock) Tick() {
	c.Seconds++
	if c.Seconds < 60 {
		return
	}
	c.Seconds = 0
	c.Minutes++
	if c.Minutes < 60 {
		return
	}
	c.Minutes = 0
	c.Hours++
	if c.Hours >= 24 {
		c.Hours = 0
	}
}

// String returns "HH:MM:SS".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
}
