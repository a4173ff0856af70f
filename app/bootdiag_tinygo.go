//go:build tinygo && bootdebug

package app

import (
	"image/color"
	"machine"

	"tinygo.org/x/tinyfont"

	"cbos/fonts/font6x8"
	"cbos/services/console"
)

// bootStep reports each boot stage on the UART log, the USB CDC port and the
// framebuffer, so a board that hangs during boot shows where.
func (s *System) bootStep(step string) {
	s.log.Debug().Str("step", step).Log("boot")

	line := "bootdiag: " + step
	if l := s.h.Logger(); l != nil {
		l.WriteLineString(line)
	}
	if usb := machine.USBCDC; usb != nil {
		_, _ = usb.Write([]byte(line + "\r\n"))
	}

	disp := s.h.Display()
	if disp == nil || disp.Framebuffer() == nil {
		return
	}
	fb := disp.Framebuffer()
	fb.ClearRGB(0, 0, 0)
	d := console.NewDisplay(fb)
	fg := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	tinyfont.WriteLine(d, font6x8.Font, 0, font6x8.Baseline, "cbos boot", fg)
	tinyfont.WriteLine(d, font6x8.Font, 0, 2*font6x8.Height+font6x8.Baseline, step, fg)
	_ = fb.Present()
}
