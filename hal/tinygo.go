//go:build tinygo && baremetal

package hal

import (
	"context"
	"machine"
)

type tinyGoHAL struct {
	logger *uartLogger
	fb     Framebuffer
	ctrl   *Controller
	ps2    *PS2Port
	pit    *PITDevice
	serial *uartSerial
	power  *PowerSwitch
}

// New returns a Pico 2 (RP2350) HAL implementation. The UART doubles as the
// log sink and the keyboard.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	ctrl := NewController()
	h := &tinyGoHAL{
		logger: &uartLogger{uart: uart},
		fb:     &stubFramebuffer{w: DefaultWidth, h: DefaultHeight, format: PixelFormatRGB565},
		ctrl:   ctrl,
		ps2:    NewPS2Port(ctrl),
		pit:    NewPITDevice(ctrl, DefaultPITHz),
		serial: &uartSerial{uart: uart},
		power:  NewPowerSwitch(ctrl.Close),
	}
	go pumpUART(uart, h.ps2)
	go h.pit.Run(context.Background())
	return h
}

func (h *tinyGoHAL) Logger() Logger   { return h.logger }
func (h *tinyGoHAL) Display() Display { return tinyGoDisplay{fb: h.fb} }
func (h *tinyGoHAL) CPU() CPU         { return h.ctrl }
func (h *tinyGoHAL) PIC() PIC         { return h.ctrl }
func (h *tinyGoHAL) PS2() PS2         { return h.ps2 }
func (h *tinyGoHAL) PIT() PIT         { return h.pit }
func (h *tinyGoHAL) Serial() Serial   { return h.serial }
func (h *tinyGoHAL) Power() Power     { return h.power }
