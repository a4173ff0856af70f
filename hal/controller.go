package hal

import (
	"math/bits"
	"sync"
	"sync/atomic"
)

const picLines = 16

// Controller is a software single-core interrupt controller. It implements
// CPU and PIC on any platform that has goroutines.
//
// Raised lines are latched in a request register and delivered by one
// goroutine, one at a time, lowest line first, and only while the interrupt
// flag is set. A line stays in service until EndOfInterrupt.
type Controller struct {
	mu   sync.Mutex
	cond *sync.Cond

	enabled   bool
	running   bool
	closed    bool
	irr       uint16
	isr       uint16
	delivered uint64
	handlers  [picLines]Handler

	eoi [picLines]atomic.Uint64
}

// NewController starts a controller with interrupts disabled.
func NewController() *Controller {
	c := &Controller{}
	c.cond = sync.NewCond(&c.mu)
	go c.loop()
	return c
}

func line(v Vector) (uint, bool) {
	if v < PIC1Offset || v >= PIC1Offset+picLines {
		return 0, false
	}
	return uint(v - PIC1Offset), true
}

// Register installs h for v. Vectors outside the two PICs are ignored.
func (c *Controller) Register(v Vector, h Handler) {
	n, ok := line(v)
	if !ok {
		return
	}
	c.mu.Lock()
	c.handlers[n] = h
	c.mu.Unlock()
}

// Raise latches a request for v. It never blocks and may be called from any
// goroutine, including a handler.
func (c *Controller) Raise(v Vector) {
	n, ok := line(v)
	if !ok {
		return
	}
	c.mu.Lock()
	c.irr |= 1 << n
	c.cond.Broadcast()
	c.mu.Unlock()
}

// EndOfInterrupt takes v out of service.
func (c *Controller) EndOfInterrupt(v Vector) {
	n, ok := line(v)
	if !ok {
		return
	}
	c.eoi[n].Add(1)
	c.mu.Lock()
	c.isr &^= 1 << n
	c.cond.Broadcast()
	c.mu.Unlock()
}

// EOICount returns how often v was acknowledged.
func (c *Controller) EOICount(v Vector) uint64 {
	n, ok := line(v)
	if !ok {
		return 0
	}
	return c.eoi[n].Load()
}

// Delivered returns the number of interrupts serviced so far.
func (c *Controller) Delivered() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delivered
}

// DisableInterrupts clears the flag. When it returns no handler is running.
func (c *Controller) DisableInterrupts() {
	c.mu.Lock()
	c.enabled = false
	for c.running {
		c.cond.Wait()
	}
	c.mu.Unlock()
}

func (c *Controller) EnableInterrupts() {
	c.mu.Lock()
	c.enabled = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// EnableAndHalt sets the flag and sleeps until an interrupt has been
// serviced. The lock is held from the enable until the wait starts, so a
// pending line cannot be delivered unobserved in between. A powered off
// controller never wakes the CPU again.
func (c *Controller) EnableAndHalt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = true
	c.cond.Broadcast()
	start := c.delivered
	for c.delivered == start || c.closed {
		c.cond.Wait()
	}
}

func (c *Controller) InterruptsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Close powers the controller off. Pending requests are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.irr = 0
	c.cond.Broadcast()
	c.mu.Unlock()
}

func (c *Controller) next() (uint, bool) {
	if !c.enabled || c.running {
		return 0, false
	}
	ready := c.irr &^ c.isr
	if ready == 0 {
		return 0, false
	}
	return uint(bits.TrailingZeros16(ready)), true
}

func (c *Controller) loop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		n, ok := c.next()
		for !ok && !c.closed {
			c.cond.Wait()
			n, ok = c.next()
		}
		if c.closed {
			return
		}

		bit := uint16(1) << n
		c.irr &^= bit
		h := c.handlers[n]
		if h != nil {
			c.isr |= bit
		}
		c.running = true
		c.mu.Unlock()

		if h != nil {
			h(PIC1Offset + Vector(n))
		}

		c.mu.Lock()
		c.running = false
		c.delivered++
		c.cond.Broadcast()
	}
}
